package runtimeinit

import (
	"fmt"

	"screen-pin/src/capture"
	"screen-pin/src/clipboard"
	"screen-pin/src/config"
	"screen-pin/src/desktop"
	"screen-pin/src/dpi"
	"screen-pin/src/logutil"
	"screen-pin/src/overlay"
	"screen-pin/src/screenshot"
	"screen-pin/src/session"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// Log receives component diagnostics; defaults to logutil.Std().
	Log logutil.Sink
	// InitClipboard initializes the system clipboard when the config asks
	// for clipboard delivery.
	InitClipboard bool
	// Desktop and Backend replace the system implementations (tests).
	Desktop desktop.Provider
	Backend screenshot.Backend
}

// Runtime is the wired capture core shared by the resident app and the CLI.
type Runtime struct {
	Config   *config.Config
	Log      logutil.Sink
	Desktop  desktop.Provider
	Resolver *dpi.Resolver
	Backend  screenshot.Backend
	Capture  *capture.Service
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}
	log := opts.Log
	if log == nil {
		log = logutil.Std()
	}

	desk := opts.Desktop
	if desk == nil {
		desk = desktop.System{Log: log}
	}

	backend := opts.Backend
	if backend == nil {
		name := cfg.CaptureBackend
		if name == "" {
			name = screenshot.DefaultBackend()
		}
		backend, err = screenshot.New(name)
		if err != nil {
			return nil, fmt.Errorf("capture backend %q: %w", name, err)
		}
	}

	cursor := func() (int, int, error) {
		p, err := desk.CursorPos()
		return p.X, p.Y, err
	}
	resolver := dpi.NewResolver(log, cursor, dpi.SystemStrategies(cfg.DPIPreferWindow)...)

	if opts.InitClipboard && cfg.CopyToClipboard {
		if err := clipboard.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}

	logutil.Logf(log, logutil.LevelInfo, "runtime: backend=%s hotkey=%s deadline=%ds min-selection=%dpx",
		backend.Name(), cfg.Hotkey, cfg.CaptureDeadlineSec, cfg.MinSelectionPx)

	return &Runtime{
		Config:   cfg,
		Log:      log,
		Desktop:  desk,
		Resolver: resolver,
		Backend:  backend,
		Capture:  capture.NewService(backend, desk, log),
	}, nil
}

// DPIAt resolves the DPI at a screen-absolute physical point.
func (r *Runtime) DPIAt(x, y int) dpi.Info { return r.Resolver.ResolveAtPoint(x, y) }

// Selector returns the interactive overlay bound to this runtime.
func (r *Runtime) Selector() overlay.Selector {
	return overlay.NewSelector(overlay.Options{
		Snapshot: r.Capture,
		Desktop:  r.Desktop,
		Resolver: r.Resolver,
		MinSpan:  r.Config.MinSelectionPx,
		Log:      r.Log,
	})
}

// Target returns the delivery target the config asks for, plus extra.
func (r *Runtime) Target(extra ...session.Target) session.Target {
	var targets session.MultiTarget
	if r.Config.CopyToClipboard {
		targets = append(targets, session.ClipboardTarget{})
	}
	targets = append(targets, extra...)
	return targets
}

// LoadOptionsFor builds config.LoadOptions from an explicit env file and an
// optional backend override.
func LoadOptionsFor(envPath string, backend ...string) config.LoadOptions {
	o := config.LoadOptions{EnvPath: envPath}
	if len(backend) > 0 {
		o.BackendOverride = backend[0]
	}
	return o
}
