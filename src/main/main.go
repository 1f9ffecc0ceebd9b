package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-pin/src/capture"
	"screen-pin/src/config"
	"screen-pin/src/coords"
	"screen-pin/src/eventloop"
	"screen-pin/src/hotkey"
	"screen-pin/src/logutil"
	"screen-pin/src/runtimeinit"
	"screen-pin/src/session"
	"screen-pin/src/tray"
)

type mainOptions struct {
	captureOnce bool
	backend     string
	hotkey      string
	envPath     string
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// The tray's message loop needs the main goroutine pinned to one OS thread.
	runtime.LockOSThread()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-pin",
		Short:         "Resident screen capture tool (tray + hotkey)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.captureOnce {
				return captureOnce(*opts)
			}
			return runResident(*opts)
		},
	}
	cmd.Flags().BoolVar(&opts.captureOnce, "capture-once", false, "Select one region, copy it to the clipboard and exit")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Capture backend: gdi or screenshot")
	cmd.Flags().StringVar(&opts.hotkey, "hotkey", "", "Hotkey override, e.g. Ctrl+Alt+A")
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Config file to load instead of the .env lookup")
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-capture-once) to --capture-once.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") && len(arg) > 2 {
			normalized[i] = "-" + arg
		}
	}
	return normalized
}

func bootstrap(opts mainOptions) (*runtimeinit.Runtime, error) {
	return runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			EnvPath:         opts.envPath,
			BackendOverride: opts.backend,
			HotkeyOverride:  opts.hotkey,
		},
		SetupLogging:  setupLogging,
		Log:           logutil.Std(),
		InitClipboard: true,
	})
}

func setupLogging(enableFileLogging bool) {
	logutil.Setup(enableFileLogging)
}

func runResident(opts mainOptions) error {
	rt, err := bootstrap(opts)
	if err != nil {
		return err
	}
	logMonitorConfiguration(rt.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idleTooltip := fmt.Sprintf("Screen Pin - Press %s to capture", rt.Config.Hotkey)
	tray.UpdateTooltip(idleTooltip)

	loop, err := eventloop.New(eventloop.Options{
		Selector: rt.Selector(),
		Capture:  rt.Capture,
		Desktop:  rt.Desktop,
		Target:   rt.Target(),
		DPIAt:    rt.DPIAt,
		Deadline: time.Duration(rt.Config.CaptureDeadlineSec) * time.Second,
		Log:      rt.Log,
		OnBusy: func(busy bool) {
			if busy {
				tray.UpdateTooltip("Screen Pin: capturing...")
				return
			}
			tray.UpdateTooltip(idleTooltip)
		},
	})
	if err != nil {
		return err
	}

	if err := hotkey.Listen(rt.Config.Hotkey, rt.Log, func() {
		loop.RequestCapture(eventloop.CaptureRegion)
	}); err != nil {
		logutil.Logf(rt.Log, logutil.LevelError, "hotkey disabled: %v", err)
	}
	tray.SetAboutExtra(fmt.Sprintf("Hotkey: %s  Backend: %s", rt.Config.Hotkey, rt.Backend.Name()))

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("event loop stopped: %v", err)
		}
		tray.Stop()
	}()

	tray.Run(tray.Handlers{
		CaptureRegion:     func() { loop.RequestCapture(eventloop.CaptureRegion) },
		CaptureFullScreen: func() { loop.RequestCapture(eventloop.CaptureFullScreen) },
		Quit:              cancel,
	})
	cancel()
	return nil
}

// captureOnce performs a single select and capture and exits.
func captureOnce(opts mainOptions) error {
	rt, err := bootstrap(opts)
	if err != nil {
		return err
	}
	d, err := session.Execute(context.Background(), session.Options{
		Deadline: time.Duration(rt.Config.CaptureDeadlineSec) * time.Second,
		Select:   rt.Selector().Select,
		Capture: func(ctx context.Context, r coords.Rect) capture.Result {
			return rt.Capture.CaptureRegion(ctx, r, nil)
		},
		DPIAt:  rt.DPIAt,
		Target: rt.Target(),
		Log:    rt.Log,
	})
	if err != nil {
		if errors.Is(err, session.ErrSelectionCancelled) {
			return nil
		}
		return err
	}
	log.Printf("captured %dx%d at %v", d.Image.Width(), d.Image.Height(), d.ScreenRegion)
	return nil
}
