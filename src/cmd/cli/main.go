package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-pin/src/capture"
	"screen-pin/src/coords"
	"screen-pin/src/logutil"
	"screen-pin/src/runtimeinit"
	"screen-pin/src/session"
)

type cliOptions struct {
	envPath string
	verbose bool
	backend string

	full       bool
	region     string
	jsonOutput bool
	clipboard  bool
	outPath    string

	x, y int
}

// cli holds the process edges so tests can swap them.
type cli struct {
	stdout    io.Writer
	stderr    io.Writer
	bootstrap func(runtimeinit.Options) (*runtimeinit.Runtime, error)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr, bootstrap: runtimeinit.Bootstrap}
	return c.runWithArgs(normalizeLegacyArgs(os.Args))
}

func (c *cli) runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-pin"}
	}
	opts := &cliOptions{}
	cmd := c.newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)
	return cmd.Execute()
}

func (c *cli) newRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "screen-pin",
		Short:         "Capture screen regions with DPI-correct coordinates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envPath, "env", "", "Config file to load instead of the .env lookup")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Capture backend: gdi or screenshot")

	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a region or the whole virtual desktop once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCapture(cmd.Context(), *opts)
		},
	}
	captureCmd.Flags().BoolVar(&opts.full, "full", false, "Capture the whole virtual desktop")
	captureCmd.Flags().StringVar(&opts.region, "region", "", "Region x,y,w,h in physical pixels relative to the virtual desktop")
	captureCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	captureCmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "Copy the image to the clipboard")
	captureCmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write PNG to this path ('-' for stdout)")
	captureCmd.MarkFlagsMutuallyExclusive("full", "region")
	captureCmd.MarkFlagsOneRequired("full", "region")

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Drag to select a region, then capture it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSelect(cmd.Context(), *opts)
		},
	}
	selectCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	selectCmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "Copy the image to the clipboard")
	selectCmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write PNG to this path ('-' for stdout)")

	dpiCmd := &cobra.Command{
		Use:   "dpi",
		Short: "Print the DPI at a screen point (default: the cursor)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDPI(*opts, cmd.Flags().Changed("x") || cmd.Flags().Changed("y"))
		},
	}
	dpiCmd.Flags().IntVar(&opts.x, "x", 0, "Screen-absolute x in physical pixels")
	dpiCmd.Flags().IntVar(&opts.y, "y", 0, "Screen-absolute y in physical pixels")
	dpiCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	root.AddCommand(captureCmd, selectCmd, dpiCmd)
	return root
}

func (c *cli) sink(opts cliOptions) logutil.Sink {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
		return logutil.Discard()
	}
	log.SetOutput(c.stderr)
	return logutil.NewLogxSink(c.stderr, true)
}

func (c *cli) boot(opts cliOptions) (*runtimeinit.Runtime, error) {
	rt, err := c.bootstrap(runtimeinit.Options{
		LoadOptions:   runtimeinit.LoadOptionsFor(opts.envPath, opts.backend),
		Log:           c.sink(opts),
		InitClipboard: opts.clipboard,
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (c *cli) runCapture(ctx context.Context, opts cliOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := c.boot(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(rt.Config.CaptureDeadlineSec)*time.Second)
	defer cancel()

	start := time.Now()
	var res capture.Result
	if opts.full {
		res = rt.Capture.CaptureFullScreen(ctx, nil)
	} else {
		region, err := parseRegion(opts.region)
		if err != nil {
			return err
		}
		res = rt.Capture.CaptureRegion(ctx, region, nil)
	}
	return c.deliver(rt, opts, res, time.Since(start))
}

func (c *cli) runSelect(ctx context.Context, opts cliOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := c.boot(opts)
	if err != nil {
		return err
	}
	sel, cancelled, err := rt.Selector().Select(ctx)
	if err != nil {
		return fmt.Errorf("failed to select region: %w", err)
	}
	if cancelled {
		return session.ErrSelectionCancelled
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(rt.Config.CaptureDeadlineSec)*time.Second)
	defer cancel()
	start := time.Now()
	res := rt.Capture.CaptureRegion(ctx, sel.Bitmap, nil)
	return c.deliver(rt, opts, res, time.Since(start))
}

func (c *cli) deliver(rt *runtimeinit.Runtime, opts cliOptions, res capture.Result, elapsed time.Duration) error {
	var targets session.MultiTarget
	if opts.clipboard {
		targets = append(targets, session.ClipboardTarget{})
	}
	switch opts.outPath {
	case "":
	case "-":
		if opts.jsonOutput {
			return errors.New("--out - cannot be combined with --json")
		}
		targets = append(targets, session.WriterTarget{Writer: c.stdout})
	default:
		targets = append(targets, fileTarget{path: opts.outPath})
	}

	d, err := session.Report(targets, res, rt.DPIAt)
	if err != nil {
		return err
	}
	if opts.outPath == "-" {
		return nil
	}
	return c.outputResult(captureReport(rt.Backend.Name(), d, opts.outPath, elapsed), opts.jsonOutput)
}

type fileTarget struct{ path string }

func (t fileTarget) OnSuccess(d session.Delivery) error {
	b, err := d.Image.PNG()
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, b, 0o644)
}

func (fileTarget) OnFailure(error) error { return nil }

type rectJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func toRectJSON(r coords.Rect) rectJSON {
	return rectJSON{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

type CaptureReport struct {
	Backend      string     `json:"backend"`
	Region       rectJSON   `json:"region"`
	ScreenRegion rectJSON   `json:"screen_region"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	DPI          [2]float64 `json:"dpi"`
	Placement    [2]float64 `json:"placement_dip"`
	Output       string     `json:"output,omitempty"`
	Timestamp    string     `json:"timestamp"`
	Duration     float64    `json:"duration_seconds"`
}

func captureReport(backend string, d session.Delivery, out string, elapsed time.Duration) CaptureReport {
	return CaptureReport{
		Backend:      backend,
		Region:       toRectJSON(d.Region),
		ScreenRegion: toRectJSON(d.ScreenRegion),
		Width:        d.Image.Width(),
		Height:       d.Image.Height(),
		DPI:          [2]float64{d.DPI.X, d.DPI.Y},
		Placement:    [2]float64{d.Placement.X, d.Placement.Y},
		Output:       out,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Duration:     elapsed.Seconds(),
	}
}

func (c *cli) outputResult(r CaptureReport, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(c.stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintf(c.stdout, "captured %dx%d at %d,%d (screen %d,%d) via %s in %.3fs\n",
		r.Width, r.Height, r.Region.X, r.Region.Y, r.ScreenRegion.X, r.ScreenRegion.Y, r.Backend, r.Duration)
	return err
}

type DPIReport struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	DPIX   float64 `json:"dpi_x"`
	DPIY   float64 `json:"dpi_y"`
	Scale  float64 `json:"scale"`
	Source string  `json:"source"`
}

func (c *cli) runDPI(opts cliOptions, explicit bool) error {
	rt, err := c.boot(opts)
	if err != nil {
		return err
	}
	x, y := opts.x, opts.y
	if !explicit {
		p, err := rt.Desktop.CursorPos()
		if err != nil {
			return fmt.Errorf("cursor position unavailable, pass --x and --y: %w", err)
		}
		x, y = p.X, p.Y
	}
	info, source := rt.Resolver.ResolveAtPointWithSource(x, y)
	r := DPIReport{X: x, Y: y, DPIX: info.X, DPIY: info.Y, Scale: info.ScaleX(), Source: source}
	if opts.jsonOutput {
		encoder := json.NewEncoder(c.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	}
	_, err = fmt.Fprintf(c.stdout, "%d,%d: %v (%.0f%%) from %s\n", x, y, info, r.Scale*100, source)
	return err
}

// parseRegion parses "x,y,w,h".
func parseRegion(s string) (coords.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return coords.Rect{}, fmt.Errorf("region %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return coords.Rect{}, fmt.Errorf("region %q: %w", s, err)
		}
		v[i] = n
	}
	return coords.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

var legacyFlags = []string{"full", "region", "json", "clipboard", "out", "verbose", "backend", "env"}

// normalizeLegacyArgs maps single-dash long flags (-json) to cobra's --json.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacyFlags {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}

	return normalized
}
