package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"screen-pin/src/capture"
	"screen-pin/src/clipboard"
	"screen-pin/src/coords"
	"screen-pin/src/dpi"
	"screen-pin/src/logutil"
	"screen-pin/src/screenshot"
	"screen-pin/src/selection"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

// DefaultDeadline bounds one capture when Options.Deadline is unset.
const DefaultDeadline = 10 * time.Second

type SelectFunc func(ctx context.Context) (selection.Selection, bool, error)

type CaptureFunc func(ctx context.Context, region coords.Rect) capture.Result

// DPIFunc returns the DPI at a screen-absolute physical point.
type DPIFunc func(x, y int) dpi.Info

// Delivery is what a consumer (clipboard, pinned window) receives.
type Delivery struct {
	Image *screenshot.Image
	// Region is bitmap-relative; ScreenRegion is screen-absolute.
	Region       coords.Rect
	ScreenRegion coords.Rect
	// Placement is the DIP-space top-left at which a pinned window shows
	// the image so it lines up with where it was captured.
	Placement coords.PointF
	DPI       dpi.Info
}

type Target interface {
	OnSuccess(d Delivery) error
	OnFailure(err error) error
}

type Options struct {
	Deadline time.Duration
	Select   SelectFunc
	Capture  CaptureFunc
	DPIAt    DPIFunc
	Target   Target
	Log      logutil.Sink
}

// NewDelivery builds a Delivery from a successful capture result.
func NewDelivery(res capture.Result, dpiAt DPIFunc) Delivery {
	d := dpi.Default()
	if dpiAt != nil {
		d = dpiAt(res.ScreenRegion.X, res.ScreenRegion.Y)
	}
	return Delivery{
		Image:        res.Image,
		Region:       res.Region,
		ScreenRegion: res.ScreenRegion,
		Placement:    coords.ScreenPixelToDip(res.ScreenRegion.X, res.ScreenRegion.Y, d),
		DPI:          d,
	}
}

// Report hands a capture result to target. Cancellation reaches the target
// as ErrSelectionCancelled, never as the capture error.
func Report(target Target, res capture.Result, dpiAt DPIFunc) (Delivery, error) {
	if !res.Success {
		err := res.Err()
		if res.Cancelled() {
			err = fmt.Errorf("%w: %w", ErrSelectionCancelled, err)
		}
		_ = target.OnFailure(err)
		return Delivery{}, err
	}
	d := NewDelivery(res, dpiAt)
	if err := target.OnSuccess(d); err != nil {
		_ = target.OnFailure(err)
		return Delivery{}, err
	}
	return d, nil
}

// Execute runs one select, capture, deliver pass.
func Execute(ctx context.Context, opts Options) (Delivery, error) {
	if opts.Select == nil {
		return Delivery{}, errors.New("Select is required")
	}
	if opts.Capture == nil {
		return Delivery{}, errors.New("Capture is required")
	}
	if opts.Target == nil {
		return Delivery{}, errors.New("Target is required")
	}
	log := opts.Log
	if log == nil {
		log = logutil.Discard()
	}

	sel, cancelled, err := opts.Select(ctx)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Delivery{}, err
	}
	if cancelled {
		logutil.Logf(log, logutil.LevelInfo, "session: selection cancelled")
		_ = opts.Target.OnFailure(ErrSelectionCancelled)
		return Delivery{}, ErrSelectionCancelled
	}

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	res := opts.Capture(jobCtx, sel.Bitmap)
	logutil.Logf(log, logutil.LevelDebug, "session: capture of %v finished in %v (success=%v)", sel.Bitmap, time.Since(start), res.Success)
	return Report(opts.Target, res, opts.DPIAt)
}

// ClipboardTarget copies the image to the clipboard as PNG.
type ClipboardTarget struct {
	// Write defaults to clipboard.WriteImage.
	Write func(png []byte) error
}

func (t ClipboardTarget) OnSuccess(d Delivery) error {
	b, err := d.Image.PNG()
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	write := t.Write
	if write == nil {
		write = clipboard.WriteImage
	}
	if err := write(b); err != nil {
		return fmt.Errorf("clipboard error: %w", err)
	}
	return nil
}

func (ClipboardTarget) OnFailure(err error) error {
	return nil
}

// WriterTarget streams the PNG to Writer (stdout when nil).
type WriterTarget struct {
	Writer io.Writer
}

func (t WriterTarget) OnSuccess(d Delivery) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	b, err := d.Image.PNG()
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func (WriterTarget) OnFailure(err error) error {
	return nil
}

// FuncTarget adapts a pair of functions to Target. Nil fields are no-ops.
type FuncTarget struct {
	Success func(Delivery) error
	Failure func(error) error
}

func (t FuncTarget) OnSuccess(d Delivery) error {
	if t.Success == nil {
		return nil
	}
	return t.Success(d)
}

func (t FuncTarget) OnFailure(err error) error {
	if t.Failure == nil {
		return nil
	}
	return t.Failure(err)
}

// MultiTarget fans a delivery out to every target; the first error wins.
type MultiTarget []Target

func (m MultiTarget) OnSuccess(d Delivery) error {
	var first error
	for _, t := range m {
		if err := t.OnSuccess(d); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiTarget) OnFailure(err error) error {
	for _, t := range m {
		_ = t.OnFailure(err)
	}
	return nil
}
