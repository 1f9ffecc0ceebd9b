package eventloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"screen-pin/src/capture"
	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/logutil"
	"screen-pin/src/overlay"
	"screen-pin/src/session"
	"screen-pin/src/worker"
)

// Kind selects what a capture request grabs.
type Kind int

const (
	CaptureRegion Kind = iota
	CaptureFullScreen
)

func (k Kind) String() string {
	switch k {
	case CaptureRegion:
		return "region"
	case CaptureFullScreen:
		return "full-screen"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Options wires a Loop. Capture, Target and (for region requests) Selector
// are required.
type Options struct {
	Selector overlay.Selector
	Capture  *capture.Service
	Desktop  desktop.Provider
	Target   session.Target
	DPIAt    session.DPIFunc
	Deadline time.Duration
	Log      logutil.Sink
	// OnBusy is told when a capture starts and finishes.
	OnBusy func(busy bool)
}

// Loop is the single-threaded coordinator: hotkey, tray and CLI requests
// all arrive through RequestCapture and are handled one at a time.
type Loop struct {
	opts     Options
	log      logutil.Sink
	pool     *worker.Pool
	busy     bool
	requests chan Kind
	results  chan result
	deadline time.Duration
}

type result struct {
	res    capture.Result
	cancel context.CancelFunc
}

// New creates a new event loop. A non-positive deadline means session.DefaultDeadline.
func New(opts Options) (*Loop, error) {
	if opts.Capture == nil {
		return nil, errors.New("eventloop: Capture is required")
	}
	if opts.Target == nil {
		return nil, errors.New("eventloop: Target is required")
	}
	if opts.Log == nil {
		opts.Log = logutil.Discard()
	}
	if opts.Desktop == nil {
		opts.Desktop = desktop.System{Log: opts.Log}
	}
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = session.DefaultDeadline
	}
	return &Loop{
		opts:     opts,
		log:      opts.Log,
		pool:     worker.New(1, opts.Capture, opts.Log),
		requests: make(chan Kind, 4),
		results:  make(chan result, 1),
		deadline: deadline,
	}, nil
}

// RequestCapture posts a capture request; safe from any goroutine. It
// reports false when the request queue is full.
func (l *Loop) RequestCapture(kind Kind) bool {
	select {
	case l.requests <- kind:
		return true
	default:
		logutil.Logf(l.log, logutil.LevelDebug, "eventloop: request queue full, dropping %v", kind)
		return false
	}
}

// Run processes requests until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case kind := <-l.requests:
			l.handleRequest(ctx, kind)
		case r := <-l.results:
			l.handleResult(r)
		}
	}
}

// Deadline returns the per-capture timeout.
func (l *Loop) Deadline() time.Duration { return l.deadline }

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if l.opts.OnBusy != nil {
		l.opts.OnBusy(b)
	}
}

func (l *Loop) handleRequest(ctx context.Context, kind Kind) {
	if l.busy {
		logutil.Logf(l.log, logutil.LevelInfo, "eventloop: busy, skipping %v request", kind)
		return
	}

	region, ok := l.regionFor(ctx, kind)
	if !ok {
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, l.deadline)
	l.setBusy(true)
	submitted := l.pool.Submit(jobCtx, region, nil, func(res capture.Result) {
		select {
		case l.results <- result{res: res, cancel: cancel}:
		case <-ctx.Done():
			cancel()
		}
	})
	if !submitted {
		cancel()
		l.setBusy(false)
		logutil.Logf(l.log, logutil.LevelInfo, "eventloop: worker busy, dropped %v request", kind)
	}
}

func (l *Loop) regionFor(ctx context.Context, kind Kind) (coords.Rect, bool) {
	if kind == CaptureFullScreen {
		info, err := l.opts.Desktop.VirtualScreen()
		if err != nil {
			logutil.Logf(l.log, logutil.LevelError, "eventloop: virtual screen: %v", err)
			_ = l.opts.Target.OnFailure(err)
			return coords.Rect{}, false
		}
		return info.BitmapBounds(), true
	}

	if l.opts.Selector == nil {
		err := errors.New("no region selector configured")
		logutil.Logf(l.log, logutil.LevelError, "eventloop: %v", err)
		_ = l.opts.Target.OnFailure(err)
		return coords.Rect{}, false
	}
	sel, cancelled, err := l.opts.Selector.Select(ctx)
	if err != nil {
		logutil.Logf(l.log, logutil.LevelError, "eventloop: selection error: %v", err)
		_ = l.opts.Target.OnFailure(fmt.Errorf("failed to select region: %w", err))
		return coords.Rect{}, false
	}
	if cancelled {
		logutil.Logf(l.log, logutil.LevelInfo, "eventloop: selection cancelled")
		_ = l.opts.Target.OnFailure(session.ErrSelectionCancelled)
		return coords.Rect{}, false
	}
	return sel.Bitmap, true
}

func (l *Loop) handleResult(r result) {
	defer func() {
		l.setBusy(false)
		if r.cancel != nil {
			r.cancel()
		}
	}()
	d, err := session.Report(l.opts.Target, r.res, l.opts.DPIAt)
	switch {
	case errors.Is(err, session.ErrSelectionCancelled):
		logutil.Logf(l.log, logutil.LevelInfo, "eventloop: capture cancelled")
	case err != nil:
		logutil.Logf(l.log, logutil.LevelError, "eventloop: delivery failed: %v", err)
	default:
		logutil.Logf(l.log, logutil.LevelInfo, "eventloop: delivered %dx%d at %v (dip %.1f,%.1f)",
			d.Image.Width(), d.Image.Height(), d.ScreenRegion, d.Placement.X, d.Placement.Y)
	}
}
