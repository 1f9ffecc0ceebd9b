// Package capture turns a selected region into a frozen image. The two
// expensive steps (screen copy, pixel conversion) run off the caller's
// goroutine and are bracketed by cancellation checks.
package capture

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/logutil"
	"screen-pin/src/screenshot"
)

// Stage is a coarse progress milestone.
type Stage int

const (
	StagePreparing Stage = iota
	StageCopying
	StageConverting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePreparing:
		return "preparing"
	case StageCopying:
		return "copying"
	case StageConverting:
		return "converting"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// ProgressFunc receives milestones on the worker goroutine or the caller's;
// callers marshal to their own thread if they need to.
type ProgressFunc func(Stage)

// Service runs captures against one backend. It keeps no per-request state,
// so concurrent calls are independent.
type Service struct {
	backend screenshot.Backend
	desktop desktop.Provider
	log     logutil.Sink
}

// NewService returns a capture service. A nil sink discards diagnostics.
func NewService(backend screenshot.Backend, desk desktop.Provider, log logutil.Sink) *Service {
	if log == nil {
		log = logutil.Discard()
	}
	return &Service{backend: backend, desktop: desk, log: log}
}

// Backend returns the backend the service captures with.
func (s *Service) Backend() screenshot.Backend { return s.backend }

// CaptureFullScreen captures the whole virtual desktop.
func (s *Service) CaptureFullScreen(ctx context.Context, progress ProgressFunc) Result {
	info, err := s.desktop.VirtualScreen()
	if err != nil {
		return s.fail(Failed(FailureCapture, err, "virtual screen query failed"))
	}
	return s.CaptureRegion(ctx, info.BitmapBounds(), progress)
}

// CaptureRegion captures region, given in bitmap-relative physical pixels
// (virtual-desktop origin at 0,0). Regions that stray outside the desktop
// are clamped, not rejected; non-positive extents fail without any OS call.
func (s *Service) CaptureRegion(ctx context.Context, region coords.Rect, progress ProgressFunc) Result {
	report := func(st Stage) {
		if progress != nil {
			progress(st)
		}
	}

	if region.Width <= 0 || region.Height <= 0 {
		return s.fail(Failed(FailureInvalidRegion, nil, "region %v has non-positive size", region))
	}

	report(StagePreparing)
	if err := ctx.Err(); err != nil {
		return s.fail(cancelled(err))
	}

	info, err := s.desktop.VirtualScreen()
	if err != nil {
		return s.fail(Failed(FailureCapture, err, "virtual screen query failed"))
	}
	// Always reduce to the on-desktop part; a rect hanging past an edge
	// still passes IsValidRegion.
	clamped := coords.ClampRectangle(region, info.BitmapBounds())
	if clamped != region {
		logutil.Logf(s.log, logutil.LevelInfo, "capture: region %v adjusted to %v within desktop %v", region, clamped, info)
		region = clamped
	}
	if !coords.IsValidRegion(region, info.BitmapBounds()) {
		return s.fail(Failed(FailureInvalidRegion, nil, "region is empty after clamping to desktop %v", info))
	}
	screen := info.ToScreen(region)

	report(StageCopying)
	buf, err := onWorker(func() (*screenshot.RawBuffer, error) {
		return s.backend.CaptureToBuffer(ctx, screen)
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		buf.Release()
		return s.fail(cancelled(ctxErr))
	}
	if err != nil {
		buf.Release()
		if isContextErr(err) {
			return s.fail(cancelled(err))
		}
		return s.fail(Failed(FailureCapture, err, "%s backend could not copy %v", s.backend.Name(), screen))
	}
	if buf == nil {
		return s.fail(Failed(FailureCapture, nil, "%s backend returned no buffer for %v", s.backend.Name(), screen))
	}

	report(StageConverting)
	img, err := onWorker(func() (*screenshot.Image, error) {
		defer buf.Release()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return s.backend.ConvertToImage(ctx, buf)
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return s.fail(cancelled(ctxErr))
	}
	if err != nil {
		if isContextErr(err) {
			return s.fail(cancelled(err))
		}
		return s.fail(Failed(FailureConvert, err, "%s backend could not convert %dx%d buffer", s.backend.Name(), region.Width, region.Height))
	}
	if img == nil {
		return s.fail(Failed(FailureConvert, nil, "%s backend returned no image", s.backend.Name()))
	}

	report(StageDone)
	logutil.Logf(s.log, logutil.LevelDebug, "capture: %v (screen %v) -> %dx%d", region, screen, img.Width(), img.Height())
	return Succeeded(img, region, screen)
}

func (s *Service) fail(r Result) Result {
	if r.Cancelled() {
		logutil.Logf(s.log, logutil.LevelInfo, "capture: %s", r.ErrorMessage)
		return r
	}
	logutil.Logf(s.log, logutil.LevelError, "capture: %v", r.Err())
	return r
}

func cancelled(err error) Result {
	return Failed(FailureCancelled, err, "capture cancelled")
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// onWorker runs fn on its own goroutine, pinned to an OS thread for the
// duration, and waits for it. It takes no context: the wait is never
// abandoned, since fn owns handles that must be released before the caller
// moves on. fn observes cancellation itself.
func onWorker[T any](fn func() (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		var o outcome
		defer func() {
			if p := recover(); p != nil {
				o.err = fmt.Errorf("panic: %v", p)
			}
			done <- o
		}()
		o.v, o.err = fn()
	}()
	o := <-done
	return o.v, o.err
}
