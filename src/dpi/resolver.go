package dpi

import (
	"errors"
	"fmt"

	"screen-pin/src/logutil"
)

// ErrUnsupported is returned by a strategy that has no implementation for
// the requested lookup (point or window).
var ErrUnsupported = errors.New("dpi: lookup not supported by strategy")

// PointFunc resolves the DPI at a physical screen point.
type PointFunc func(x, y int) (Info, error)

// WindowFunc resolves the DPI of a native window handle.
type WindowFunc func(hwnd uintptr) (Info, error)

// CursorFunc returns the OS cursor position in physical pixels.
type CursorFunc func() (x, y int, err error)

// Strategy is one step of the fallback chain. Either lookup may be nil when
// the underlying OS mechanism cannot answer that kind of query.
type Strategy struct {
	Name      string
	AtPoint   PointFunc
	ForWindow WindowFunc
}

// Resolver walks an ordered list of strategies and returns the first valid
// answer, terminating in Default. It never returns an error or panics.
type Resolver struct {
	strategies []Strategy
	cursor     CursorFunc
	log        logutil.Sink
}

// NewResolver returns a resolver over strategies, tried in slice order.
func NewResolver(log logutil.Sink, cursor CursorFunc, strategies ...Strategy) *Resolver {
	if log == nil {
		log = logutil.Discard()
	}
	return &Resolver{strategies: strategies, cursor: cursor, log: log}
}

// Strategies returns a copy of the configured chain.
func (r *Resolver) Strategies() []Strategy {
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// ResolveAtPoint returns the effective DPI at the physical point (x, y).
func (r *Resolver) ResolveAtPoint(x, y int) Info {
	info, _ := r.ResolveAtPointWithSource(x, y)
	return info
}

// ResolveAtPointWithSource is ResolveAtPoint that also names the strategy
// which answered ("default" when every step failed).
func (r *Resolver) ResolveAtPointWithSource(x, y int) (Info, string) {
	for _, s := range r.strategies {
		if s.AtPoint == nil {
			continue
		}
		info, err := attempt(func() (Info, error) { return s.AtPoint(x, y) })
		if err == nil {
			return info, s.Name
		}
		logutil.Logf(r.log, logutil.LevelDebug, "dpi: %s failed at (%d,%d): %v", s.Name, x, y, err)
	}
	logutil.Logf(r.log, logutil.LevelDebug, "dpi: all strategies failed at (%d,%d), using %v", x, y, Default())
	return Default(), "default"
}

// ResolveForWindow returns the effective DPI of a native window.
func (r *Resolver) ResolveForWindow(hwnd uintptr) Info {
	for _, s := range r.strategies {
		if s.ForWindow == nil {
			continue
		}
		info, err := attempt(func() (Info, error) { return s.ForWindow(hwnd) })
		if err == nil {
			return info
		}
		logutil.Logf(r.log, logutil.LevelDebug, "dpi: %s failed for window 0x%x: %v", s.Name, hwnd, err)
	}
	logutil.Logf(r.log, logutil.LevelDebug, "dpi: all strategies failed for window 0x%x, using %v", hwnd, Default())
	return Default()
}

// ResolveCurrentCursor returns the DPI under the OS cursor.
func (r *Resolver) ResolveCurrentCursor() Info {
	if r.cursor == nil {
		return Default()
	}
	x, y, err := r.cursor()
	if err != nil {
		logutil.Logf(r.log, logutil.LevelDebug, "dpi: cursor position unavailable: %v", err)
		return Default()
	}
	return r.ResolveAtPoint(x, y)
}

// attempt runs fn, converting panics and zero/negative axes into errors.
func attempt(fn func() (Info, error)) (info Info, err error) {
	defer func() {
		if p := recover(); p != nil {
			info, err = Info{}, fmt.Errorf("panic: %v", p)
		}
	}()
	info, err = fn()
	if err != nil {
		return Info{}, err
	}
	if !info.Valid() {
		return Info{}, fmt.Errorf("invalid dpi %gx%g", info.X, info.Y)
	}
	return info, nil
}
