// Package desktop queries the virtual desktop (the union of all active
// monitors) and the OS cursor position. Nothing here is cached: monitor
// topology can change between two captures.
package desktop

import (
	"errors"
	"fmt"

	"github.com/kbinani/screenshot"

	"screen-pin/src/coords"
	"screen-pin/src/logutil"
)

// ErrNoDisplays is returned when no active monitor can be found.
var ErrNoDisplays = errors.New("desktop: no active displays found")

// VirtualScreenInfo is the physical-pixel bounding box of every monitor.
// Left and Top are negative when a monitor sits left of or above the primary.
type VirtualScreenInfo struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Bounds is the screen-absolute rectangle.
func (v VirtualScreenInfo) Bounds() coords.Rect {
	return coords.Rect{X: v.Left, Y: v.Top, Width: v.Width, Height: v.Height}
}

// BitmapBounds is the rectangle of a full-desktop bitmap: same extent as
// Bounds with the origin moved to (0,0).
func (v VirtualScreenInfo) BitmapBounds() coords.Rect {
	return coords.Rect{Width: v.Width, Height: v.Height}
}

// ToBitmap converts a screen-absolute rectangle to bitmap-relative.
func (v VirtualScreenInfo) ToBitmap(r coords.Rect) coords.Rect { return r.Offset(-v.Left, -v.Top) }

// ToScreen converts a bitmap-relative rectangle back to screen-absolute.
func (v VirtualScreenInfo) ToScreen(r coords.Rect) coords.Rect { return r.Offset(v.Left, v.Top) }

func (v VirtualScreenInfo) String() string {
	return fmt.Sprintf("x=%d y=%d w=%d h=%d", v.Left, v.Top, v.Width, v.Height)
}

// Provider answers desktop geometry queries.
type Provider interface {
	VirtualScreen() (VirtualScreenInfo, error)
	CursorPos() (coords.Point, error)
}

// System is the Provider backed by the running OS. Log receives fallback
// diagnostics; nil drops them.
type System struct {
	Log logutil.Sink
}

func (s System) VirtualScreen() (VirtualScreenInfo, error) { return virtualScreen(s.Log) }

func (System) CursorPos() (coords.Point, error) { return cursorPos() }

// Static is a Provider with fixed answers.
type Static struct {
	Screen VirtualScreenInfo
	Cursor coords.Point
	Err    error
}

func (s *Static) VirtualScreen() (VirtualScreenInfo, error) {
	if s.Err != nil {
		return VirtualScreenInfo{}, s.Err
	}
	return s.Screen, nil
}

func (s *Static) CursorPos() (coords.Point, error) {
	if s.Err != nil {
		return coords.Point{}, s.Err
	}
	return s.Cursor, nil
}

// displayUnion computes the virtual desktop from the per-display bounds
// reported by the screenshot library.
func displayUnion() (VirtualScreenInfo, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return VirtualScreenInfo{}, ErrNoDisplays
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	r := coords.FromImage(union)
	if r.Empty() {
		return VirtualScreenInfo{}, fmt.Errorf("desktop: empty display union %v", union)
	}
	return VirtualScreenInfo{Left: r.X, Top: r.Y, Width: r.Width, Height: r.Height}, nil
}

// fromMetrics accepts the OS virtual-screen metrics when they describe a
// positive extent and otherwise falls back to the display union.
func fromMetrics(v VirtualScreenInfo, log logutil.Sink, union func() (VirtualScreenInfo, error)) (VirtualScreenInfo, error) {
	if v.Width > 0 && v.Height > 0 {
		return v, nil
	}
	logutil.Logf(log, logutil.LevelWarn, "desktop: virtual screen metrics unusable (%v), falling back to display union", v)
	return union()
}
