// Package coords converts between device-independent (DIP) coordinates,
// physical screen pixels and bitmap-relative pixel rectangles.
//
// All functions are pure. Rounding is math.Round (half away from zero) in
// both directions, so a pixel -> DIP -> pixel round trip at the same DPI
// lands within one pixel of where it started.
package coords

import (
	"fmt"
	"image"
	"math"

	"screen-pin/src/dpi"
)

// Point is an integer pixel position.
type Point struct {
	X int
	Y int
}

// PointF is a DIP-space position.
type PointF struct {
	X float64
	Y float64
}

// Rect is an origin plus extent. Width and height are not normalized; a
// rect with non-positive extent is empty.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectF is a DIP-space rectangle.
type RectF struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Right is the exclusive far edge on the x axis.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom is the exclusive far edge on the y axis.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Offset returns r translated by (dx, dy).
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Image returns r as an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// FromImage converts an image.Rectangle to a Rect.
func FromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Intersects reports whether r and b share at least one pixel.
func (r Rect) Intersects(b Rect) bool {
	if r.Empty() || b.Empty() {
		return false
	}
	return r.X < b.Right() && b.X < r.Right() && r.Y < b.Bottom() && b.Y < r.Bottom()
}

// Intersect returns the overlap of r and b, or the zero Rect.
func (r Rect) Intersect(b Rect) Rect {
	if !r.Intersects(b) {
		return Rect{}
	}
	x0, y0 := max(r.X, b.X), max(r.Y, b.Y)
	x1, y1 := min(r.Right(), b.Right()), min(r.Bottom(), b.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// RectFromPoints spans two corners in any order.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  absInt(b.X - a.X),
		Height: absInt(b.Y - a.Y),
	}
}

// RectFFromPoints spans two DIP corners in any order.
func RectFFromPoints(a, b PointF) RectF {
	return RectF{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// ScreenPixelToDip converts a physical pixel position to DIPs.
func ScreenPixelToDip(px, py int, d dpi.Info) PointF {
	return PointF{X: float64(px) / d.ScaleX(), Y: float64(py) / d.ScaleY()}
}

// DipToScreenPixel converts a DIP position to physical pixels.
func DipToScreenPixel(dx, dy float64, d dpi.Info) Point {
	return Point{X: round(dx * d.ScaleX()), Y: round(dy * d.ScaleY())}
}

// DipRectToScreenPixel scales each component of a DIP rectangle by d.
func DipRectToScreenPixel(r RectF, d dpi.Info) Rect {
	return Rect{
		X:      round(r.X * d.ScaleX()),
		Y:      round(r.Y * d.ScaleY()),
		Width:  round(r.Width * d.ScaleX()),
		Height: round(r.Height * d.ScaleY()),
	}
}

// ScaleRectangle scales x, y, width and height independently. Width and
// height are not derived from scaled corners.
func ScaleRectangle(r Rect, sx, sy float64) Rect {
	return Rect{
		X:      round(float64(r.X) * sx),
		Y:      round(float64(r.Y) * sy),
		Width:  round(float64(r.Width) * sx),
		Height: round(float64(r.Height) * sy),
	}
}

// IsValidRegion reports whether r can be captured inside bounds: positive
// extent, overlapping bounds, and no larger than bounds on either axis.
func IsValidRegion(r, bounds Rect) bool {
	if r.Width <= 0 || r.Height <= 0 {
		return false
	}
	if !r.Intersects(bounds) {
		return false
	}
	return r.Width <= bounds.Width && r.Height <= bounds.Height
}

// ClampRectangle returns the part of r that lies inside bounds. Extents are
// raised to at least one pixel first; a rect that misses bounds entirely
// collapses to a 1x1 rect at the nearest pixel on the bounds edge. The
// result always satisfies IsValidRegion against a non-empty bounds.
func ClampRectangle(r, bounds Rect) Rect {
	if bounds.Empty() {
		return Rect{}
	}
	r.Width = max(r.Width, 1)
	r.Height = max(r.Height, 1)
	if in := r.Intersect(bounds); !in.Empty() {
		return in
	}
	return Rect{
		X:      clampInt(r.X, bounds.X, bounds.Right()-1),
		Y:      clampInt(r.Y, bounds.Y, bounds.Bottom()-1),
		Width:  1,
		Height: 1,
	}
}

func round(v float64) int { return int(math.Round(v)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
