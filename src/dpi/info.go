package dpi

import "fmt"

// BaselineDPI is the logical DPI at which one DIP equals one physical pixel.
const BaselineDPI = 96.0

// Info is a resolved horizontal/vertical DPI pair. The zero value is not
// meaningful; use Default or NewInfo.
type Info struct {
	X float64
	Y float64
}

// Default returns the 96/96 fallback (scale 1.0).
func Default() Info { return Info{X: BaselineDPI, Y: BaselineDPI} }

// NewInfo returns an Info for the given axes. Non-positive axes are replaced
// by the baseline so scale factors never reach zero.
func NewInfo(x, y float64) Info {
	if !(x > 0) {
		x = BaselineDPI
	}
	if !(y > 0) {
		y = BaselineDPI
	}
	return Info{X: x, Y: y}
}

// FromScale builds an Info from framework scale factors (1.0 == 96 DPI).
func FromScale(sx, sy float64) Info {
	return NewInfo(sx*BaselineDPI, sy*BaselineDPI)
}

// ScaleX is the number of physical pixels per DIP horizontally.
func (i Info) ScaleX() float64 {
	if !(i.X > 0) {
		return 1
	}
	return i.X / BaselineDPI
}

// ScaleY is the number of physical pixels per DIP vertically.
func (i Info) ScaleY() float64 {
	if !(i.Y > 0) {
		return 1
	}
	return i.Y / BaselineDPI
}

// Valid reports whether both axes are positive.
func (i Info) Valid() bool { return i.X > 0 && i.Y > 0 }

func (i Info) String() string {
	return fmt.Sprintf("%gx%g (%.0f%%)", i.X, i.Y, i.ScaleX()*100)
}
