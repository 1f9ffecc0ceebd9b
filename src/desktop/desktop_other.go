//go:build !windows

package desktop

import (
	"errors"

	"screen-pin/src/coords"
	"screen-pin/src/logutil"
)

func virtualScreen(logutil.Sink) (VirtualScreenInfo, error) { return displayUnion() }

func cursorPos() (coords.Point, error) {
	return coords.Point{}, errors.New("desktop: cursor position not implemented for this platform")
}
