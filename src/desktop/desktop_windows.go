//go:build windows

package desktop

import (
	"fmt"

	"github.com/lxn/win"

	"screen-pin/src/coords"
	"screen-pin/src/logutil"
)

func virtualScreen(log logutil.Sink) (VirtualScreenInfo, error) {
	v := VirtualScreenInfo{
		Left:   int(win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)),
		Top:    int(win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)),
		Width:  int(win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)),
		Height: int(win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)),
	}
	return fromMetrics(v, log, displayUnion)
}

func cursorPos() (coords.Point, error) {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return coords.Point{}, fmt.Errorf("desktop: GetCursorPos failed winerr=%d", win.GetLastError())
	}
	return coords.Point{X: int(pt.X), Y: int(pt.Y)}, nil
}
