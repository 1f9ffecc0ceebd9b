//go:build windows

package dpi

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const (
	mdtEffectiveDPI         = 0
	monitorDefaultToNearest = 2
)

var (
	shcoreDLL            = windows.NewLazySystemDLL("shcore.dll")
	user32DLL            = windows.NewLazySystemDLL("user32.dll")
	procGetDpiForMonitor = shcoreDLL.NewProc("GetDpiForMonitor")
	procGetDpiForWindow  = user32DLL.NewProc("GetDpiForWindow")
	procGetDpiForSystem  = user32DLL.NewProc("GetDpiForSystem")
	procMonitorFromPoint = user32DLL.NewProc("MonitorFromPoint")
	procMonitorFromWin   = user32DLL.NewProc("MonitorFromWindow")
	procWindowFromPoint  = user32DLL.NewProc("WindowFromPoint")
)

// SystemStrategies returns the OS fallback chain: per-monitor effective DPI,
// per-window DPI (point lookups only when preferWindow is set), device caps
// of the display context, then the system DPI the UI framework scales by.
func SystemStrategies(preferWindow bool) []Strategy {
	window := Strategy{Name: "window", ForWindow: dpiForWindow}
	if preferWindow {
		window.AtPoint = func(x, y int) (Info, error) {
			hwnd, err := windowFromPoint(x, y)
			if err != nil {
				return Info{}, err
			}
			return dpiForWindow(hwnd)
		}
	}
	return []Strategy{
		{Name: "monitor", AtPoint: monitorDpiAtPoint, ForWindow: monitorDpiForWindow},
		window,
		{Name: "devicecaps", AtPoint: deviceCapsAtPoint, ForWindow: deviceCapsForWindow},
		{Name: "system", AtPoint: func(int, int) (Info, error) { return systemDpi() }, ForWindow: func(uintptr) (Info, error) { return systemDpi() }},
	}
}

// pointArgs packs a POINT passed by value. On 64-bit targets the struct
// travels in one register; on 386 it is two stack slots.
func pointArgs(x, y int) []uintptr {
	if unsafe.Sizeof(uintptr(0)) == 8 {
		return []uintptr{uintptr(uint32(int32(x))) | uintptr(uint32(int32(y)))<<32}
	}
	return []uintptr{uintptr(int32(x)), uintptr(int32(y))}
}

func monitorFromPoint(x, y int) (uintptr, error) {
	if err := procMonitorFromPoint.Find(); err != nil {
		return 0, err
	}
	args := append(pointArgs(x, y), monitorDefaultToNearest)
	h, _, _ := procMonitorFromPoint.Call(args...)
	if h == 0 {
		return 0, fmt.Errorf("MonitorFromPoint(%d,%d) returned no monitor", x, y)
	}
	return h, nil
}

func windowFromPoint(x, y int) (uintptr, error) {
	if err := procWindowFromPoint.Find(); err != nil {
		return 0, err
	}
	h, _, _ := procWindowFromPoint.Call(pointArgs(x, y)...)
	if h == 0 {
		return 0, fmt.Errorf("WindowFromPoint(%d,%d) returned no window", x, y)
	}
	return h, nil
}

func dpiForMonitor(hmon uintptr) (Info, error) {
	if err := procGetDpiForMonitor.Find(); err != nil {
		return Info{}, err
	}
	var dx, dy uint32
	hr, _, _ := procGetDpiForMonitor.Call(hmon, mdtEffectiveDPI, uintptr(unsafe.Pointer(&dx)), uintptr(unsafe.Pointer(&dy)))
	if int32(hr) < 0 {
		return Info{}, fmt.Errorf("GetDpiForMonitor failed hr=0x%08x", uint32(hr))
	}
	if dx == 0 || dy == 0 {
		return Info{}, fmt.Errorf("GetDpiForMonitor returned %dx%d", dx, dy)
	}
	return Info{X: float64(dx), Y: float64(dy)}, nil
}

func monitorDpiAtPoint(x, y int) (Info, error) {
	hmon, err := monitorFromPoint(x, y)
	if err != nil {
		return Info{}, err
	}
	return dpiForMonitor(hmon)
}

func monitorDpiForWindow(hwnd uintptr) (Info, error) {
	if err := procMonitorFromWin.Find(); err != nil {
		return Info{}, err
	}
	hmon, _, _ := procMonitorFromWin.Call(hwnd, monitorDefaultToNearest)
	if hmon == 0 {
		return Info{}, fmt.Errorf("MonitorFromWindow(0x%x) returned no monitor", hwnd)
	}
	return dpiForMonitor(hmon)
}

func dpiForWindow(hwnd uintptr) (Info, error) {
	if err := procGetDpiForWindow.Find(); err != nil {
		return Info{}, err
	}
	v, _, _ := procGetDpiForWindow.Call(hwnd)
	if v == 0 {
		return Info{}, fmt.Errorf("GetDpiForWindow(0x%x) returned 0", hwnd)
	}
	return Info{X: float64(v), Y: float64(v)}, nil
}

func deviceCaps(hwnd win.HWND) (Info, error) {
	hdc := win.GetDC(hwnd)
	if hdc == 0 {
		return Info{}, fmt.Errorf("GetDC(0x%x) failed winerr=%d", hwnd, win.GetLastError())
	}
	defer win.ReleaseDC(hwnd, hdc)
	dx := win.GetDeviceCaps(hdc, win.LOGPIXELSX)
	dy := win.GetDeviceCaps(hdc, win.LOGPIXELSY)
	if dx <= 0 || dy <= 0 {
		return Info{}, fmt.Errorf("GetDeviceCaps returned %dx%d", dx, dy)
	}
	return Info{X: float64(dx), Y: float64(dy)}, nil
}

func deviceCapsAtPoint(x, y int) (Info, error) {
	hwnd, err := windowFromPoint(x, y)
	if err != nil {
		// Desktop DC.
		hwnd = 0
	}
	return deviceCaps(win.HWND(hwnd))
}

func deviceCapsForWindow(hwnd uintptr) (Info, error) {
	return deviceCaps(win.HWND(hwnd))
}

func systemDpi() (Info, error) {
	if err := procGetDpiForSystem.Find(); err != nil {
		return Info{}, err
	}
	v, _, _ := procGetDpiForSystem.Call()
	if v == 0 {
		return Info{}, fmt.Errorf("GetDpiForSystem returned 0")
	}
	return Info{X: float64(v), Y: float64(v)}, nil
}
