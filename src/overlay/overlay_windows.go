//go:build windows

package overlay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/dpi"
	"screen-pin/src/logutil"
	"screen-pin/src/screenshot"
	"screen-pin/src/selection"
)

const (
	keyPollTimerID    = 1
	keyPollIntervalMs = 25
	hintText          = "Drag to select   ESC or right-click cancels"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	gdi32                        = windows.NewLazySystemDLL("gdi32.dll")
	procAllowSetForegroundWindow = user32.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")
	procCreatePen                = gdi32.NewProc("CreatePen")
	procRectangle                = gdi32.NewProc("Rectangle")

	wndProc = sync.OnceValue(func() uintptr { return syscall.NewCallback(overlayWndProc) })

	// active is the overlay currently pumping messages; only the overlay
	// thread touches it.
	active *overlayWindow
)

type windowsSelector struct {
	opts Options
	mu   sync.Mutex
}

func newPlatformSelector(opts Options) Selector { return &windowsSelector{opts: opts} }

type overlayWindow struct {
	opts   Options
	ctx    context.Context
	hwnd   win.HWND
	screen desktop.VirtualScreenInfo
	ui     dpi.Info
	ctrl   *selection.Controller
	cursor win.HCURSOR

	// bg is the frozen desktop as top-down BGRA rows.
	bg         []byte
	bgW, bgH   int
	escWasDown bool
}

func (s *windowsSelector) Select(ctx context.Context) (selection.Selection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	log := s.opts.Log
	screen, err := s.opts.Desktop.VirtualScreen()
	if err != nil {
		return selection.Selection{}, false, fmt.Errorf("virtual screen: %w", err)
	}
	logutil.Logf(log, logutil.LevelDebug, "overlay: virtual screen %v", screen)

	ow := &overlayWindow{opts: s.opts, ctx: ctx, screen: screen, ui: dpi.Default()}
	if s.opts.Snapshot != nil {
		res := s.opts.Snapshot.CaptureFullScreen(ctx, nil)
		if res.Cancelled() {
			return selection.Selection{}, true, nil
		}
		if !res.Success {
			return selection.Selection{}, false, fmt.Errorf("failed to capture screen: %w", res.Err())
		}
		ow.setBackground(res.Image)
	}

	ow.cursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))

	className := syscall.StringToUTF16Ptr(fmt.Sprintf("ScreenPinOverlay_%d", time.Now().UnixNano()))
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   wndProc(),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       ow.cursor,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wc) == 0 {
		return selection.Selection{}, false, errors.New("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	active = ow
	defer func() { active = nil }()

	ow.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr("Select Region"),
		win.WS_POPUP|win.WS_VISIBLE,
		int32(screen.Left), int32(screen.Top), int32(screen.Width), int32(screen.Height),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if ow.hwnd == 0 {
		return selection.Selection{}, false, errors.New("failed to create overlay window")
	}

	ow.ui = s.opts.Resolver.ResolveForWindow(uintptr(ow.hwnd))
	ow.ctrl = selection.NewController(selection.Options{
		Desktop:   s.opts.Desktop,
		MinSpan:   s.opts.MinSpan,
		UIToPixel: ow.uiToScreen,
		Log:       log,
	})
	logutil.Logf(log, logutil.LevelDebug, "overlay: window %v at %v, ui dpi %v", ow.hwnd, screen, ow.ui)

	win.ShowWindow(ow.hwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(ow.hwnd)
	win.BringWindowToTop(ow.hwnd)
	win.SetFocus(ow.hwnd)
	win.UpdateWindow(ow.hwnd)
	if win.SetTimer(ow.hwnd, keyPollTimerID, keyPollIntervalMs, 0) == 0 {
		logutil.Logf(log, logutil.LevelWarn, "overlay: failed to start keyboard poll timer")
	}

	var msg win.MSG
	for !ow.ctrl.State().Terminal() {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			ow.ctrl.Handle(selection.Event{Kind: selection.CancelGesture})
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	win.KillTimer(ow.hwnd, keyPollTimerID)
	win.DestroyWindow(ow.hwnd)

	if sel, ok := ow.ctrl.Result(); ok {
		logutil.Logf(log, logutil.LevelInfo, "overlay: selected %v (screen %v)", sel.Bitmap, sel.Screen)
		return sel, false, nil
	}
	return selection.Selection{}, true, nil
}

func (ow *overlayWindow) setBackground(img *screenshot.Image) {
	w, h := img.Width(), img.Height()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			i := (y*w + x) * 4
			pix[i+0], pix[i+1], pix[i+2], pix[i+3] = c.B, c.G, c.R, 0xFF
		}
	}
	ow.bg, ow.bgW, ow.bgH = pix, w, h
}

// clientToUI maps an overlay client pixel to UI space.
func (ow *overlayWindow) clientToUI(lParam uintptr) coords.PointF {
	x := int(int16(win.LOWORD(uint32(lParam))))
	y := int(int16(win.HIWORD(uint32(lParam))))
	return coords.ScreenPixelToDip(x, y, ow.ui)
}

func (ow *overlayWindow) uiToScreen(p coords.PointF) coords.Point {
	px := coords.DipToScreenPixel(p.X, p.Y, ow.ui)
	return coords.Point{X: px.X + ow.screen.Left, Y: px.Y + ow.screen.Top}
}

func (ow *overlayWindow) handle(kind selection.EventKind, lParam uintptr) {
	ow.ctrl.Handle(selection.Event{Kind: kind, Pos: ow.clientToUI(lParam)})
	win.InvalidateRect(ow.hwnd, nil, false)
	win.UpdateWindow(ow.hwnd)
}

func (ow *overlayWindow) cancel(reason string) {
	logutil.Logf(ow.opts.Log, logutil.LevelDebug, "overlay: %s", reason)
	ow.ctrl.Handle(selection.Event{Kind: selection.CancelGesture})
}

func (ow *overlayWindow) pollKeys() {
	if ow.ctx.Err() != nil {
		ow.cancel("context done")
		return
	}
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	down := uint16(state)&0x8000 != 0
	if down && !ow.escWasDown {
		ow.cancel("escape polled")
	}
	ow.escWasDown = down
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	ow := active
	if ow == nil || ow.ctrl == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		ow.handle(selection.PointerDown, lParam)
		return 0

	case win.WM_MOUSEMOVE:
		if ow.ctrl.State() == selection.Dragging {
			ow.handle(selection.PointerMove, lParam)
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		ow.handle(selection.PointerUp, lParam)
		return 0

	case win.WM_RBUTTONDOWN:
		win.ReleaseCapture()
		ow.cancel("right click")
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			ow.escWasDown = true
			ow.cancel("escape")
		}
		return 0

	case win.WM_KEYUP:
		if wParam == win.VK_ESCAPE {
			ow.escWasDown = false
		}
		return 0

	case win.WM_TIMER:
		if wParam == keyPollTimerID {
			ow.pollKeys()
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		ow.paint(hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if ow.cursor != 0 {
			win.SetCursor(ow.cursor)
		}
		return 1

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		// No PostQuitMessage: a stray WM_QUIT would end the next overlay's loop.
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (ow *overlayWindow) paint(hdc win.HDC) {
	ow.drawBackground(hdc)

	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(hintText), int32(len(hintText)))

	live, ok := ow.ctrl.LiveRect()
	if !ok {
		return
	}
	r := coords.DipRectToScreenPixel(live, ow.ui)
	pen, _, _ := procCreatePen.Call(0, 2, 0x0000FF)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))
	procRectangle.Call(uintptr(hdc), uintptr(r.X), uintptr(r.Y), uintptr(r.Right()), uintptr(r.Bottom()))
	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}

func (ow *overlayWindow) drawBackground(hdc win.HDC) {
	if len(ow.bg) == 0 {
		return
	}
	memDC := win.CreateCompatibleDC(hdc)
	if memDC == 0 {
		return
	}
	defer win.DeleteDC(memDC)

	bi := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(ow.bgW),
			BiHeight:      -int32(ow.bgH),
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var bits unsafe.Pointer
	hbmp := win.CreateDIBSection(memDC, &bi.BmiHeader, win.DIB_RGB_COLORS, &bits, 0, 0)
	if hbmp == 0 || bits == nil {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hbmp))
	old := win.SelectObject(memDC, win.HGDIOBJ(hbmp))
	defer win.SelectObject(memDC, old)

	// 32bpp rows are already DWORD-aligned.
	copy(unsafe.Slice((*byte)(bits), len(ow.bg)), ow.bg)
	win.BitBlt(hdc, 0, 0, int32(ow.bgW), int32(ow.bgH), memDC, 0, 0, win.SRCCOPY)
}
