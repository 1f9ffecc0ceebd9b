//go:build windows

package screenshot

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"

	"screen-pin/src/coords"
)

const (
	defaultBackend = BackendGDI

	captureBlt   = 0x40000000
	colorOnColor = 3
)

var (
	gdi32DLL              = windows.NewLazySystemDLL("gdi32.dll")
	procGetDIBits         = gdi32DLL.NewProc("GetDIBits")
	procSetStretchBltMode = gdi32DLL.NewProc("SetStretchBltMode")
)

// GDIBackend drives GDI directly: screen DC, compatible memory DC and
// bitmap, BitBlt, then GetDIBits into a Go-owned slice. Every handle is
// released by the frame that acquired it.
type GDIBackend struct {
	handles HandleCounter
}

// NewGDIBackend returns the raw GDI backend.
func NewGDIBackend() (*GDIBackend, error) { return &GDIBackend{}, nil }

func (g *GDIBackend) Name() string { return BackendGDI }

func (g *GDIBackend) OpenHandles() int64 { return g.handles.Open() }

func (g *GDIBackend) CaptureToBuffer(ctx context.Context, region coords.Rect) (*RawBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h := region.Width, region.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid rect %v", region)
	}

	// DCs belong to the thread that created them.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	screenDC := win.GetDC(0)
	if screenDC == 0 {
		return nil, fmt.Errorf("capture: GetDC failed winerr=%d", win.GetLastError())
	}
	g.handles.acquire()
	defer func() {
		win.ReleaseDC(0, screenDC)
		g.handles.release()
	}()

	memDC := win.CreateCompatibleDC(screenDC)
	if memDC == 0 {
		return nil, fmt.Errorf("capture: CreateCompatibleDC failed winerr=%d", win.GetLastError())
	}
	g.handles.acquire()
	defer func() {
		win.DeleteDC(memDC)
		g.handles.release()
	}()

	bmp := win.CreateCompatibleBitmap(screenDC, int32(w), int32(h))
	if bmp == 0 {
		return nil, fmt.Errorf("capture: CreateCompatibleBitmap %dx%d failed winerr=%d", w, h, win.GetLastError())
	}
	g.handles.acquire()
	defer func() {
		win.DeleteObject(win.HGDIOBJ(bmp))
		g.handles.release()
	}()

	prev := win.SelectObject(memDC, win.HGDIOBJ(bmp))
	if prev == 0 || uintptr(prev) == ^uintptr(0) {
		return nil, fmt.Errorf("capture: SelectObject failed winerr=%d", win.GetLastError())
	}
	selected := true
	defer func() {
		if selected {
			win.SelectObject(memDC, prev)
		}
	}()

	procSetStretchBltMode.Call(uintptr(memDC), colorOnColor)
	if !win.BitBlt(memDC, 0, 0, int32(w), int32(h), screenDC, int32(region.X), int32(region.Y), win.SRCCOPY|captureBlt) {
		return nil, fmt.Errorf("capture: BitBlt failed x=%d y=%d w=%d h=%d winerr=%d", region.X, region.Y, w, h, win.GetLastError())
	}

	// GetDIBits requires the bitmap to be deselected.
	win.SelectObject(memDC, prev)
	selected = false

	bi := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(w),
			BiHeight:      -int32(h), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	stride := w * 4
	pix := make([]byte, stride*h)
	lines, _, _ := procGetDIBits.Call(
		uintptr(screenDC),
		uintptr(bmp),
		0,
		uintptr(h),
		uintptr(unsafe.Pointer(&pix[0])),
		uintptr(unsafe.Pointer(&bi)),
		uintptr(win.DIB_RGB_COLORS),
	)
	if int(lines) != h {
		return nil, fmt.Errorf("capture: GetDIBits copied %d of %d lines winerr=%d", int(lines), h, win.GetLastError())
	}

	// The managed slice outlives the GDI objects; it is counted until Release.
	g.handles.acquire()
	buf := NewRawBuffer(w, h, stride, OrderBGRA, pix, g.handles.release)
	buf.OpaqueAlpha = true
	return buf, nil
}

func (g *GDIBackend) ConvertToImage(ctx context.Context, buf *RawBuffer) (*Image, error) {
	return Convert(ctx, buf)
}
