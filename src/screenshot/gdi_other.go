//go:build !windows

package screenshot

import (
	"context"

	"screen-pin/src/coords"
)

const defaultBackend = BackendScreenshot

// GDIBackend is only available on Windows.
type GDIBackend struct{}

// NewGDIBackend reports ErrUnsupported off Windows.
func NewGDIBackend() (*GDIBackend, error) { return nil, ErrUnsupported }

func (g *GDIBackend) Name() string { return BackendGDI }

func (g *GDIBackend) OpenHandles() int64 { return 0 }

func (g *GDIBackend) CaptureToBuffer(context.Context, coords.Rect) (*RawBuffer, error) {
	return nil, ErrUnsupported
}

func (g *GDIBackend) ConvertToImage(context.Context, *RawBuffer) (*Image, error) {
	return nil, ErrUnsupported
}
