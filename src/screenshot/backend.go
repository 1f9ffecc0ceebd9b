// Package screenshot copies physical-pixel regions off the screen into raw
// buffers and converts those buffers into frozen images. Backends are
// interchangeable behind Backend.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"screen-pin/src/coords"
)

// Backend names accepted by New.
const (
	BackendGDI        = "gdi"
	BackendScreenshot = "screenshot"
)

// ErrUnsupported is returned when a backend cannot run on this platform.
var ErrUnsupported = errors.New("screenshot: backend not supported on this platform")

// Backend is one screen-capture implementation. CaptureToBuffer receives a
// screen-absolute physical rectangle. Both methods release every handle
// they acquired before returning, on every path.
type Backend interface {
	Name() string
	CaptureToBuffer(ctx context.Context, region coords.Rect) (*RawBuffer, error)
	ConvertToImage(ctx context.Context, buf *RawBuffer) (*Image, error)
	// OpenHandles reports handles still held; zero between calls.
	OpenHandles() int64
}

// New returns the backend registered under name.
func New(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendGDI:
		g, err := NewGDIBackend()
		if err != nil {
			return nil, err
		}
		return g, nil
	case BackendScreenshot:
		return NewScreenshotBackend(), nil
	default:
		return nil, fmt.Errorf("screenshot: unknown backend %q", name)
	}
}

// DefaultBackend is the preferred backend name for this platform.
func DefaultBackend() string { return defaultBackend }

// Convert builds a straight-alpha NRGBA image at the buffer's dimensions and
// freezes it. The buffer is only read; releasing it stays with the caller.
func Convert(ctx context.Context, buf *RawBuffer) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pix := buf.Pix()
	if pix == nil {
		return nil, errors.New("screenshot: convert on released or empty buffer")
	}
	w, h := buf.Width, buf.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("screenshot: invalid buffer size %dx%d", w, h)
	}
	if buf.Stride < w*4 || len(pix) < (h-1)*buf.Stride+w*4 {
		return nil, fmt.Errorf("screenshot: buffer too short: %d bytes, stride %d for %dx%d", len(pix), buf.Stride, w, h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	ri, bi := 0, 2
	if buf.Order == OrderBGRA {
		ri, bi = 2, 0
	}
	for y := 0; y < h; y++ {
		src := pix[y*buf.Stride : y*buf.Stride+w*4]
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w*4; x += 4 {
			row[x+0] = src[x+ri]
			row[x+1] = src[x+1]
			row[x+2] = src[x+bi]
			if buf.OpaqueAlpha {
				row[x+3] = 0xFF
			} else {
				row[x+3] = src[x+3]
			}
		}
	}
	return freeze(dst), nil
}
