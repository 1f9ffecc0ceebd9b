package screenshot

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"

	"screen-pin/src/coords"
)

// MemoryBackend serves captures from an in-memory desktop image. Origin is
// the screen-absolute position of the image's top-left pixel. Hooks allow
// tests to inject failures or act between the two capture steps.
type MemoryBackend struct {
	Desktop image.Image
	Origin  coords.Point

	// CaptureErr and ConvertErr, when set, fail the matching step after its
	// simulated handles are acquired.
	CaptureErr error
	ConvertErr error
	// AfterCapture runs once the buffer is filled, before it is returned.
	AfterCapture func()

	handles  HandleCounter
	captures atomic.Int64
}

// NewMemoryBackend returns a backend whose desktop is a solid w x h image
// at origin.
func NewMemoryBackend(origin coords.Point, w, h int, fill color.Color) *MemoryBackend {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	return &MemoryBackend{Desktop: img, Origin: origin}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) OpenHandles() int64 { return m.handles.Open() }

// Captures returns how many times CaptureToBuffer reached the copy step.
func (m *MemoryBackend) Captures() int { return int(m.captures.Load()) }

func (m *MemoryBackend) CaptureToBuffer(ctx context.Context, region coords.Rect) (*RawBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if region.Empty() {
		return nil, fmt.Errorf("screenshot: invalid region %v", region)
	}
	// Simulated screen DC held for the duration of the copy.
	m.handles.acquire()
	defer m.handles.release()
	m.captures.Add(1)

	if m.CaptureErr != nil {
		return nil, m.CaptureErr
	}

	b := m.Desktop.Bounds()
	stride := region.Width * 4
	pix := make([]byte, stride*region.Height)
	for y := 0; y < region.Height; y++ {
		for x := 0; x < region.Width; x++ {
			sx := region.X - m.Origin.X + x + b.Min.X
			sy := region.Y - m.Origin.Y + y + b.Min.Y
			var c color.NRGBA
			if (image.Point{X: sx, Y: sy}).In(b) {
				c = color.NRGBAModel.Convert(m.Desktop.At(sx, sy)).(color.NRGBA)
			}
			i := y*stride + x*4
			pix[i+0], pix[i+1], pix[i+2], pix[i+3] = c.B, c.G, c.R, c.A
		}
	}

	m.handles.acquire()
	buf := NewRawBuffer(region.Width, region.Height, stride, OrderBGRA, pix, m.handles.release)
	if m.AfterCapture != nil {
		m.AfterCapture()
	}
	return buf, nil
}

func (m *MemoryBackend) ConvertToImage(ctx context.Context, buf *RawBuffer) (*Image, error) {
	if m.ConvertErr != nil {
		return nil, m.ConvertErr
	}
	return Convert(ctx, buf)
}
