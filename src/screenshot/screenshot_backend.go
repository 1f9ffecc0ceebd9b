package screenshot

import (
	"context"
	"fmt"

	"github.com/kbinani/screenshot"

	"screen-pin/src/coords"
)

// ScreenshotBackend captures through github.com/kbinani/screenshot, which
// block-copies the screen into an off-screen bitmap sized to the region.
// The copy is 1:1 device pixels; nothing is resampled.
type ScreenshotBackend struct {
	handles HandleCounter
}

// NewScreenshotBackend returns the portable backend.
func NewScreenshotBackend() *ScreenshotBackend { return &ScreenshotBackend{} }

func (b *ScreenshotBackend) Name() string { return BackendScreenshot }

func (b *ScreenshotBackend) OpenHandles() int64 { return b.handles.Open() }

func (b *ScreenshotBackend) CaptureToBuffer(ctx context.Context, region coords.Rect) (*RawBuffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if region.Empty() {
		return nil, fmt.Errorf("screenshot: invalid region %v", region)
	}
	img, err := screenshot.CaptureRect(region.Image())
	if err != nil {
		return nil, fmt.Errorf("screenshot: CaptureRect %v: %w", region, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != region.Width || bounds.Dy() != region.Height {
		return nil, fmt.Errorf("screenshot: CaptureRect returned %dx%d for %v", bounds.Dx(), bounds.Dy(), region)
	}
	b.handles.acquire()
	pix := img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y):]
	return NewRawBuffer(region.Width, region.Height, img.Stride, OrderRGBA, pix, b.handles.release), nil
}

func (b *ScreenshotBackend) ConvertToImage(ctx context.Context, buf *RawBuffer) (*Image, error) {
	return Convert(ctx, buf)
}
