package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"screen-pin/src/coords"
)

// DeclaredDPI is the resolution stamped on every converted image. It is
// metadata only; on-screen scaling belongs to whoever displays the image.
const DeclaredDPI = 96.0

// Image is a decoded, frozen capture. It exposes no mutable pixel access so
// it can be handed to several goroutines without locking.
type Image struct {
	px   *image.NRGBA
	dpiX float64
	dpiY float64
}

var _ image.Image = (*Image)(nil)

func freeze(px *image.NRGBA) *Image {
	return &Image{px: px, dpiX: DeclaredDPI, dpiY: DeclaredDPI}
}

// FreezeImage copies src into a new frozen Image with a (0,0) origin.
func FreezeImage(src image.Image) *Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return freeze(dst)
}

func (i *Image) ColorModel() color.Model { return color.NRGBAModel }

func (i *Image) Bounds() image.Rectangle { return i.px.Bounds() }

func (i *Image) At(x, y int) color.Color { return i.px.At(x, y) }

// NRGBAAt returns the straight-alpha pixel at (x, y).
func (i *Image) NRGBAAt(x, y int) color.NRGBA { return i.px.NRGBAAt(x, y) }

// Width is the pixel width.
func (i *Image) Width() int { return i.px.Bounds().Dx() }

// Height is the pixel height.
func (i *Image) Height() int { return i.px.Bounds().Dy() }

// DPI returns the declared resolution.
func (i *Image) DPI() (x, y float64) { return i.dpiX, i.dpiY }

// SubImage returns a frozen view of r (relative to the image origin) that
// shares pixels with i. r must lie inside the image.
func (i *Image) SubImage(r coords.Rect) (*Image, error) {
	full := coords.FromImage(i.px.Bounds())
	if r.Empty() || r.Intersect(full) != r {
		return nil, fmt.Errorf("screenshot: sub-image %v outside %v", r, full)
	}
	sub := i.px.SubImage(r.Image()).(*image.NRGBA)
	// Re-base to (0,0) without copying.
	view := &image.NRGBA{Pix: sub.Pix, Stride: sub.Stride, Rect: image.Rect(0, 0, r.Width, r.Height)}
	return &Image{px: view, dpiX: i.dpiX, dpiY: i.dpiY}, nil
}

// Clone returns a mutable copy for consumers that need to draw on it.
func (i *Image) Clone() *image.NRGBA {
	dst := image.NewNRGBA(i.px.Bounds())
	draw.Draw(dst, dst.Bounds(), i.px, i.px.Bounds().Min, draw.Src)
	return dst
}

// PNG encodes the image for clipboard hand-off.
func (i *Image) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, i.px); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
