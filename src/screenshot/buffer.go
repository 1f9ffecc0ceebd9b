package screenshot

import (
	"sync/atomic"
)

// ChannelOrder is the byte order of one 32-bit pixel in a RawBuffer.
type ChannelOrder int

const (
	// OrderBGRA is the GDI DIB layout: blue, green, red, alpha.
	OrderBGRA ChannelOrder = iota
	// OrderRGBA is the image.RGBA layout.
	OrderRGBA
)

func (o ChannelOrder) String() string {
	if o == OrderRGBA {
		return "RGBA"
	}
	return "BGRA"
}

// RawBuffer is captured pixel data owned by a single capture call. It must be
// released exactly once, after which Pix must not be touched.
type RawBuffer struct {
	Width  int
	Height int
	Stride int
	Order  ChannelOrder
	// OpaqueAlpha marks the alpha byte as undefined (GDI screen copies); the
	// converter writes 0xFF instead of reading it.
	OpaqueAlpha bool

	pix       []byte
	released  atomic.Bool
	onRelease func()
}

// NewRawBuffer wraps pix. onRelease, when set, runs once on Release.
func NewRawBuffer(w, h, stride int, order ChannelOrder, pix []byte, onRelease func()) *RawBuffer {
	return &RawBuffer{Width: w, Height: h, Stride: stride, Order: order, pix: pix, onRelease: onRelease}
}

// Pix returns the pixel bytes. Callers treat the slice as read-only.
func (b *RawBuffer) Pix() []byte {
	if b == nil || b.released.Load() {
		return nil
	}
	return b.pix
}

// Release drops the pixel data and returns any backing handle. Safe to call
// more than once and on a nil buffer.
func (b *RawBuffer) Release() {
	if b == nil || !b.released.CompareAndSwap(false, true) {
		return
	}
	b.pix = nil
	if b.onRelease != nil {
		b.onRelease()
	}
}

// Released reports whether Release has run.
func (b *RawBuffer) Released() bool { return b == nil || b.released.Load() }

// HandleCounter tracks OS (or simulated) handles a backend currently holds.
type HandleCounter struct {
	n atomic.Int64
}

func (c *HandleCounter) acquire() { c.n.Add(1) }

func (c *HandleCounter) release() { c.n.Add(-1) }

// Open returns the number of handles not yet released.
func (c *HandleCounter) Open() int64 { return c.n.Load() }
