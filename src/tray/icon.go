package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 32

var iconOnce = sync.OnceValue(buildIcon)

// Icon returns the tray icon as an ICO file with a single PNG entry.
func Icon() []byte { return iconOnce() }

// iconImage draws a dashed selection frame with a pin head in the corner.
func iconImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	frame := color.NRGBA{R: 0x00, G: 0x78, B: 0xD4, A: 0xFF}
	pin := color.NRGBA{R: 0xD4, G: 0x2A, B: 0x2A, A: 0xFF}

	for i := 4; i < 24; i++ {
		if (i/3)%2 == 1 {
			continue
		}
		for _, w := range []int{4, 5} {
			img.SetNRGBA(i, w, frame)
			img.SetNRGBA(i, w+15, frame)
			img.SetNRGBA(w, i, frame)
			img.SetNRGBA(w+19, i, frame)
		}
	}
	cx, cy, r := 24, 24, 6
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				img.SetNRGBA(x, y, pin)
			}
		}
	}
	return img
}

func buildIcon() []byte {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, iconImage()); err != nil {
		return nil
	}
	pngData := pngBuf.Bytes()

	var out bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one entry.
	_ = binary.Write(&out, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	out.Write([]byte{iconSize, iconSize, 0, 0})
	_ = binary.Write(&out, binary.LittleEndian, [2]uint16{1, 32})
	_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(pngData)), 6 + 16})
	out.Write(pngData)
	return out.Bytes()
}
