package encode

import (
	"image"
	"image/color"
	"image/gif"
	"io"
	"time"
)

// grayPalette holds the 256 gray levels, so gray frames convert without dithering.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

func encodeGIF(w io.Writer, frames []*image.Gray, durations []time.Duration) error {
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: 0,
	}
	for i, f := range frames {
		anim.Image[i] = paletted(f)
		anim.Delay[i] = gifDelay(durations[i])
		anim.Disposal[i] = gif.DisposalNone
	}
	return gif.EncodeAll(w, anim)
}

// paletted copies a gray frame into a paletted image indexed by gray level.
func paletted(src *image.Gray) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), grayPalette)
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return dst
}

// gifDelay converts a duration to GIF hundredths of a second, at least one.
func gifDelay(d time.Duration) int {
	cs := int((d + 5*time.Millisecond) / (10 * time.Millisecond))
	return max(cs, 1)
}
