package image

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotate burns a "i/n" frame counter into the top-left corner of every
// frame. Frames are modified in place.
//
// Text is drawn white with a black outline so it stays readable on both dark
// and bright backgrounds. The label is scaled up on large frames.
func Annotate(frames []*image.Gray) error {
	for i, img := range frames {
		if img == nil {
			return fmt.Errorf("annotate frame %d: nil image", i+1)
		}
		DrawLabel(img, fmt.Sprintf("%d/%d", i+1, len(frames)))
	}
	return nil
}

// DrawLabel draws text near the top-left corner of img.
func DrawLabel(img *image.Gray, text string) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 || text == "" {
		return
	}

	// Render text at base size as an alpha mask.
	face := basicfont.Face7x13
	baseWidth := font.MeasureString(face, text).Ceil()
	baseHeight := face.Metrics().Height.Ceil()
	mask := image.NewAlpha(image.Rect(0, 0, baseWidth, baseHeight))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: face.Metrics().Ascent},
	}
	drawer.DrawString(text)

	// Aim for a label about 15% of the frame width, never below base size.
	scale := max(1, (width*15/100)/baseWidth)
	scaledWidth, scaledHeight := baseWidth*scale, baseHeight*scale
	scaled := image.NewAlpha(image.Rect(0, 0, scaledWidth, scaledHeight))
	if scale == 1 {
		draw.Draw(scaled, scaled.Bounds(), mask, image.Point{}, draw.Src)
	} else {
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), draw.Src, nil)
	}

	padding := max(1, height/50)
	origin := image.Pt(b.Min.X+padding, b.Min.Y+padding)

	outline := max(1, scale)
	for dy := -outline; dy <= outline; dy++ {
		for dx := -outline; dx <= outline; dx++ {
			if dx*dx+dy*dy > outline*outline {
				continue
			}
			stamp(img, scaled, origin.Add(image.Pt(dx, dy)), color.Gray{Y: 0})
		}
	}
	stamp(img, scaled, origin, color.Gray{Y: 255})
}

// stamp paints c wherever mask is set, clipped to dst.
func stamp(dst *image.Gray, mask *image.Alpha, at image.Point, c color.Gray) {
	mb := mask.Bounds()
	r := mb.Add(at).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, r.Min.Sub(at), draw.Over)
}
