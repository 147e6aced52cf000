package image

import (
	"image"
	"testing"
)

func grayFill(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func countLevel(img *image.Gray, v uint8) int {
	n := 0
	for _, p := range img.Pix {
		if p == v {
			n++
		}
	}
	return n
}

func TestAnnotate_DrawsLabel(t *testing.T) {
	frames := []*image.Gray{grayFill(128, 128, 128), grayFill(128, 128, 128)}

	if err := Annotate(frames); err != nil {
		t.Fatalf("Annotate: %v", err)
	}

	for i, img := range frames {
		if countLevel(img, 255) == 0 {
			t.Errorf("frame %d: no white text pixels", i)
		}
		if countLevel(img, 0) == 0 {
			t.Errorf("frame %d: no outline pixels", i)
		}
		// Bottom-right corner untouched.
		if img.GrayAt(127, 127).Y != 128 {
			t.Errorf("frame %d: label leaked to bottom-right corner", i)
		}
	}
}

func TestAnnotate_TinyFrame(t *testing.T) {
	frames := []*image.Gray{grayFill(4, 4, 10)}
	if err := Annotate(frames); err != nil {
		t.Fatalf("Annotate on tiny frame: %v", err)
	}
}

func TestAnnotate_NilFrame(t *testing.T) {
	if err := Annotate([]*image.Gray{nil}); err == nil {
		t.Error("Annotate(nil frame) should fail")
	}
}

func TestDrawLabel_DiffersPerFrame(t *testing.T) {
	a := grayFill(64, 64, 100)
	b := grayFill(64, 64, 100)
	DrawLabel(a, "1/9")
	DrawLabel(b, "8/9")

	same := true
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different labels produced identical frames")
	}
}
