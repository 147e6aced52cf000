package image

import (
	"errors"
	"math"
	"testing"

	"github.com/mrsinham/dicom2gif/internal/dicom"
)

func frame(values ...float64) dicom.Frame {
	return dicom.Frame{Rows: 1, Cols: len(values), Pixels: values}
}

func TestMapValue_MonotonicAndBounded(t *testing.T) {
	windows := [][2]float64{{0, 255}, {-1000, 1000}, {40, 41}, {-600, 900}}

	for _, w := range windows {
		lo, hi := w[0], w[1]
		prev := MapValue(lo-500, lo, hi)
		for v := lo - 500; v <= hi+500; v += 0.5 {
			got := MapValue(v, lo, hi)
			if got < prev {
				t.Fatalf("MapValue not monotonic on [%g,%g]: f(%g)=%d < %d", lo, hi, v, got, prev)
			}
			prev = got
		}
		if MapValue(lo, lo, hi) != 0 || MapValue(hi, lo, hi) != 255 {
			t.Errorf("window [%g,%g] does not span 0..255", lo, hi)
		}
	}
}

func TestMapValue_EmptyInterval(t *testing.T) {
	for _, v := range []float64{-5, 0, 7, 1e6} {
		if got := MapValue(v, 7, 7); got != 128 {
			t.Errorf("MapValue(%g, 7, 7) = %d, want 128", v, got)
		}
	}
}

func TestWindow_Explicit(t *testing.T) {
	frames := []dicom.Frame{frame(-100, 0, 50, 100, 200)}

	out, err := Window(frames, Explicit(50, 100), nil)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	want := []uint8{0, 0, 128, 255, 255}
	for i, w := range want {
		if got := out[0].Pix[i]; got != w {
			t.Errorf("pixel %d = %d, want %d", i, got, w)
		}
	}
}

func TestWindow_FullRangeSharedAcrossFrames(t *testing.T) {
	frames := []dicom.Frame{frame(100, 150), frame(200, 300)}

	out, err := Window(frames, FullRange(), nil)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if out[0].Pix[0] != 0 {
		t.Errorf("series minimum mapped to %d, want 0", out[0].Pix[0])
	}
	if out[1].Pix[1] != 255 {
		t.Errorf("series maximum mapped to %d, want 255", out[1].Pix[1])
	}
	if out[1].Pix[0] != 128 {
		t.Errorf("midpoint mapped to %d, want 128", out[1].Pix[0])
	}
}

func TestWindow_FlatImage(t *testing.T) {
	frames := []dicom.Frame{frame(42, 42, 42), frame(42, 42, 42)}

	out, err := Window(frames, FullRange(), nil)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	for i, img := range out {
		for j, p := range img.Pix {
			if p != 128 {
				t.Errorf("frame %d pixel %d = %d, want 128", i, j, p)
			}
		}
	}
}

func TestWindow_FromMetadata(t *testing.T) {
	frames := []dicom.Frame{frame(0, 40, 80)}

	out, err := Window(frames, FromMetadata(), &dicom.Window{Center: 40, Width: 80})
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if out[0].Pix[0] != 0 || out[0].Pix[1] != 128 || out[0].Pix[2] != 255 {
		t.Errorf("pixels = %v, want [0 128 255]", out[0].Pix)
	}

	if _, err := Window(frames, FromMetadata(), nil); !errors.Is(err, ErrNoWindowMetadata) {
		t.Errorf("Window without metadata error = %v, want ErrNoWindowMetadata", err)
	}
}

func TestWindow_InvalidWidth(t *testing.T) {
	for _, spec := range []WindowSpec{
		Explicit(0, -1),
		Explicit(0, math.Inf(1)),
		Explicit(math.Inf(-1), 400),
		Explicit(math.NaN(), 400),
	} {
		_, err := Window([]dicom.Frame{frame(-1000, 0, 1000)}, spec, nil)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("Window(%v) error = %v, want ErrInvalidWindow", spec, err)
		}
	}
}

func TestWindow_Dimensions(t *testing.T) {
	f := dicom.Frame{Rows: 2, Cols: 3, Pixels: []float64{0, 1, 2, 3, 4, 5}}

	out, err := Window([]dicom.Frame{f}, FullRange(), nil)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	b := out[0].Bounds()
	if b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v, want 3x2", b)
	}
	if out[0].GrayAt(2, 1).Y != 255 || out[0].GrayAt(0, 0).Y != 0 {
		t.Errorf("row-major layout not preserved: %v", out[0].Pix)
	}
}

func TestApply_UsesSeriesWindow(t *testing.T) {
	s := &dicom.Series{
		Frames: []dicom.Frame{frame(0, 1000)},
		Window: &dicom.Window{Center: 500, Width: 1000},
	}
	out, err := Apply(s, FromMetadata())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out[0].Pix[0] != 0 || out[0].Pix[1] != 255 {
		t.Errorf("pixels = %v, want [0 255]", out[0].Pix)
	}
}

func TestWindowSpec_String(t *testing.T) {
	tests := []struct {
		spec WindowSpec
		want string
	}{
		{FromMetadata(), "dicom"},
		{FullRange(), "full"},
		{Explicit(40, 400), "40,400"},
		{Explicit(-600, 1500), "-600,1500"},
	}
	for _, tt := range tests {
		if got := tt.spec.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPreset(t *testing.T) {
	p, ok := Preset("Lung")
	if !ok {
		t.Fatal("lung preset missing")
	}
	if p.Spec() != Explicit(-600, 1500) {
		t.Errorf("lung spec = %+v", p.Spec())
	}
	if _, ok := Preset("kidney"); ok {
		t.Error("unexpected preset kidney")
	}

	names := PresetNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("preset names not sorted: %v", names)
			break
		}
	}
}
