package encode

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kettek/apng"
	"golang.org/x/image/tiff"
)

func grayFrames(n, w, h int) []*image.Gray {
	frames := make([]*image.Gray, n)
	for i := range frames {
		img := image.NewGray(image.Rect(0, 0, w, h))
		for j := range img.Pix {
			img.Pix[j] = uint8((i*37 + j) % 256)
		}
		frames[i] = img
	}
	return frames
}

func uniformDurations(n int, d time.Duration) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"gif", GIF},
		{"GIF", GIF},
		{"apng", APNG},
		{"png", APNG},
		{"tiff", TIFF},
		{"tif", TIFF},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.input)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", tc.input, err)
		}
		if got != tc.expected {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}

	if _, err := ParseFormat("bmp"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(bmp) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"out/a.gif", GIF, false},
		{"a.apng", APNG, false},
		{"a.PNG", APNG, false},
		{"a.tif", TIFF, false},
		{"a.tiff", TIFF, false},
		{"a.jpg", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.err {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("FormatFromPath(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, %v; want %v", tt.path, got, err, tt.want)
		}
	}
}

func TestFormat_Ext(t *testing.T) {
	for _, f := range AllFormats() {
		got, err := FormatFromPath("x" + f.Ext())
		if err != nil || got != f {
			t.Errorf("FormatFromPath(x%s) = %v, %v; want %v", f.Ext(), got, err, f)
		}
	}
}

func TestWrite_GIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.gif")
	frames := grayFrames(3, 5, 4)

	if err := Write(path, GIF, frames, []time.Duration{40 * time.Millisecond, 100 * time.Millisecond, time.Millisecond}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("gif.DecodeAll: %v", err)
	}
	if len(g.Image) != 3 {
		t.Fatalf("got %d frames, want 3", len(g.Image))
	}
	wantDelay := []int{4, 10, 1}
	for i, d := range wantDelay {
		if g.Delay[i] != d {
			t.Errorf("delay %d = %d, want %d", i, g.Delay[i], d)
		}
	}
	if g.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0 (forever)", g.LoopCount)
	}
	// Gray levels survive the palette exactly.
	for i, img := range g.Image {
		for y := 0; y < 4; y++ {
			for x := 0; x < 5; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				if uint8(r>>8) != frames[i].GrayAt(x, y).Y {
					t.Fatalf("frame %d pixel (%d,%d) = %d, want %d", i, x, y, r>>8, frames[i].GrayAt(x, y).Y)
				}
			}
		}
	}
}

func TestEncode_APNG(t *testing.T) {
	var buf bytes.Buffer
	frames := grayFrames(4, 6, 3)

	if err := Encode(&buf, APNG, frames, uniformDurations(4, 250*time.Millisecond)); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	a, err := apng.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("apng.DecodeAll: %v", err)
	}
	if len(a.Frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(a.Frames))
	}
	for i, f := range a.Frames {
		if f.DelayNumerator != 250 || f.DelayDenominator != 1000 {
			t.Errorf("frame %d delay = %d/%d, want 250/1000", i, f.DelayNumerator, f.DelayDenominator)
		}
	}
}

func TestAPNGDelay(t *testing.T) {
	tests := []struct {
		d        time.Duration
		num, den uint16
	}{
		{100 * time.Millisecond, 100, 1000},
		{0, 0, 1000},
		{90 * time.Second, 9000, 100},
		{20 * time.Minute, 65535, 100},
	}
	for _, tt := range tests {
		num, den := apngDelay(tt.d)
		if num != tt.num || den != tt.den {
			t.Errorf("apngDelay(%v) = %d/%d, want %d/%d", tt.d, num, den, tt.num, tt.den)
		}
	}
}

func TestWrite_TIFFPageCount(t *testing.T) {
	for _, size := range [][2]int{{5, 3}, {8, 8}} {
		path := filepath.Join(t.TempDir(), "out.tiff")
		frames := grayFrames(7, size[0], size[1])

		if err := Write(path, TIFF, frames, uniformDurations(7, time.Second)); err != nil {
			t.Fatalf("Write: %v", err)
		}

		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		pages, err := CountPages(f)
		if err != nil {
			t.Fatalf("CountPages: %v", err)
		}
		if pages != 7 {
			t.Errorf("%dx%d: got %d pages, want 7", size[0], size[1], pages)
		}

		if _, err := f.Seek(0, 0); err != nil {
			t.Fatal(err)
		}
		first, err := tiff.Decode(f)
		_ = f.Close()
		if err != nil {
			t.Fatalf("tiff.Decode: %v", err)
		}
		b := first.Bounds()
		if b.Dx() != size[0] || b.Dy() != size[1] {
			t.Fatalf("page 1 is %v, want %dx%d", b, size[0], size[1])
		}
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				r, _, _, _ := first.At(x, y).RGBA()
				if uint8(r>>8) != frames[0].GrayAt(x, y).Y {
					t.Fatalf("page 1 pixel (%d,%d) = %d, want %d", x, y, r>>8, frames[0].GrayAt(x, y).Y)
				}
			}
		}
	}
}

func TestCountPages_NotTIFF(t *testing.T) {
	if _, err := CountPages(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("CountPages should reject a GIF stream")
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name      string
		format    Format
		frames    []*image.Gray
		durations []time.Duration
		want      error
	}{
		{"no frames", GIF, nil, nil, ErrEncode},
		{"duration mismatch", GIF, grayFrames(2, 2, 2), uniformDurations(1, time.Second), ErrEncode},
		{"size mismatch", TIFF, append(grayFrames(1, 2, 2), grayFrames(1, 3, 2)...), uniformDurations(2, time.Second), ErrEncode},
		{"nil frame", APNG, []*image.Gray{nil}, uniformDurations(1, time.Second), ErrEncode},
		{"unknown format", Format("bmp"), grayFrames(1, 2, 2), uniformDurations(1, time.Second), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tt.format, tt.frames, tt.durations); !errors.Is(err, tt.want) {
				t.Errorf("Encode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWrite_UnsupportedFormatCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bmp")
	err := Write(path, Format("bmp"), grayFrames(1, 2, 2), uniformDurations(1, time.Second))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Write error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Write created a file for an unsupported format")
	}
}
