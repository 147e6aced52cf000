// Package image maps raw DICOM intensities to 8-bit gray frames.
package image

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/mrsinham/dicom2gif/internal/dicom"
)

var (
	// ErrNoWindowMetadata is returned by FromMetadata windowing when the series
	// carries no window. Callers usually fall back to FullRange.
	ErrNoWindowMetadata = errors.New("no window in metadata")

	// ErrInvalidWindow is returned for a negative window width or an unknown
	// windowing mode.
	ErrInvalidWindow = errors.New("invalid window")
)

// WindowMode selects how raw intensities are mapped to gray levels.
type WindowMode int

const (
	ModeFromMetadata WindowMode = iota
	ModeFullRange
	ModeExplicit
)

// WindowSpec is the windowing request: one of FromMetadata, FullRange or
// Explicit. The zero value is FromMetadata.
type WindowSpec struct {
	Mode   WindowMode
	Center float64
	Width  float64
}

// FromMetadata uses the window stored in the series.
func FromMetadata() WindowSpec { return WindowSpec{Mode: ModeFromMetadata} }

// FullRange stretches the series minimum and maximum to black and white.
func FullRange() WindowSpec { return WindowSpec{Mode: ModeFullRange} }

// Explicit uses the given center and width.
func Explicit(center, width float64) WindowSpec {
	return WindowSpec{Mode: ModeExplicit, Center: center, Width: width}
}

// String formats the window setting the way it is written on the command line.
func (s WindowSpec) String() string {
	switch s.Mode {
	case ModeFullRange:
		return "full"
	case ModeExplicit:
		return fmt.Sprintf("%g,%g", s.Center, s.Width)
	default:
		return "dicom"
	}
}

// Apply windows every frame of the series.
func Apply(s *dicom.Series, spec WindowSpec) ([]*image.Gray, error) {
	return Window(s.Frames, spec, s.Window)
}

// Window maps frames to 8-bit gray images. meta is the series window used by
// FromMetadata and may be nil. Full range windowing shares one mapping across
// all frames so brightness stays stable through the animation.
func Window(frames []dicom.Frame, spec WindowSpec, meta *dicom.Window) ([]*image.Gray, error) {
	lo, hi, err := Bounds(frames, spec, meta)
	if err != nil {
		return nil, err
	}

	out := make([]*image.Gray, len(frames))
	for i, f := range frames {
		img := image.NewGray(image.Rect(0, 0, f.Cols, f.Rows))
		for y := 0; y < f.Rows; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+f.Cols]
			src := f.Pixels[y*f.Cols : (y+1)*f.Cols]
			for x, v := range src {
				row[x] = MapValue(v, lo, hi)
			}
		}
		out[i] = img
	}
	return out, nil
}

// Bounds returns the intensity interval [lo, hi] that spec maps to [0, 255].
func Bounds(frames []dicom.Frame, spec WindowSpec, meta *dicom.Window) (lo, hi float64, err error) {
	switch spec.Mode {
	case ModeExplicit:
		return explicitBounds(spec.Center, spec.Width)
	case ModeFromMetadata:
		if meta == nil {
			return 0, 0, ErrNoWindowMetadata
		}
		return explicitBounds(meta.Center, meta.Width)
	case ModeFullRange:
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, f := range frames {
			for _, v := range f.Pixels {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		if math.IsInf(lo, 1) {
			return 0, 0, nil
		}
		return lo, hi, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown mode %d", ErrInvalidWindow, spec.Mode)
	}
}

func explicitBounds(center, width float64) (float64, float64, error) {
	if width < 0 || math.IsNaN(width) || math.IsNaN(center) || math.IsInf(width, 0) || math.IsInf(center, 0) {
		return 0, 0, fmt.Errorf("%w: center %g width %g", ErrInvalidWindow, center, width)
	}
	return center - width/2, center + width/2, nil
}

// MapValue clamps v to [lo, hi] and rescales it linearly to [0, 255],
// rounding to the nearest level. An empty interval maps everything to 128.
func MapValue(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 128
	}
	switch {
	case v <= lo:
		return 0
	case v >= hi:
		return 255
	}
	return uint8(math.Round((v - lo) / (hi - lo) * 255))
}
