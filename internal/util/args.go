// Package util parses the command-line values shared by the CLI, the config
// file and the wizard.
package util

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mrsinham/dicom2gif/internal/dicom"
	"github.com/mrsinham/dicom2gif/internal/image"
)

var rangePattern = regexp.MustCompile(`^(\d*)-(\d*)$`)

// ParseFrameRange parses "N", "A-B", "A-" or "-B" into a 1-based inclusive
// range. An empty string selects all frames.
func ParseFrameRange(s string) (dicom.FrameRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return dicom.FrameRange{}, nil
	}

	if !strings.Contains(s, "-") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return dicom.FrameRange{}, fmt.Errorf("%w: %q (frames are numbered from 1)", dicom.ErrInvalidFrameRange, s)
		}
		return dicom.FrameRange{Start: n, End: n}, nil
	}

	m := rangePattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return dicom.FrameRange{}, fmt.Errorf("%w: %q (valid: N, A-B, A-, -B)", dicom.ErrInvalidFrameRange, s)
	}

	var r dicom.FrameRange
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return dicom.FrameRange{}, fmt.Errorf("%w: %q (frames are numbered from 1)", dicom.ErrInvalidFrameRange, s)
		}
		if i == 0 {
			r.Start = n
		} else {
			r.End = n
		}
	}
	if r.Start > 0 && r.End > 0 && r.Start > r.End {
		return dicom.FrameRange{}, fmt.Errorf("%w: %q (start after end)", dicom.ErrInvalidFrameRange, s)
	}
	return r, nil
}

// ParseWindowing parses "dicom", "full", a preset name or "CENTER,WIDTH".
func ParseWindowing(s string) (image.WindowSpec, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "dicom":
		return image.FromMetadata(), nil
	case "full":
		return image.FullRange(), nil
	}

	if p, ok := image.Preset(v); ok {
		return p.Spec(), nil
	}

	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return image.WindowSpec{}, fmt.Errorf("%w: %q (valid: dicom, full, CENTER,WIDTH or one of %s)",
			image.ErrInvalidWindow, s, strings.Join(image.PresetNames(), ", "))
	}
	center, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return image.WindowSpec{}, fmt.Errorf("%w: center %q is not a number", image.ErrInvalidWindow, parts[0])
	}
	width, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return image.WindowSpec{}, fmt.Errorf("%w: width %q is not a number", image.ErrInvalidWindow, parts[1])
	}
	if !finite(center) || !finite(width) {
		return image.WindowSpec{}, fmt.Errorf("%w: center and width must be finite, got %g,%g", image.ErrInvalidWindow, center, width)
	}
	if width < 0 {
		return image.WindowSpec{}, fmt.Errorf("%w: width must not be negative, got %g", image.ErrInvalidWindow, width)
	}
	return image.Explicit(center, width), nil
}

// ParseDuration parses a frame duration. A bare integer is read as
// milliseconds; Go duration strings such as "80ms" or "1.5s" are accepted too.
// An empty string means no override. Zero and negative durations are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: %d ms (must be positive)", dicom.ErrInvalidDuration, n)
		}
		return time.Duration(n) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q (use milliseconds or a duration like 80ms)", dicom.ErrInvalidDuration, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %v (must be positive)", dicom.ErrInvalidDuration, d)
	}
	return d, nil
}

// ParsePattern checks a file name glob. An empty pattern selects the default.
func ParsePattern(s string) (string, error) {
	if s == "" {
		return dicom.DefaultPattern, nil
	}
	if _, err := filepath.Match(s, ""); err != nil {
		return "", fmt.Errorf("invalid pattern %q: %w", s, err)
	}
	return s, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
