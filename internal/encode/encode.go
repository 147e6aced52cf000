// Package encode writes sequences of gray frames as animated GIF, animated
// PNG or multi-page TIFF files.
package encode

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for an unknown format name or extension.
	ErrUnsupportedFormat = errors.New("unsupported output format")

	// ErrEncode is returned when frames cannot be encoded.
	ErrEncode = errors.New("encode failed")
)

// Format is an output container.
type Format string

const (
	GIF  Format = "gif"
	APNG Format = "apng"
	TIFF Format = "tiff"
)

// AllFormats returns the supported formats.
func AllFormats() []Format {
	return []Format{GIF, APNG, TIFF}
}

// Ext returns the file extension written for the format, with the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a format name (gif, apng, png, tiff, tif), case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gif":
		return GIF, nil
	case "apng", "png":
		return APNG, nil
	case "tiff", "tif":
		return TIFF, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: gif, apng, tiff)", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Write encodes frames to path in the given format, creating parent
// directories and replacing any existing file.
func Write(path string, format Format, frames []*image.Gray, durations []time.Duration) error {
	if err := validate(frames, durations); err != nil {
		return err
	}
	format, err := ParseFormat(string(format))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, format, frames, durations); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Encode writes frames to w in the given format. durations holds one entry per frame.
func Encode(w io.Writer, format Format, frames []*image.Gray, durations []time.Duration) error {
	if err := validate(frames, durations); err != nil {
		return err
	}

	var err error
	switch format {
	case GIF:
		err = encodeGIF(w, frames, durations)
	case APNG:
		err = encodeAPNG(w, frames, durations)
	case TIFF:
		err = encodeTIFF(w, frames)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncode, format, err)
	}
	return nil
}

func validate(frames []*image.Gray, durations []time.Duration) error {
	if len(frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrEncode)
	}
	if len(durations) != len(frames) {
		return fmt.Errorf("%w: %d durations for %d frames", ErrEncode, len(durations), len(frames))
	}
	for i, f := range frames {
		if f == nil {
			return fmt.Errorf("%w: frame %d is nil", ErrEncode, i+1)
		}
	}
	size := frames[0].Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return fmt.Errorf("%w: empty frame", ErrEncode)
	}
	for i, f := range frames {
		if f.Bounds().Size() != size {
			return fmt.Errorf("%w: frame %d is %v, expected %v", ErrEncode, i+1, f.Bounds().Size(), size)
		}
		if durations[i] < 0 {
			return fmt.Errorf("%w: negative duration for frame %d", ErrEncode, i+1)
		}
	}
	return nil
}
