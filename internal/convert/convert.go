// Package convert ties reading, windowing and encoding together: it turns a
// DICOM file or a directory of DICOM files into animated images.
package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mrsinham/dicom2gif/internal/dicom"
	"github.com/mrsinham/dicom2gif/internal/encode"
	"github.com/mrsinham/dicom2gif/internal/image"
	"github.com/mrsinham/dicom2gif/internal/logging"
)

// ErrNoSeries is returned by Run when a directory holds no readable series.
var ErrNoSeries = errors.New("no DICOM series found")

// WriteOptions controls how one series is rendered.
type WriteOptions struct {
	// Duration overrides the per-frame display time. Zero derives it from metadata.
	Duration time.Duration
	// Window is the intensity mapping. The zero value uses the DICOM window.
	Window image.WindowSpec
	// Frames restricts output to a frame range. The zero value keeps all frames.
	Frames dicom.FrameRange
	// Annotate burns a frame counter into every frame.
	Annotate bool
	// Logger receives warnings. Nil discards them.
	Logger *slog.Logger
}

// Options controls a conversion run.
type Options struct {
	WriteOptions

	// Pattern selects files by base name when the input is a directory.
	Pattern string
	// OutFile is the output path for a single-file input. Ignored for directories.
	OutFile string
	// Format picks the container when the output path is derived. Defaults to GIF.
	Format encode.Format
	// Progress, when set, is called after each series is processed.
	Progress func(done, total int, out string, err error)
}

// Failure records a series that could not be written.
type Failure struct {
	Source string
	Err    error
}

// Report summarises a run.
type Report struct {
	Written []string
	Failed  []Failure
}

// OK reports whether at least one output was written.
func (r *Report) OK() bool {
	return r != nil && len(r.Written) > 0
}

// OutputPath replaces the extension of src with the extension of format.
func OutputPath(src string, format encode.Format) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + format.Ext()
}

// Write renders series to outPath. The output format follows the extension
// of outPath.
func Write(s *dicom.Series, outPath string, opts WriteOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	format, err := encode.FormatFromPath(outPath)
	if err != nil {
		return err
	}

	sel, err := s.Select(opts.Frames)
	if err != nil {
		return err
	}

	frames, err := image.Apply(sel, opts.Window)
	if errors.Is(err, image.ErrNoWindowMetadata) {
		logger.Warn("no window in DICOM metadata, using full dynamic range", "series", s.UID)
		frames, err = image.Apply(sel, image.FullRange())
	}
	if err != nil {
		return fmt.Errorf("windowing: %w", err)
	}

	if opts.Annotate {
		if err := image.Annotate(frames); err != nil {
			return err
		}
	}

	durations, source, err := sel.Durations(opts.Duration)
	if err != nil {
		return err
	}
	switch source {
	case dicom.DurationOutOfRange:
		logger.Warn("frame duration from metadata out of range, using default",
			"series", s.UID, "default", dicom.DefaultFrameDuration)
	case dicom.DurationDefault:
		logger.Debug("no timing in metadata, using default frame duration",
			"series", s.UID, "default", dicom.DefaultFrameDuration)
	default:
		logger.Debug("frame durations resolved", "series", s.UID, "source", source.String())
	}

	if err := encode.Write(outPath, format, frames, durations); err != nil {
		return err
	}
	logger.Debug("wrote series", "series", s.UID, "path", outPath, "frames", len(frames), "format", format)
	return nil
}

// Run converts path, a DICOM file or a directory of DICOM files.
//
// A file is converted to opts.OutFile, or next to the input with the format
// extension; its errors are returned. A directory is scanned recursively and
// each series is written next to its first file. Failing series are logged
// and recorded in the report while the remaining ones are processed.
func Run(path string, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
		opts.Logger = logger
	}
	if opts.Format == "" {
		opts.Format = encode.GIF
	}
	format, err := encode.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dicom.ErrUnreadableFile, path, err)
	}

	if info.IsDir() {
		return runDir(path, format, opts)
	}
	return runFile(path, format, opts)
}

func runFile(path string, format encode.Format, opts Options) (*Report, error) {
	s, err := dicom.ReadSeries(path)
	if err != nil {
		return nil, err
	}

	out := opts.OutFile
	if out == "" {
		out = OutputPath(path, format)
	}

	report := &Report{}
	err = Write(s, out, opts.WriteOptions)
	if opts.Progress != nil {
		opts.Progress(1, 1, out, err)
	}
	if err != nil {
		return report, err
	}
	report.Written = append(report.Written, out)
	return report, nil
}

func runDir(root string, format encode.Format, opts Options) (*Report, error) {
	logger := opts.Logger
	if opts.OutFile != "" {
		logger.Warn("out file is ignored when the input is a directory", "out_file", opts.OutFile)
	}

	series, err := dicom.ReadDir(root, opts.Pattern, logging.WithComponent(logger, "scan"))
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		pattern := opts.Pattern
		if pattern == "" {
			pattern = dicom.DefaultPattern
		}
		return &Report{}, fmt.Errorf("%w in %s matching %q", ErrNoSeries, root, pattern)
	}

	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	report := &Report{}
	for i, src := range keys {
		s := series[src]
		out := OutputPath(src, format)

		err := Write(s, out, opts.WriteOptions)
		if err != nil {
			logger.Warn("failed to convert series", "series", s.UID, "source", src, "error", err)
			report.Failed = append(report.Failed, Failure{Source: src, Err: err})
		} else {
			report.Written = append(report.Written, out)
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(keys), out, err)
		}
	}
	return report, nil
}
