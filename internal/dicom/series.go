package dicom

import (
	"fmt"
	"sort"
)

// Series is an ordered, immutable sequence of frames sharing one Series Instance UID.
// Select and the windowing functions derive new values and never modify a Series.
type Series struct {
	UID    string
	Frames []Frame

	// Window is the series-level window from metadata, nil when absent.
	Window *Window

	// Meta is the metadata of the first file in series order.
	Meta Metadata

	// Paths lists the source files in series order.
	Paths []string
}

// Len returns the number of frames.
func (s *Series) Len() int {
	return len(s.Frames)
}

// Dimensions returns the shared frame size as rows, columns.
func (s *Series) Dimensions() (rows, cols int) {
	if len(s.Frames) == 0 {
		return 0, 0
	}
	return s.Frames[0].Rows, s.Frames[0].Cols
}

// Assemble orders the frames of the given files into one Series.
//
// Files are ordered by ascending instance number when every file has one,
// otherwise encounter order is kept. The frames of a multi-frame file stay
// a contiguous block in stored order. When files disagree on the window,
// the first one encountered wins.
func Assemble(files []*File) (*Series, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("assemble series: %w: no files", ErrMissingPixelData)
	}

	ordered := make([]*File, len(files))
	copy(ordered, files)

	allNumbered := true
	for _, f := range ordered {
		if f.Meta.InstanceNumber == nil {
			allNumbered = false
			break
		}
	}
	if allNumbered {
		sort.SliceStable(ordered, func(i, j int) bool {
			return *ordered[i].Meta.InstanceNumber < *ordered[j].Meta.InstanceNumber
		})
	}

	s := &Series{
		UID:  ordered[0].Meta.SeriesInstanceUID,
		Meta: ordered[0].Meta,
	}

	// Phase images always use the full stored range.
	if s.Meta.IsPhase() {
		w := s.Meta.PhaseWindow()
		s.Window = &w
	}

	for _, f := range ordered {
		if s.Window == nil && f.Meta.Window != nil {
			w := *f.Meta.Window
			s.Window = &w
		}
		s.Paths = append(s.Paths, f.Path)
		s.Frames = append(s.Frames, f.Frames...)
	}

	if len(s.Frames) == 0 {
		return nil, fmt.Errorf("assemble series %s: %w", s.UID, ErrMissingPixelData)
	}
	rows, cols := s.Frames[0].Rows, s.Frames[0].Cols
	for i, fr := range s.Frames {
		if fr.Rows != rows || fr.Cols != cols {
			return nil, fmt.Errorf("assemble series %s: %w: frame %d is %dx%d, expected %dx%d",
				s.UID, ErrInconsistentDimensions, i+1, fr.Cols, fr.Rows, cols, rows)
		}
	}

	return s, nil
}

// FrameRange is an inclusive 1-based frame range. A zero Start means the
// first frame, a zero End means the last frame; the zero value selects all frames.
type FrameRange struct {
	Start int
	End   int
}

// IsAll reports whether the range leaves both bounds open.
func (r FrameRange) IsAll() bool {
	return r.Start == 0 && r.End == 0
}

// String formats the range the way it is written on the command line.
func (r FrameRange) String() string {
	switch {
	case r.IsAll():
		return ""
	case r.Start == r.End:
		return fmt.Sprintf("%d", r.Start)
	case r.Start == 0:
		return fmt.Sprintf("-%d", r.End)
	case r.End == 0:
		return fmt.Sprintf("%d-", r.Start)
	default:
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	}
}

// Select returns a new Series restricted to the frames in r.
// An end beyond the last frame is clamped.
func (s *Series) Select(r FrameRange) (*Series, error) {
	n := len(s.Frames)
	start, end := r.Start, r.End
	if start == 0 {
		start = 1
	}
	if end == 0 || end > n {
		end = n
	}
	if start < 1 || start > n || start > end {
		return nil, fmt.Errorf("%w: %d-%d for a series of %d frames", ErrInvalidFrameRange, r.Start, r.End, n)
	}

	out := *s
	out.Frames = make([]Frame, end-start+1)
	copy(out.Frames, s.Frames[start-1:end])
	return &out, nil
}
