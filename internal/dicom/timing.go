package dicom

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultFrameDuration is used when no duration is given and none can be
	// derived from the series metadata.
	DefaultFrameDuration = 100 * time.Millisecond

	// MaxFrameDuration bounds durations derived from metadata.
	MaxFrameDuration = 10 * time.Second
)

// DurationSource tells where the frame durations of a series came from.
type DurationSource int

const (
	DurationOverride DurationSource = iota
	DurationFrameTime
	DurationTimestamps
	DurationDefault
	// DurationOutOfRange means a duration was derived but rejected for being
	// outside (0, MaxFrameDuration]; the default was used instead.
	DurationOutOfRange
)

// String returns a short description of the source.
func (d DurationSource) String() string {
	switch d {
	case DurationOverride:
		return "override"
	case DurationFrameTime:
		return "frame time"
	case DurationTimestamps:
		return "timestamps"
	case DurationOutOfRange:
		return "out of range"
	default:
		return "default"
	}
}

// Durations resolves one display duration per frame.
//
// A positive override applies to every frame. Otherwise, when every frame
// carries its own duration those are used, with DurationOutOfRange reported
// when one had to be replaced; when every frame carries a
// timestamp the mean positive step, rounded to 10 ms, is used; failing both
// DefaultFrameDuration applies.
func (s *Series) Durations(override time.Duration) ([]time.Duration, DurationSource, error) {
	n := len(s.Frames)
	if override < 0 {
		return nil, DurationOverride, fmt.Errorf("%w: %v", ErrInvalidDuration, override)
	}
	if override > 0 {
		return uniform(n, override), DurationOverride, nil
	}

	if d, clamped, ok := s.frameTimes(); ok {
		if clamped {
			return d, DurationOutOfRange, nil
		}
		return d, DurationFrameTime, nil
	}

	step, ok := s.timestampStep()
	if !ok {
		return uniform(n, DefaultFrameDuration), DurationDefault, nil
	}
	if step <= 0 || step > MaxFrameDuration {
		return uniform(n, DefaultFrameDuration), DurationOutOfRange, nil
	}
	return uniform(n, step), DurationTimestamps, nil
}

// FrameDuration summarises the series with one duration: the first frame
// that declares one wins, then the timestamp step, then the default.
func (s *Series) FrameDuration() time.Duration {
	for _, f := range s.Frames {
		if f.Duration > 0 {
			return f.Duration
		}
	}
	if step, ok := s.timestampStep(); ok && step > 0 && step <= MaxFrameDuration {
		return step
	}
	return DefaultFrameDuration
}

// frameTimes returns the per-frame durations when every frame has one.
// clamped reports that at least one exceeded MaxFrameDuration and was
// replaced by DefaultFrameDuration.
func (s *Series) frameTimes() (out []time.Duration, clamped, ok bool) {
	if len(s.Frames) == 0 {
		return nil, false, false
	}
	out = make([]time.Duration, len(s.Frames))
	for i, f := range s.Frames {
		if f.Duration <= 0 {
			return nil, false, false
		}
		if f.Duration > MaxFrameDuration {
			out[i] = DefaultFrameDuration
			clamped = true
			continue
		}
		out[i] = f.Duration
	}
	return out, clamped, true
}

// timestampStep returns the mean positive difference between consecutive
// frame timestamps, rounded to the nearest 10 ms.
func (s *Series) timestampStep() (time.Duration, bool) {
	if len(s.Frames) < 2 {
		return 0, false
	}
	var (
		sum   float64
		count int
	)
	for i := 1; i < len(s.Frames); i++ {
		prev, cur := s.Frames[i-1].Timestamp, s.Frames[i].Timestamp
		if prev == nil || cur == nil {
			return 0, false
		}
		if dt := *cur - *prev; dt > 0 {
			sum += dt
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	ms := math.Round(sum/float64(count)/10) * 10
	return time.Duration(ms * float64(time.Millisecond)), true
}

func uniform(n int, d time.Duration) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}
