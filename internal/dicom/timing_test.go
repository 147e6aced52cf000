package dicom

import (
	"errors"
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func seriesWith(frames ...Frame) *Series {
	return &Series{UID: "1.2.3", Frames: frames}
}

func TestDurations(t *testing.T) {
	ms := time.Millisecond

	tests := []struct {
		name     string
		series   *Series
		override time.Duration
		want     []time.Duration
		source   DurationSource
	}{
		{
			name:     "override wins",
			series:   seriesWith(Frame{Duration: 40 * ms}, Frame{Duration: 40 * ms}),
			override: 250 * ms,
			want:     []time.Duration{250 * ms, 250 * ms},
			source:   DurationOverride,
		},
		{
			name:   "per-frame durations",
			series: seriesWith(Frame{Duration: 40 * ms}, Frame{Duration: 60 * ms}),
			want:   []time.Duration{40 * ms, 60 * ms},
			source: DurationFrameTime,
		},
		{
			name: "timestamps rounded to 10ms",
			series: seriesWith(
				Frame{Timestamp: floatPtr(0)},
				Frame{Timestamp: floatPtr(33)},
				Frame{Timestamp: floatPtr(66)},
			),
			want:   []time.Duration{30 * ms, 30 * ms, 30 * ms},
			source: DurationTimestamps,
		},
		{
			name: "non-positive steps ignored",
			series: seriesWith(
				Frame{Timestamp: floatPtr(100)},
				Frame{Timestamp: floatPtr(0)},
				Frame{Timestamp: floatPtr(50)},
			),
			want:   []time.Duration{50 * ms, 50 * ms, 50 * ms},
			source: DurationTimestamps,
		},
		{
			name:   "per-frame duration beyond ten seconds",
			series: seriesWith(Frame{Duration: 40 * ms}, Frame{Duration: 20 * time.Second}),
			want:   []time.Duration{40 * ms, DefaultFrameDuration},
			source: DurationOutOfRange,
		},
		{
			name:   "partial durations fall through to default",
			series: seriesWith(Frame{Duration: 40 * ms}, Frame{}),
			want:   []time.Duration{DefaultFrameDuration, DefaultFrameDuration},
			source: DurationDefault,
		},
		{
			name:   "missing timestamp",
			series: seriesWith(Frame{Timestamp: floatPtr(0)}, Frame{}),
			want:   []time.Duration{DefaultFrameDuration, DefaultFrameDuration},
			source: DurationDefault,
		},
		{
			name:   "step beyond ten seconds",
			series: seriesWith(Frame{Timestamp: floatPtr(0)}, Frame{Timestamp: floatPtr(60000)}),
			want:   []time.Duration{DefaultFrameDuration, DefaultFrameDuration},
			source: DurationOutOfRange,
		},
		{
			name:   "step rounds to zero",
			series: seriesWith(Frame{Timestamp: floatPtr(0)}, Frame{Timestamp: floatPtr(2)}),
			want:   []time.Duration{DefaultFrameDuration, DefaultFrameDuration},
			source: DurationOutOfRange,
		},
		{
			name:   "single frame",
			series: seriesWith(Frame{}),
			want:   []time.Duration{DefaultFrameDuration},
			source: DurationDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source, err := tt.series.Durations(tt.override)
			if err != nil {
				t.Fatalf("Durations: %v", err)
			}
			if source != tt.source {
				t.Errorf("source = %v, want %v", source, tt.source)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d durations, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("duration %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDurations_NegativeOverride(t *testing.T) {
	s := seriesWith(Frame{})
	if _, _, err := s.Durations(-time.Second); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Durations(-1s) error = %v, want ErrInvalidDuration", err)
	}
}

func TestFrameDuration_FirstDeclaredWins(t *testing.T) {
	s := seriesWith(Frame{}, Frame{Duration: 80 * time.Millisecond}, Frame{Duration: 20 * time.Millisecond})
	if got := s.FrameDuration(); got != 80*time.Millisecond {
		t.Errorf("FrameDuration() = %v, want 80ms", got)
	}
	if got := seriesWith(Frame{}).FrameDuration(); got != DefaultFrameDuration {
		t.Errorf("FrameDuration() = %v, want default", got)
	}
}
