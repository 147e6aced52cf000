package encode

import (
	"image"
	"io"
	"math"
	"time"

	"github.com/kettek/apng"
)

func encodeAPNG(w io.Writer, frames []*image.Gray, durations []time.Duration) error {
	a := apng.APNG{
		Frames:    make([]apng.Frame, len(frames)),
		LoopCount: 0,
	}
	for i, f := range frames {
		num, den := apngDelay(durations[i])
		a.Frames[i] = apng.Frame{
			Image:            f,
			DelayNumerator:   num,
			DelayDenominator: den,
		}
	}
	return apng.Encode(w, a)
}

// apngDelay expresses d as a fraction of a second with a millisecond
// denominator, falling back to centiseconds for delays too long to fit.
func apngDelay(d time.Duration) (num, den uint16) {
	ms := d.Milliseconds()
	if ms <= math.MaxUint16 {
		return uint16(ms), 1000
	}
	cs := min(ms/10, math.MaxUint16)
	return uint16(cs), 100
}
