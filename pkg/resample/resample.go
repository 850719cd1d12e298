// Package resample converts a mono sample stream between fixed rates.
// It keeps an integer error accumulator instead of a floating-point
// position, so arbitrarily long streams do not drift.
package resample

import (
	"fmt"
)

type Resampler struct {
	inRate  int
	outRate int
	acc     int
}

func New(inRate, outRate int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("rates must be positive: got %d -> %d", inRate, outRate)
	}
	return &Resampler{
		inRate:  inRate,
		outRate: outRate,
	}, nil
}

// Resample appends the converted samples to dst and returns it. The
// conversion is nearest-sample: each input sample is emitted as many
// times as the accumulated rate ratio asks for (zero or more), which is
// plenty for a correlation pipeline that only cares about peak
// positions at millisecond scale.
func (r *Resampler) Resample(dst, in []float64) []float64 {
	if r.inRate == r.outRate {
		return append(dst, in...)
	}
	for _, v := range in {
		r.acc += r.outRate
		for r.acc >= r.inRate {
			r.acc -= r.inRate
			dst = append(dst, v)
		}
	}
	return dst
}
