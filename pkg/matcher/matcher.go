// Package matcher drives the interval ladder: it waits until both
// buffers have delivered the next rung, runs the correlator on the two
// prefixes and decides whether the run can stop early.
package matcher

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/xaionaro-go/audiosync/pkg/correlator"
	"github.com/xaionaro-go/audiosync/pkg/ladder"
	"github.com/xaionaro-go/audiosync/pkg/samplebuf"
)

// Run attempts a match at each rung of the ladder in order, on the
// reference buffer (the downloaded stream) against the comparison
// buffer (the capture). The first rung whose confidence reaches the
// threshold wins; the stop flag is raised before returning on every
// path that ends the run.
//
// A correlator error only skips the rung it happened on.
func Run(
	ctx context.Context,
	sig *samplebuf.Signal,
	reference *samplebuf.Buffer,
	comparison *samplebuf.Buffer,
	l ladder.Ladder,
	threshold float64,
	corr correlator.Correlator,
) Result {
	for i, rung := range l {
		if !sig.WaitReached(rung, reference, comparison) {
			logger.Debugf(ctx, "stopped while waiting for rung %d (%d samples)", i, rung)
			return Result{Outcome: OutcomeNoMatch}
		}

		padded := paddedLen(rung)
		a := pad(reference.ReadPrefix(rung), padded)
		b := pad(comparison.ReadPrefix(rung), padded)

		lag, confidence, err := corr.Correlate(ctx, a, b)
		if err != nil {
			logger.Errorf(ctx, "skipping rung %d (%d samples): %v", i, rung, err)
			continue
		}
		logger.Debugf(ctx, "rung %d (%d samples): lag=%d confidence=%f", i, rung, lag, confidence)

		if confidence >= threshold {
			sig.Stop(nil)
			if lag > padded/2 {
				lag -= padded
			}
			return Result{
				Outcome:    OutcomeMatched,
				Lag:        lag,
				Confidence: confidence,
			}
		}
	}

	sig.Stop(nil)
	return Result{Outcome: OutcomeNoMatch}
}

// paddedLen is the length the prefixes are zero-padded to before
// correlating: circular cross-correlation needs at least 2n-1 slots to
// keep the two offsets ranges from wrapping into each other, rounded up
// to a power of two for the FFT backends.
func paddedLen(n int) int {
	m := 1
	for m < 2*n-1 {
		m <<= 1
	}
	return m
}

func pad(samples []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, samples)
	return out
}
