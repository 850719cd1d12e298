// Package godsp implements the correlator on top of the FFT from
// github.com/mjibson/go-dsp.
//
// The cross-correlation is computed in the frequency domain:
//
//	R = ifft(conj(fft(a)) * fft(b))
//
// and the peak of |R| indicates how many samples b is delayed relative
// to a (treating both inputs as periodic with period len(a)).
package godsp

import (
	"context"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/xaionaro-go/audiosync/pkg/correlator"
)

// Correlator is stateless: go-dsp keeps its twiddle-factor caches behind
// its own locks, so there is no plan lock here and instances are safe to
// share between goroutines.
type Correlator struct{}

var _ correlator.Correlator = (*Correlator)(nil)

func New() *Correlator {
	return &Correlator{}
}

func (c *Correlator) Close() error {
	return nil
}

func (c *Correlator) Correlate(
	ctx context.Context,
	a, b []float64,
) (int, float64, error) {
	n, err := correlator.ValidateInputs(a, b)
	if err != nil {
		return 0, 0, err
	}

	fa := fft.FFTReal(a)
	fb := fft.FFTReal(b)

	// Cross-power spectrum. The conjugate on the reference side makes
	// the inverse transform peak at the delay of b rather than at its
	// negation.
	prod := make([]complex128, n)
	for i := range prod {
		prod[i] = cmplx.Conj(fa[i]) * fb[i]
	}

	res := fft.IFFT(prod)

	// The result should be real-ish, but anyway we take Abs. The scan
	// uses the absolute value from the very first element, so ties keep
	// the smallest index.
	lag := 0
	peak := cmplx.Abs(res[0])
	for i := 1; i < n; i++ {
		if v := cmplx.Abs(res[i]); v > peak {
			peak = v
			lag = i
		}
	}

	return lag, correlator.Confidence(peak, a, b), nil
}
