// Package gonumfft implements the correlator on top of the real FFT
// from gonum.org/v1/gonum/dsp/fourier.
//
// Unlike go-dsp, gonum's transforms are planned: an FFT object is built
// per input length and carries scratch state, so plan construction and
// teardown are serialized behind a correlator.PlanLock while the
// transforms themselves run outside of it. A single Correlator instance
// must not execute more than one Correlate call at a time.
package gonumfft

import (
	"context"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/xaionaro-go/audiosync/pkg/correlator"
)

type Correlator struct {
	planLock *correlator.PlanLock
	plans    map[int]*fourier.FFT
}

var _ correlator.Correlator = (*Correlator)(nil)

func New(planLock *correlator.PlanLock) *Correlator {
	if planLock == nil {
		planLock = correlator.NewPlanLock()
	}
	return &Correlator{
		planLock: planLock,
		plans:    map[int]*fourier.FFT{},
	}
}

func (c *Correlator) Close() error {
	c.planLock.Lock()
	defer c.planLock.Unlock()
	c.plans = map[int]*fourier.FFT{}
	return nil
}

func (c *Correlator) plan(n int) (_ *fourier.FFT, _err error) {
	c.planLock.Lock()
	defer c.planLock.Unlock()
	defer func() {
		if r := recover(); r != nil {
			_err = fmt.Errorf("%w: %v", correlator.ErrNumericFailure, r)
		}
	}()
	if plan, ok := c.plans[n]; ok {
		return plan, nil
	}
	plan := fourier.NewFFT(n)
	c.plans[n] = plan
	return plan, nil
}

func (c *Correlator) Correlate(
	ctx context.Context,
	a, b []float64,
) (int, float64, error) {
	n, err := correlator.ValidateInputs(a, b)
	if err != nil {
		return 0, 0, err
	}

	plan, err := c.plan(n)
	if err != nil {
		return 0, 0, err
	}

	// Real-to-complex forward transforms: n/2+1 coefficients each.
	fa := plan.Coefficients(nil, a)
	fb := plan.Coefficients(nil, b)

	prod := make([]complex128, len(fa))
	for i := range prod {
		prod[i] = cmplx.Conj(fa[i]) * fb[i]
	}

	// Complex-to-real inverse transform. gonum's round trip is
	// unnormalized (scaled by n), which the confidence accounts for
	// below.
	res := plan.Sequence(nil, prod)

	lag := 0
	peak := abs(res[0])
	for i := 1; i < n; i++ {
		if v := abs(res[i]); v > peak {
			peak = v
			lag = i
		}
	}

	return lag, correlator.Confidence(peak/float64(n), a, b), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
