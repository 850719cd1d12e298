package godsp

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/audiosync/pkg/correlator"
)

func noise(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64()*2 - 1
	}
	return out
}

// rotate delays x by d samples, treating it as periodic.
func rotate(x []float64, d int) []float64 {
	n := len(x)
	out := make([]float64, n)
	for i := range out {
		out[i] = x[((i-d)%n+n)%n]
	}
	return out
}

func TestCorrelator_Identity(t *testing.T) {
	c := New()
	x := noise(1024, 1)

	lag, confidence, err := c.Correlate(context.Background(), x, x)
	require.NoError(t, err)
	assert.Equal(t, 0, lag)
	assert.InDelta(t, 1.0, confidence, 0.01)
}

func TestCorrelator_ShiftLaw(t *testing.T) {
	c := New()
	x := noise(1024, 2)

	for _, d := range []int{1, 37, 480, 1023} {
		t.Run(fmt.Sprintf("delay-%d", d), func(t *testing.T) {
			lag, confidence, err := c.Correlate(context.Background(), x, rotate(x, d))
			require.NoError(t, err)
			assert.Equal(t, d, lag)
			assert.InDelta(t, 1.0, confidence, 0.01)
		})
	}
}

func TestCorrelator_ZeroPaddedDelay(t *testing.T) {
	// The matcher's usage: both prefixes zero-padded, the comparison
	// delayed without wrap-around.
	const n = 2000
	const padded = 4096
	const delay = 150

	x := noise(n, 3)
	a := make([]float64, padded)
	copy(a, x)
	b := make([]float64, padded)
	copy(b[delay:], x[:n-delay])

	c := New()
	lag, confidence, err := c.Correlate(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, delay, lag)
	assert.Greater(t, confidence, 0.9)
}

func TestCorrelator_AmplitudeIndependence(t *testing.T) {
	c := New()
	x := noise(1024, 4)
	quiet := make([]float64, len(x))
	for i, v := range x {
		quiet[i] = v * 0.05
	}

	lag, confidence, err := c.Correlate(context.Background(), x, quiet)
	require.NoError(t, err)
	assert.Equal(t, 0, lag)
	assert.InDelta(t, 1.0, confidence, 0.01)
}

func TestCorrelator_Silence(t *testing.T) {
	c := New()
	x := noise(256, 5)

	_, confidence, err := c.Correlate(context.Background(), x, make([]float64, 256))
	require.NoError(t, err)
	assert.Zero(t, confidence)
}

func TestCorrelator_Errors(t *testing.T) {
	c := New()

	t.Run("too short", func(t *testing.T) {
		_, _, err := c.Correlate(context.Background(), []float64{1}, []float64{1})
		require.ErrorIs(t, err, correlator.ErrInsufficientData)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := c.Correlate(context.Background(), make([]float64, 8), make([]float64, 16))
		require.Error(t, err)
	})
}

func BenchmarkCorrelator_Correlate(b *testing.B) {
	c := New()
	ctx := context.Background()

	sizes := []int{1024, 16384, 131072}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("size-%d", n), func(b *testing.B) {
			x := noise(n, 6)
			y := rotate(x, n/10)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _, err := c.Correlate(ctx, x, y)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
