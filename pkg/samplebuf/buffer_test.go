package samplebuf

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Append(t *testing.T) {
	sig := NewSignal()
	buf, err := NewBuffer(sig, 10)
	require.NoError(t, err)

	require.NoError(t, buf.Append([]float64{1, 2, 3}))
	assert.Equal(t, 3, buf.Len())
	require.NoError(t, buf.Append([]float64{4, 5}))
	assert.Equal(t, 5, buf.Len())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, buf.ReadPrefix(5))
}

func TestBuffer_Overflow(t *testing.T) {
	sig := NewSignal()
	buf, err := NewBuffer(sig, 10)
	require.NoError(t, err)

	require.NoError(t, buf.Append(make([]float64, 8)))
	err = buf.Append(make([]float64, 3))
	require.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 8, buf.Len(), "a refused append must not move the watermark")

	require.NoError(t, buf.Append(make([]float64, 2)))
	assert.Equal(t, 10, buf.Len())
}

func TestBuffer_FinalizedSamplesAreStable(t *testing.T) {
	sig := NewSignal()
	buf, err := NewBuffer(sig, 100)
	require.NoError(t, err)

	require.NoError(t, buf.Append([]float64{7, 8, 9}))
	view := buf.ReadPrefix(3)
	snapshot := append([]float64(nil), view...)

	require.NoError(t, buf.Append(make([]float64, 90)))
	assert.Equal(t, snapshot, view)
}

func TestBuffer_MonotonicWatermark(t *testing.T) {
	sig := NewSignal()
	buf, err := NewBuffer(sig, 10000)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		chunk := make([]float64, 100)
		for i := 0; i < 100; i++ {
			if err := buf.Append(chunk); err != nil {
				return
			}
			buf.Checkpoint()
		}
	}()

	var observed []int
	for {
		n := buf.Len()
		observed = append(observed, n)
		if n == 10000 {
			break
		}
	}
	<-done

	assert.True(t, sort.IntsAreSorted(observed), "the watermark must never decrease")
}

func TestSignal_WaitReached(t *testing.T) {
	sig := NewSignal()
	bufA, err := NewBuffer(sig, 100)
	require.NoError(t, err)
	bufB, err := NewBuffer(sig, 100)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = bufA.Append(make([]float64, 50))
		bufA.Checkpoint()
		time.Sleep(10 * time.Millisecond)
		_ = bufB.Append(make([]float64, 60))
		bufB.Checkpoint()
	}()

	assert.True(t, sig.WaitReached(50, bufA, bufB))
	assert.False(t, sig.Stopped())
}

func TestSignal_WaitReachedStopped(t *testing.T) {
	sig := NewSignal()
	buf, err := NewBuffer(sig, 100)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		sig.Stop(nil)
	}()

	assert.False(t, sig.WaitReached(50, buf))
	assert.True(t, sig.Stopped())
}

func TestSignal_WaitReachedWithDataAfterStop(t *testing.T) {
	sig := NewSignal()
	buf, err := NewBuffer(sig, 100)
	require.NoError(t, err)

	require.NoError(t, buf.Append(make([]float64, 70)))
	sig.Stop(nil)

	// Data that is already there keeps being served after a stop.
	assert.True(t, sig.WaitReached(70, buf))
	assert.False(t, sig.WaitReached(71, buf))
}

func TestSignal_StopIsWriteOnce(t *testing.T) {
	sig := NewSignal()
	first := errors.New("first")

	sig.Stop(first)
	sig.Stop(errors.New("second"))
	sig.Stop(nil)

	assert.True(t, sig.Stopped())
	assert.Same(t, first, sig.Reason())
}
