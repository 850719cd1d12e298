package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResample_SameRate(t *testing.T) {
	r, err := New(48000, 48000)
	require.NoError(t, err)

	in := []float64{1, 2, 3}
	assert.Equal(t, in, r.Resample(nil, in))
}

func TestResample_Downsample(t *testing.T) {
	r, err := New(96000, 48000)
	require.NoError(t, err)

	out := r.Resample(nil, make([]float64, 1000))
	assert.Len(t, out, 500)
}

func TestResample_Upsample(t *testing.T) {
	r, err := New(24000, 48000)
	require.NoError(t, err)

	out := r.Resample(nil, []float64{1, 2, 3})
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3}, out)
}

func TestResample_ChunkingDoesNotDrift(t *testing.T) {
	whole, err := New(44100, 48000)
	require.NoError(t, err)
	chunked, err := New(44100, 48000)
	require.NoError(t, err)

	in := make([]float64, 44100)
	for i := range in {
		in[i] = float64(i)
	}

	outWhole := whole.Resample(nil, in)
	var outChunked []float64
	for off := 0; off < len(in); off += 1000 {
		end := off + 1000
		if end > len(in) {
			end = len(in)
		}
		outChunked = chunked.Resample(outChunked, in[off:end])
	}

	assert.Equal(t, outWhole, outChunked)
	assert.Len(t, outWhole, 48000)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(0, 48000)
	assert.Error(t, err)
	_, err = New(48000, -1)
	assert.Error(t, err)
}
