package source

import (
	"io"
)

// Float32LEReader adapts a little-endian float32 PCM byte stream into
// samples, keeping partial samples between calls.
type Float32LEReader struct {
	Reader io.Reader

	pending []byte
	scratch []byte
}

// ReadSamples returns at least one sample unless the stream ended
// (io.EOF) or failed. Trailing bytes that do not form a whole sample
// are discarded at EOF.
func (r *Float32LEReader) ReadSamples(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if r.scratch == nil {
		r.scratch = make([]byte, 65536)
	}

	for len(r.pending) < 4 {
		n, err := r.Reader.Read(r.scratch)
		if n > 0 {
			r.pending = append(r.pending, r.scratch[:n]...)
		}
		if err != nil {
			if len(r.pending) >= 4 {
				break
			}
			return 0, err
		}
	}

	cnt := len(r.pending) / 4
	if cnt > len(dst) {
		cnt = len(dst)
	}
	SamplesFromFloat32LE(r.pending[:cnt*4], dst)
	rest := copy(r.pending, r.pending[cnt*4:])
	r.pending = r.pending[:rest]
	return cnt, nil
}
