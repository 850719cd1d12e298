package download

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"github.com/xaionaro-go/audiosync/pkg/resample"
	"github.com/xaionaro-go/audiosync/pkg/source"
)

// vorbisSource decodes a local Ogg Vorbis file in-process, downmixing
// to mono and resampling to the pipeline rate if needed.
type vorbisSource struct {
	file      *os.File
	reader    *oggvorbis.Reader
	resampler *resample.Resampler
	channels  int

	buf     []float32
	pending []float64
}

var _ source.SampleSource = (*vorbisSource)(nil)

func newVorbisSource(ctx context.Context, path string, sampleRate int) (*vorbisSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q: %w", path, err)
	}
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unable to initialize a vorbis reader for %q: %w", path, err)
	}
	resampler, err := resample.New(r.SampleRate(), sampleRate)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &vorbisSource{
		file:      f,
		reader:    r,
		resampler: resampler,
		channels:  r.Channels(),
		buf:       make([]float32, 4096*r.Channels()),
	}, nil
}

func (s *vorbisSource) ReadSamples(ctx context.Context, dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	for len(s.pending) == 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		n, err := s.reader.Read(s.buf)
		if n > 0 {
			mono := downmix(s.buf[:n], s.channels)
			s.pending = s.resampler.Resample(s.pending, mono)
		}
		if err != nil {
			if err == io.EOF && len(s.pending) > 0 {
				break
			}
			return 0, err
		}
	}

	cnt := copy(dst, s.pending)
	rest := copy(s.pending, s.pending[cnt:])
	s.pending = s.pending[:rest]
	return cnt, nil
}

// downmix averages interleaved channels into mono.
func downmix(in []float32, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(in))
		for i, v := range in {
			out[i] = float64(v)
		}
		return out
	}
	frames := len(in) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(in[i*channels+c])
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func (s *vorbisSource) Close() error {
	return s.file.Close()
}
