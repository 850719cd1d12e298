package portaudio

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"

	"github.com/xaionaro-go/audiosync/pkg/source"
)

const (
	ReadBufferSize = time.Millisecond * 100
)

type CaptureSource struct {
	SampleRate int

	stream  *portaudio.Stream
	buf     []float32
	pending []float64
}

var _ source.CaptureSource = (*CaptureSource)(nil)

func NewCaptureSource(sampleRate int) (*CaptureSource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: got %d", sampleRate)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &CaptureSource{
		SampleRate: sampleRate,
	}, nil
}

func (s *CaptureSource) Ping(ctx context.Context) error {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "device info: %#+v", info)
	return nil
}

func (s *CaptureSource) Start(ctx context.Context) error {
	if s.stream != nil {
		return fmt.Errorf("the capture is already started")
	}

	bufferItemsCount := int(ReadBufferSize.Seconds() * float64(s.SampleRate))
	s.buf = make([]float32, bufferItemsCount)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(s.SampleRate), bufferItemsCount, s.buf)
	if err != nil {
		return fmt.Errorf("unable to open the default input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return fmt.Errorf("unable to start the stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *CaptureSource) ReadSamples(ctx context.Context, dst []float64) (int, error) {
	if s.stream == nil {
		return 0, fmt.Errorf("the capture is not started")
	}
	if len(dst) == 0 {
		return 0, nil
	}

	// PortAudio reads fill the whole chunk; whatever does not fit into
	// dst is kept for the next call.
	for len(s.pending) == 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		if err := s.stream.Read(); err != nil {
			return 0, fmt.Errorf("unable to read: %w", err)
		}
		for _, v := range s.buf {
			s.pending = append(s.pending, float64(v))
		}
	}

	cnt := copy(dst, s.pending)
	rest := copy(s.pending, s.pending[cnt:])
	s.pending = s.pending[:rest]
	return cnt, nil
}

func (s *CaptureSource) Close() error {
	if s.stream != nil {
		_ = s.stream.Abort()
		_ = s.stream.Close()
		s.stream = nil
	}
	return portaudio.Terminate()
}
