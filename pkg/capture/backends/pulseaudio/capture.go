package pulseaudio

import (
	"context"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/xaionaro-go/datacounter"

	"github.com/xaionaro-go/audiosync/pkg/source"
)

const (
	// queueDurationSeconds is how much audio the queue between the
	// Pulse connection and the producer can hold before chunks get
	// dropped.
	queueDurationSeconds = 2
)

// CaptureSource records the monitor of the default sink: whatever the
// machine is currently playing.
type CaptureSource struct {
	SampleRate  int
	PulseClient *pulse.Client

	closeCtx context.Context
	stream   *pulse.RecordStream
	queue    *byteQueue
	counter  *datacounter.WriterCounter
	pending  []byte
	scratch  []byte
}

var _ source.CaptureSource = (*CaptureSource)(nil)

func NewCaptureSource(sampleRate int) (*CaptureSource, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: got %d", sampleRate)
	}
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}
	return &CaptureSource{
		SampleRate:  sampleRate,
		PulseClient: c,
		closeCtx:    context.Background(),
	}, nil
}

func (s *CaptureSource) Ping(ctx context.Context) error {
	_, err := s.PulseClient.DefaultSink()
	return err
}

func (s *CaptureSource) Start(ctx context.Context) error {
	if s.stream != nil {
		return fmt.Errorf("the capture is already started")
	}

	sink, err := s.PulseClient.DefaultSink()
	if err != nil {
		return fmt.Errorf("unable to get the default sink: %w", err)
	}

	s.queue = newByteQueue(s.SampleRate * 4 * queueDurationSeconds)
	s.counter = datacounter.NewWriterCounter(s.queue)
	s.scratch = make([]byte, 65536)

	stream, err := s.PulseClient.NewRecord(
		&pulseWriter{Writer: s.counter},
		pulse.RecordMonitor(sink),
		pulse.RecordSampleRate(s.SampleRate),
		pulse.RecordChannels(proto.ChannelMap{proto.ChannelMono}),
	)
	if err != nil {
		return fmt.Errorf("unable to initialize a record stream on the monitor of %q: %w", sink.Name(), err)
	}

	stream.Start()
	if stream.Error() != nil {
		return fmt.Errorf("an error occurred during recording: %w", stream.Error())
	}
	logger.Debugf(ctx, "recording the monitor of sink %q at %dHz", sink.Name(), s.SampleRate)

	s.closeCtx = ctx
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

	for len(s.pending) < 4 {
		if err := s.stream.Error(); err != nil {
			return 0, fmt.Errorf("an error occurred during recording: %w", err)
		}
		n, err := s.queue.ReadContext(ctx, s.scratch)
		if n > 0 {
			s.pending = append(s.pending, s.scratch[:n]...)
		}
		if err != nil {
			return 0, err
		}
	}

	cnt := len(s.pending) / 4
	if cnt > len(dst) {
		cnt = len(dst)
	}
	source.SamplesFromFloat32LE(s.pending[:cnt*4], dst)
	rest := copy(s.pending, s.pending[cnt*4:])
	s.pending = s.pending[:rest]
	return cnt, nil
}

func (s *CaptureSource) Close() (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	if s.queue != nil {
		_ = s.queue.Close()
		if dropped := s.queue.Dropped(); dropped > 0 {
			logger.Warnf(s.closeCtx, "the capture queue dropped %d bytes", dropped)
		}
		logger.Debugf(s.closeCtx, "received %d bytes from the sound server", s.counter.Count())
	}
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	s.PulseClient.Close()
	return
}

type pulseWriter struct {
	io.Writer
}

var _ pulse.Writer = (*pulseWriter)(nil)

func (pulseWriter) Format() byte {
	return proto.FormatFloat32LE
}
