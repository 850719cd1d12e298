package pulseaudio

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/iamcalledrob/circular"
)

// byteQueue moves PCM bytes from the Pulse connection goroutine to the
// producer. Writes never block: when the consumer falls behind far
// enough to fill the queue, the incoming chunk is dropped rather than
// stalling the sound server's stream.
type byteQueue struct {
	locker     sync.Mutex
	buf        *circular.Buffer
	progressed chan struct{}
	closed     bool
	dropped    uint64
}

func newByteQueue(size int) *byteQueue {
	return &byteQueue{
		buf:        circular.NewBuffer(size),
		progressed: make(chan struct{}),
	}
}

var _ io.Writer = (*byteQueue)(nil)

func (q *byteQueue) Write(p []byte) (int, error) {
	q.locker.Lock()
	defer q.locker.Unlock()
	if q.closed {
		return 0, io.ErrClosedPipe
	}

	w, err := q.buf.Write(p)
	if err != nil {
		if errors.Is(err, circular.ErrNoSpace) {
			q.dropped += uint64(len(p))
			return len(p), nil
		}
		return w, err
	}

	oldCh := q.progressed
	q.progressed = make(chan struct{})
	close(oldCh)
	return w, nil
}

// ReadContext returns at least one byte unless the queue is closed and
// drained (io.EOF) or the context ends first.
func (q *byteQueue) ReadContext(ctx context.Context, p []byte) (int, error) {
	for {
		q.locker.Lock()
		n, err := q.buf.Read(p)
		waitCh := q.progressed
		closed := q.closed
		q.locker.Unlock()

		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if closed {
			return 0, io.EOF
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-waitCh:
		}
	}
}

func (q *byteQueue) Close() error {
	q.locker.Lock()
	defer q.locker.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.progressed)
	return nil
}

func (q *byteQueue) Dropped() uint64 {
	q.locker.Lock()
	defer q.locker.Unlock()
	return q.dropped
}
