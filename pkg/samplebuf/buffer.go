package samplebuf

import (
	"errors"
	"fmt"
)

var ErrOverflow = errors.New("the buffer is full")

// Buffer is a fixed-capacity, append-only store of mono samples with a
// monotonically non-decreasing watermark. Exactly one producer writes;
// any number of readers may read indices below the watermark without
// holding the lock, because finalized samples are never mutated.
type Buffer struct {
	signal *Signal
	data   []float64

	// watermark is guarded by signal's mutex. The sample storage itself
	// is not: slots at or above the watermark are invisible to readers
	// until the watermark moves past them.
	watermark int
}

func NewBuffer(signal *Signal, capacity int) (*Buffer, error) {
	if signal == nil {
		return nil, fmt.Errorf("a signal is mandatory")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive: got %d", capacity)
	}
	return &Buffer{
		signal: signal,
		data:   make([]float64, capacity),
	}, nil
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

func (b *Buffer) Len() int {
	b.signal.locker.Lock()
	defer b.signal.locker.Unlock()
	return b.watermark
}

// Append copies samples into the storage after the watermark and then
// advances it. Only the single producer may call this. It fails with
// ErrOverflow (copying nothing) if the samples do not fit.
func (b *Buffer) Append(samples []float64) error {
	b.signal.locker.Lock()
	n := b.watermark
	b.signal.locker.Unlock()

	if n+len(samples) > len(b.data) {
		return fmt.Errorf("%w: %d + %d > %d", ErrOverflow, n, len(samples), len(b.data))
	}
	copy(b.data[n:], samples)

	b.signal.locker.Lock()
	b.watermark = n + len(samples)
	b.signal.locker.Unlock()
	return nil
}

// Checkpoint wakes everybody waiting on the signal. The producer calls
// it whenever its watermark reaches a ladder rung, and once more when it
// exits.
func (b *Buffer) Checkpoint() {
	b.signal.locker.Lock()
	defer b.signal.locker.Unlock()
	b.signal.cond.Broadcast()
}

// ReadPrefix returns a read-only view of the first n finalized samples.
// The caller must have verified Len() >= n beforehand; the view stays
// valid and immutable for the rest of the run.
func (b *Buffer) ReadPrefix(n int) []float64 {
	return b.data[:n:n]
}
