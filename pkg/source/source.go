// Package source defines the backend side of the producer contract: a
// stream of mono samples at the pipeline's fixed rate.
package source

import (
	"context"
	"io"
)

// SampleSource delivers mono float samples at the sample rate it was
// created with. Sources must resample or reject streams of any other
// rate.
type SampleSource interface {
	io.Closer

	// ReadSamples fills dst with the next samples of the stream and
	// returns the count delivered. io.EOF signals a normal end of the
	// stream; any other error is fatal for the source.
	ReadSamples(ctx context.Context, dst []float64) (int, error)
}

// CaptureSource additionally supports a connectivity probe, used by the
// backend auto-selection before committing to a backend.
type CaptureSource interface {
	SampleSource

	Ping(ctx context.Context) error
	Start(ctx context.Context) error
}
