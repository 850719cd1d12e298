// Package producer implements the task both stream adapters run: move
// samples from a backend into a shared buffer, checkpoint at every
// ladder rung and honour the run's stop flag.
package producer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/xaionaro-go/audiosync/pkg/ladder"
	"github.com/xaionaro-go/audiosync/pkg/samplebuf"
	"github.com/xaionaro-go/audiosync/pkg/source"
)

// ReadChunkSize is how many samples are requested from the backend per
// read: 100ms at the nominal 48kHz rate. It bounds how stale the stop
// flag can get between polls.
const ReadChunkSize = 4800

// Pump appends src's samples to buf until the buffer is full, the
// stream ends or the run is stopped, whichever happens first. It
// broadcasts whenever the watermark reaches the next unreached ladder
// rung, and once more on exit.
//
// A stream that ends before the first rung is a fatal adapter failure
// and stops the run with a reason; a stream that ends later stops the
// run without one (rungs beyond the delivered data can never be
// reached by definition, but the ones already covered stay
// evaluatable).
func Pump(
	ctx context.Context,
	name string,
	src source.SampleSource,
	buf *samplebuf.Buffer,
	l ladder.Ladder,
	sig *samplebuf.Signal,
) error {
	defer buf.Checkpoint()

	chunk := make([]float64, ReadChunkSize)
	nextRung := 0
	for {
		if sig.Stopped() {
			logger.Debugf(ctx, "%s: the run was stopped", name)
			return nil
		}

		dst := chunk
		if room := buf.Cap() - buf.Len(); room == 0 {
			logger.Debugf(ctx, "%s: the buffer is full", name)
			return nil
		} else if room < len(dst) {
			dst = dst[:room]
		}

		n, err := src.ReadSamples(ctx, dst)
		if n > 0 {
			if appendErr := buf.Append(dst[:n]); appendErr != nil {
				appendErr = fmt.Errorf("%s: %w", name, appendErr)
				sig.Stop(appendErr)
				return appendErr
			}
			for nextRung < len(l) && buf.Len() >= l[nextRung] {
				logger.Debugf(ctx, "%s: reached rung %d (%d samples)", name, nextRung, l[nextRung])
				buf.Checkpoint()
				nextRung++
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return endOfStream(ctx, name, buf, l, sig)
			}
			if ctx.Err() != nil {
				logger.Debugf(ctx, "%s: the context was closed", name)
				return nil
			}
			err = fmt.Errorf("%s: %w", name, err)
			sig.Stop(err)
			return err
		}
	}
}

func endOfStream(
	ctx context.Context,
	name string,
	buf *samplebuf.Buffer,
	l ladder.Ladder,
	sig *samplebuf.Signal,
) error {
	got := buf.Len()
	if got < l[0] && !sig.Stopped() && ctx.Err() == nil {
		err := fmt.Errorf("%s: the stream ended after %d samples, before the first rung (%d)", name, got, l[0])
		sig.Stop(err)
		return err
	}
	logger.Debugf(ctx, "%s: the stream ended at %d samples", name, got)
	sig.Stop(nil)
	return nil
}
