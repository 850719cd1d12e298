// Package supervisor owns a run's lifecycle: it allocates the buffers,
// spawns the two producers, drives the matcher and makes sure
// everything is stopped, joined and accounted for on the way out.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"

	"github.com/xaionaro-go/audiosync/pkg/correlator"
	"github.com/xaionaro-go/audiosync/pkg/ladder"
	"github.com/xaionaro-go/audiosync/pkg/matcher"
	"github.com/xaionaro-go/audiosync/pkg/producer"
	"github.com/xaionaro-go/audiosync/pkg/samplebuf"
	"github.com/xaionaro-go/audiosync/pkg/source"
)

// SourceFactory builds a producer's backend. It runs on the producer's
// goroutine, so a slow connect does not hold up the other stream.
type SourceFactory func(ctx context.Context) (source.SampleSource, error)

type Options struct {
	Ladder     ladder.Ladder
	Threshold  float64
	SampleRate int
	Correlator correlator.Correlator

	// Download produces the reference stream, Capture the comparison
	// stream; a positive lag in the result means the capture is behind
	// the download.
	Download SourceFactory
	Capture  SourceFactory

	// JoinTimeout bounds how long producers get to exit after the stop
	// flag is raised. Zero means twice the wall-clock duration of the
	// longest rung.
	JoinTimeout time.Duration
}

func (opts Options) joinTimeout() time.Duration {
	if opts.JoinTimeout > 0 {
		return opts.JoinTimeout
	}
	return 2 * time.Duration(opts.Ladder.Capacity()) * time.Second / time.Duration(opts.SampleRate)
}

// Sync runs one full match attempt and reports the terminal outcome.
// Setup problems (an invalid ladder, a buffer that cannot be
// allocated) surface as OutcomeFailed with the reason set.
func Sync(ctx context.Context, opts Options) matcher.Result {
	if err := opts.Ladder.Validate(); err != nil {
		return failure(fmt.Errorf("invalid ladder: %w", err))
	}
	if opts.SampleRate <= 0 {
		return failure(fmt.Errorf("sample rate must be positive: got %d", opts.SampleRate))
	}
	if opts.Correlator == nil {
		return failure(fmt.Errorf("a correlator is mandatory"))
	}
	if opts.Download == nil || opts.Capture == nil {
		return failure(fmt.Errorf("both source factories are mandatory"))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := samplebuf.NewSignal()
	reference, err := samplebuf.NewBuffer(sig, opts.Ladder.Capacity())
	if err != nil {
		return failure(err)
	}
	comparison, err := samplebuf.NewBuffer(sig, opts.Ladder.Capacity())
	if err != nil {
		return failure(err)
	}

	// An externally cancelled context stops the run without a reason,
	// so it ends as a no-match rather than as a failure.
	observability.Go(ctx, func(ctx context.Context) {
		<-ctx.Done()
		sig.Stop(nil)
	})

	downloadDone := runProducer(ctx, "download", opts.Download, reference, opts.Ladder, sig)
	captureDone := runProducer(ctx, "capture", opts.Capture, comparison, opts.Ladder, sig)

	result := matcher.Run(ctx, sig, reference, comparison, opts.Ladder, opts.Threshold, opts.Correlator)

	sig.Stop(nil)
	cancel()

	result.Leaked = join(ctx, opts.joinTimeout(), map[string]<-chan struct{}{
		"download": downloadDone,
		"capture":  captureDone,
	})

	if result.Outcome != matcher.OutcomeMatched {
		if reason := sig.Reason(); reason != nil {
			leaked := result.Leaked
			result = failure(reason)
			result.Leaked = leaked
		}
	}
	logger.Infof(ctx, "the run finished: %v", result.Outcome)
	return result
}

func runProducer(
	ctx context.Context,
	name string,
	factory SourceFactory,
	buf *samplebuf.Buffer,
	l ladder.Ladder,
	sig *samplebuf.Signal,
) <-chan struct{} {
	done := make(chan struct{})
	observability.Go(ctx, func(ctx context.Context) {
		defer close(done)

		src, err := factory(ctx)
		if err != nil {
			sig.Stop(fmt.Errorf("unable to initialize the %s source: %w", name, err))
			buf.Checkpoint()
			return
		}
		defer func() {
			if err := src.Close(); err != nil {
				logger.Errorf(ctx, "unable to close the %s source: %v", name, err)
			}
		}()

		if err := producer.Pump(ctx, name, src, buf, l, sig); err != nil {
			logger.Errorf(ctx, "the %s producer failed: %v", name, err)
		}
	})
	return done
}

// join waits for every producer with a single shared deadline and
// returns the names of the ones that did not make it.
func join(ctx context.Context, timeout time.Duration, producers map[string]<-chan struct{}) []string {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var leaked []string
	expired := false
	for name, done := range producers {
		if !expired {
			select {
			case <-done:
				continue
			case <-deadline.C:
				expired = true
			}
		}
		// The deadline is shared: once it fired, the remaining
		// producers only get a non-blocking check.
		select {
		case <-done:
		default:
			logger.Errorf(ctx, "the %s producer did not exit within %v", name, timeout)
			leaked = append(leaked, name)
		}
	}
	return leaked
}

func failure(reason error) matcher.Result {
	return matcher.Result{
		Outcome: matcher.OutcomeFailed,
		Reason:  reason,
	}
}
