// Package audiosync exposes the whole pipeline behind two calls: Sync
// for callers that want the full outcome, GetLag for embedding hosts
// that only want a number.
//
// The pipeline fills two buffers concurrently (the downloaded reference
// stream and the capture of what the machine is playing) and
// cross-correlates growing prefixes of both until the match confidence
// crosses the threshold.
package audiosync

import (
	"context"

	"github.com/xaionaro-go/audiosync/pkg/capture"
	"github.com/xaionaro-go/audiosync/pkg/correlator/implementations/godsp"
	"github.com/xaionaro-go/audiosync/pkg/download"
	"github.com/xaionaro-go/audiosync/pkg/ladder"
	"github.com/xaionaro-go/audiosync/pkg/matcher"
	"github.com/xaionaro-go/audiosync/pkg/source"
	"github.com/xaionaro-go/audiosync/pkg/supervisor"

	_ "github.com/xaionaro-go/audiosync/pkg/capture/backends/portaudio"
	_ "github.com/xaionaro-go/audiosync/pkg/capture/backends/pulseaudio"
)

const (
	// SampleRate is fixed at build time; every interval constant is a
	// multiple of it. Sources resample or reject anything else.
	SampleRate = 48000

	// MinConfidence is the default threshold on the normalized
	// correlation peak. A full-overlap match scores close to 1.0; a
	// stream that only overlaps partially scores roughly the square
	// root of the overlap fraction.
	MinConfidence = 0.6

	// LagUnknown is what GetLag returns on no-match or failure.
	LagUnknown = -1 << 31
)

const (
	defaultLadderStepSeconds = 3
	defaultLadderRungs       = 5
)

// DefaultLadder is 3s through 15s in 3s steps.
func DefaultLadder() ladder.Ladder {
	l, err := ladder.New(defaultLadderStepSeconds*SampleRate, defaultLadderRungs)
	if err != nil {
		panic(err)
	}
	return l
}

// Options returns the default configuration for syncing against the
// given descriptor (URL or local media file). Callers may adjust the
// returned value before passing it to supervisor.Sync.
func Options(descriptor string) supervisor.Options {
	return supervisor.Options{
		Ladder:     DefaultLadder(),
		Threshold:  MinConfidence,
		SampleRate: SampleRate,
		Correlator: godsp.New(),
		Download: func(ctx context.Context) (source.SampleSource, error) {
			return download.New(ctx, descriptor, SampleRate)
		},
		Capture: func(ctx context.Context) (source.SampleSource, error) {
			return capture.NewAuto(ctx, SampleRate)
		},
	}
}

// Sync runs one match attempt against the descriptor with the default
// configuration.
func Sync(ctx context.Context, descriptor string) matcher.Result {
	return supervisor.Sync(ctx, Options(descriptor))
}

// GetLag is the embedding surface: it returns the matched lag in
// samples (positive when the local playback is behind the reference),
// or LagUnknown when there was no match or the run failed. No state is
// retained between calls.
func GetLag(ctx context.Context, descriptor string) int {
	result := Sync(ctx, descriptor)
	if result.Outcome != matcher.OutcomeMatched {
		return LagUnknown
	}
	return result.Lag
}
