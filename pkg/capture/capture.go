// Package capture selects and drives the backend that records what the
// machine is currently playing.
package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"

	"github.com/xaionaro-go/audiosync/pkg/source"
	"github.com/xaionaro-go/audiosync/pkg/source/registry"
)

var (
	lastSuccessfulCaptureFactory       registry.CaptureFactory
	lastSuccessfulCaptureFactoryLocker sync.Mutex
)

func getLastSuccessfulCaptureFactory() registry.CaptureFactory {
	lastSuccessfulCaptureFactoryLocker.Lock()
	defer lastSuccessfulCaptureFactoryLocker.Unlock()
	return lastSuccessfulCaptureFactory
}

// NewAuto walks the registered capture backends in priority order and
// returns the first one that initializes, pings and starts. A factory
// that worked once is tried first on the next call.
func NewAuto(
	ctx context.Context,
	sampleRate int,
) (source.SampleSource, error) {
	if factory := getLastSuccessfulCaptureFactory(); factory != nil {
		src, err := factory.NewCaptureSource(sampleRate)
		if err == nil {
			if err := start(ctx, src); err == nil {
				return src, nil
			}
			_ = src.Close()
		}
	}

	var mErr *multierror.Error
	for _, factory := range registry.CaptureFactories() {
		src, err := factory.NewCaptureSource(sampleRate)
		logger.Debugf(ctx, "initializing capture source %T result is %v", src, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to initialize %T: %w", src, err))
			continue
		}

		err = start(ctx, src)
		logger.Debugf(ctx, "starting capture source %T result is %v", src, err)
		if err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("unable to start %T: %w", src, err))
			_ = src.Close()
			continue
		}

		lastSuccessfulCaptureFactoryLocker.Lock()
		lastSuccessfulCaptureFactory = factory
		lastSuccessfulCaptureFactoryLocker.Unlock()
		return src, nil
	}

	return nil, fmt.Errorf("was unable to initialize any capture backend: %w", mErr.ErrorOrNil())
}

func start(ctx context.Context, src source.CaptureSource) error {
	if err := src.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping: %w", err)
	}
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("unable to start: %w", err)
	}
	return nil
}
