package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"

	"github.com/xaionaro-go/audiosync/pkg/audiosync"
	"github.com/xaionaro-go/audiosync/pkg/matcher"
	"github.com/xaionaro-go/audiosync/pkg/supervisor"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	minConfidence := pflag.Float64("min-confidence", audiosync.MinConfidence, "confidence threshold for accepting a match")
	joinTimeout := pflag.Duration("join-timeout", 0, "how long producers get to exit after a stop (0 means twice the longest interval)")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	pflag.Parse()
	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s URL\n", os.Args[0])
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) {
			l.Error(http.ListenAndServe(*netPprofAddr, nil))
		})
	}

	logger.Infof(ctx, "starting...")
	opts := audiosync.Options(pflag.Arg(0))
	opts.Threshold = *minConfidence
	opts.JoinTimeout = *joinTimeout

	started := time.Now()
	result := supervisor.Sync(ctx, opts)
	logger.Debugf(ctx, "finished in %v", time.Since(started))
	logger.Tracef(ctx, "result: %s", spew.Sdump(result))
	for _, name := range result.Leaked {
		logger.Errorf(ctx, "the %s producer leaked", name)
	}

	switch result.Outcome {
	case matcher.OutcomeMatched:
		// Samples internally, milliseconds at this boundary.
		lagMs := float64(result.Lag) * 1000 / audiosync.SampleRate
		fmt.Printf("RESULT: lag=%f, confidence=%f\n", lagMs, result.Confidence)
	case matcher.OutcomeNoMatch:
		logger.Infof(ctx, "no match")
	case matcher.OutcomeFailed:
		logger.Errorf(ctx, "the run failed: %v", result.Reason)
		belt.Flush(ctx)
		os.Exit(1)
	}
}
