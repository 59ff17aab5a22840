// Copyright 2024 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	flag "github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/api"
	"github.com/tikv/throttle/pkg/clock"
	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/ratelimit"
	"github.com/tikv/throttle/pkg/storage"
	"github.com/tikv/throttle/pkg/throttle"
	"github.com/tikv/throttle/pkg/utils/logutil"
	"github.com/tikv/throttle/pkg/utils/metricutil"
	"github.com/tikv/throttle/pkg/versioninfo"
	"github.com/tikv/throttle/pkg/workload"
)

func main() {
	cfg := newConfig()
	err := cfg.Parse(os.Args[1:])

	if cfg.version {
		versioninfo.Print()
		exit(0)
	}

	defer logutil.LogPanic()

	switch errors.Cause(err) {
	case nil:
	case flag.ErrHelp:
		exit(0)
	default:
		log.Fatal("parse cmd flags error", errs.ZapError(err))
	}

	// New zap logger
	err = cfg.SetupLogger()
	if err == nil {
		log.ReplaceGlobals(cfg.logger, cfg.logProps)
	} else {
		log.Fatal("initialize logger error", errs.ZapError(err))
	}
	// Flushing any buffered log entries
	defer log.Sync()

	versioninfo.Log("throttle-demo")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	received := cancelOnSignal(sc, cancel)

	stats, err := run(ctx, cfg)
	if err != nil {
		log.Fatal("run throttle demo failed", errs.ZapError(err))
	}
	log.Info("throttle demo finished", zap.Reflect("stats", stats))

	switch sig := received(); sig {
	case nil, syscall.SIGTERM:
		exit(0)
	default:
		log.Info("got signal to exit", zap.String("signal", sig.String()))
		exit(1)
	}
}

// cancelOnSignal calls cancel once a signal arrives on sc. The returned
// function reports that signal, or nil if none has arrived.
func cancelOnSignal(sc <-chan os.Signal, cancel context.CancelFunc) func() os.Signal {
	got := make(chan os.Signal, 1)
	go func() {
		got <- <-sc
		cancel()
	}()
	return func() os.Signal {
		select {
		case sig := <-got:
			return sig
		default:
			return nil
		}
	}
}

// run drives the workers until ctx is done or the configured duration has
// passed.
func run(ctx context.Context, cfg *config) (stats workload.Stats, err error) {
	if cfg.Duration.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration.Duration)
		defer cancel()
	}

	store, err := storage.Open(&cfg.Storage)
	if err != nil {
		return stats, err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	log.Info("simulating workers",
		zap.Int("workers", cfg.Workers),
		zap.String("backend", store.Backend()),
		zap.String("key", cfg.Throttle.WatermarkKey()),
		zap.Duration("min-interval", cfg.Throttle.MinInterval.Duration),
		zap.Int64("max-reserved-permits", cfg.Throttle.MaxReservedPermits))

	reserver := throttle.NewReserver(store, store.Source(), clock.System{}, &cfg.Throttle)
	th := throttle.New(reserver,
		throttle.WithAttemptLimiter(ratelimit.NewAttemptLimiter(cfg.Throttle.MaxAttemptsPerSecond)))
	runner := workload.NewRunner(th, cfg.Workers, cfg.Throttle.MinInterval.Duration, workload.LogRequest)

	if cfg.StatusAddr != "" {
		svr, serr := api.StartServer(cfg.StatusAddr, api.NewService(reserver, store.Backend(), runner.Stats))
		if serr != nil {
			return stats, serr
		}
		defer func() {
			err = multierr.Append(err, svr.Close())
		}()
	}

	pushCtx, stopPush := context.WithCancel(ctx)
	pushDone := metricutil.Push(pushCtx, &cfg.Metric)
	defer func() {
		stopPush()
		if pushDone != nil {
			<-pushDone
		}
	}()

	err = runner.Run(ctx)
	return runner.Stats(), err
}

func exit(code int) {
	log.Sync()
	os.Exit(code)
}
