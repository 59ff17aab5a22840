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
package workload

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/throttle"
)

// fallbackBackoff bounds the backoff when the throttle has no interval, so a
// failing store is not hammered.
const fallbackBackoff = 100 * time.Millisecond

// Op is the throttled operation of a worker.
type Op func(ctx context.Context, worker int) error

// LogRequest is a fake request that only logs.
func LogRequest(_ context.Context, worker int) error {
	log.Info("request for worker", zap.Int("worker", worker))
	return nil
}

// Stats is a snapshot of the outcomes of a run.
type Stats struct {
	Granted int64 `json:"granted"`
	Denied  int64 `json:"denied"`
	Failed  int64 `json:"failed"`
}

// Runner runs a number of workers that keep calling a throttled operation.
// A worker that is denied a permit backs off for a random duration up to
// the max backoff and tries again.
type Runner struct {
	throttle   *throttle.Throttle
	workers    int
	maxBackoff time.Duration
	op         Op
	// random returns a number in [0, n].
	random func(n int64) int64

	granted atomic.Int64
	denied  atomic.Int64
	failed  atomic.Int64
}

// NewRunner creates a Runner. maxBackoff is usually the minimum interval of
// the throttle.
func NewRunner(th *throttle.Throttle, workers int, maxBackoff time.Duration, op Op) *Runner {
	if maxBackoff <= 0 {
		maxBackoff = fallbackBackoff
	}
	return &Runner{
		throttle:   th,
		workers:    workers,
		maxBackoff: maxBackoff,
		op:         op,
		random: func(n int64) int64 {
			return rand.Int64N(n + 1)
		},
	}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	log.Info("start workers", zap.Int("workers", r.workers), zap.Duration("max-backoff", r.maxBackoff))
	g, ctx := errgroup.WithContext(ctx)
	for i := range r.workers {
		g.Go(func() error {
			r.work(ctx, i)
			return nil
		})
	}
	err := g.Wait()
	log.Info("workers stopped", zap.Reflect("stats", r.Stats()))
	return err
}

func (r *Runner) work(ctx context.Context, worker int) {
	log.Info("starting task", zap.Int("worker", worker))
	for {
		err := r.throttle.Do(ctx, func(ctx context.Context) error {
			return r.op(ctx, worker)
		})
		switch {
		case err == nil:
			r.granted.Add(1)
			if ctx.Err() != nil {
				return
			}
			continue
		case errs.IsNoPermit(err):
			r.denied.Add(1)
		case ctx.Err() != nil:
			// Stopped while waiting for a permit.
			return
		default:
			r.failed.Add(1)
			log.Error("throttled request failed", zap.Int("worker", worker), errs.ZapError(err))
		}
		if !r.backoff(ctx) {
			return
		}
	}
}

func (r *Runner) backoff(ctx context.Context) bool {
	timer := time.NewTimer(time.Duration(r.random(int64(r.maxBackoff))))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Stats returns the outcomes so far.
func (r *Runner) Stats() Stats {
	return Stats{
		Granted: r.granted.Load(),
		Denied:  r.denied.Load(),
		Failed:  r.failed.Load(),
	}
}
