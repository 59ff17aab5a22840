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
package throttle

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/clock"
	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/ratelimit"
)

// Throttle runs operations no more often than its Reserver allows.
type Throttle struct {
	reserver *Reserver
	local    clock.Clock
	limiter  *ratelimit.RateLimiter
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithAttemptLimiter caps the reservation attempts of this process. A nil
// limiter disables the cap.
func WithAttemptLimiter(limiter *ratelimit.RateLimiter) Option {
	return func(t *Throttle) {
		t.limiter = limiter
	}
}

// New creates a Throttle on top of reserver.
func New(reserver *Reserver, opts ...Option) *Throttle {
	t := &Throttle{
		reserver: reserver,
		local:    reserver.local,
		sleep:    sleepWithContext,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Reserver returns the underlying Reserver.
func (t *Throttle) Reserver() *Reserver {
	return t.reserver
}

// Acquire blocks until the caller may proceed. It returns an error matching
// errs.ErrNoPermit when the caller has to try again later, the context error
// when ctx is done while waiting, or the store error when the reservation
// could not be made. A permit reserved before ctx is done is not given back.
func (t *Throttle) Acquire(ctx context.Context) error {
	if t.limiter != nil && !t.limiter.Allow() {
		attemptLimitedCounter.Inc()
		return errs.ErrNoPermit.FastGenByArgs()
	}
	permit, ok, err := t.reserver.Reserve(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNoPermit.FastGenByArgs()
	}
	if permit.Immediate() {
		return nil
	}
	permitWaitHistogram.Observe(permit.WaitDuration().Seconds())
	if err := t.sleep(ctx, permit.WaitDuration()); err != nil {
		return err
	}
	if localNow := clock.UnixMilli(t.local.Now()); permit.Expired(localNow) {
		permitExpiredCounter.Inc()
		log.Warn("reserved permit expired while waiting",
			zap.String("key", t.reserver.Key()),
			zap.Stringer("permit", permit),
			zap.Int64("local-now", localNow))
		return errs.ErrNoPermit.FastGenByArgs()
	}
	return nil
}

// Do runs op once a permit is acquired. op is not run when Acquire fails.
func (t *Throttle) Do(ctx context.Context, op func(context.Context) error) error {
	if err := t.Acquire(ctx); err != nil {
		return err
	}
	return op(ctx)
}

// Call is like Do for operations returning a value.
func Call[T any](ctx context.Context, t *Throttle, op func(context.Context) (T, error)) (T, error) {
	if err := t.Acquire(ctx); err != nil {
		var zero T
		return zero, err
	}
	return op(ctx)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
