// Copyright 2022 TiKV Project Authors.
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
package ratelimit

import (
	"math"

	"golang.org/x/time/rate"

	"github.com/tikv/throttle/pkg/utils/syncutil"
)

const eps = 1e-8

// RateLimiter is a rate limiter based on `golang.org/x/time/rate` that is
// safe to share between the workers of a process.
type RateLimiter struct {
	mu syncutil.Mutex
	*rate.Limiter
}

// NewRateLimiter returns a new Limiter that allows events up to rate r (it means limiter refill r token per second)
// and permits bursts of at most b tokens.
func NewRateLimiter(r float64, b int) *RateLimiter {
	return &RateLimiter{Limiter: rate.NewLimiter(rate.Limit(r), b)}
}

// NewAttemptLimiter returns a limiter for attempts per second, or nil when
// the rate is not positive. The burst is the rate rounded up, and at least 1.
func NewAttemptLimiter(perSecond float64) *RateLimiter {
	if perSecond <= eps {
		return nil
	}
	return NewRateLimiter(perSecond, int(math.Max(1, math.Ceil(perSecond))))
}

// Allow is same as `rate.Limiter.Allow`.
func (l *RateLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Limiter.Allow()
}
