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
	"fmt"
	"math"
	"time"
)

// PositiveHorizon is the expiry of a permit that never expires.
const PositiveHorizon int64 = math.MaxInt64

// Permit is the outcome of a granted reservation. All fields are in milliseconds.
type Permit struct {
	// TimeToWaitMs is how long the caller has to wait, counted from the
	// authoritative time the decision was made at.
	TimeToWaitMs int64 `json:"time_to_wait_ms"`
	// ValidAt is the authoritative time the permit becomes valid at. It is
	// also the new watermark.
	ValidAt int64 `json:"valid_at"`
	// ExpiresAt is a local clock reading. A caller that wakes up later than
	// this must not use the permit.
	ExpiresAt int64 `json:"expires_at"`
}

// Immediate reports whether the permit can be used right away.
func (p Permit) Immediate() bool {
	return p.TimeToWaitMs == 0
}

// WaitDuration returns TimeToWaitMs as a time.Duration.
func (p Permit) WaitDuration() time.Duration {
	return time.Duration(p.TimeToWaitMs) * time.Millisecond
}

// Expired reports whether the local time localNowMs is past the expiry.
func (p Permit) Expired(localNowMs int64) bool {
	return localNowMs > p.ExpiresAt
}

func (p Permit) String() string {
	expiresAt := "never"
	if p.ExpiresAt != PositiveHorizon {
		expiresAt = fmt.Sprint(p.ExpiresAt)
	}
	return fmt.Sprintf("Permit{wait: %dms, valid-at: %d, expires-at: %s}", p.TimeToWaitMs, p.ValidAt, expiresAt)
}

// slop is the grace added to the expiry of a reserved permit: a tenth of the
// interval, rounded half to even.
func slop(minIntervalMs int64) int64 {
	return int64(math.RoundToEven(0.1 * float64(minIntervalMs)))
}

// Decide computes the permit for a caller asking at authoritative time nowMs
// while the last granted permit is valid at watermarkMs. localNowMs is the
// local clock reading used to set the expiry of reserved permits.
// It returns false when the caller has to come back later.
func Decide(minIntervalMs, maxReservedPermits, nowMs, watermarkMs, localNowMs int64) (Permit, bool) {
	if minIntervalMs <= 0 {
		// No throttling. The watermark must not move backwards though.
		return Permit{ValidAt: max(nowMs, watermarkMs), ExpiresAt: PositiveHorizon}, true
	}
	nextPermitAt := watermarkMs + minIntervalMs
	if nowMs >= nextPermitAt {
		return Permit{ValidAt: nowMs, ExpiresAt: PositiveHorizon}, true
	}
	// The number of intervals already promised beyond now.
	reserved := max(0, (watermarkMs-nowMs)/minIntervalMs)
	if reserved >= maxReservedPermits {
		return Permit{}, false
	}
	timeToWait := nextPermitAt - nowMs
	return Permit{
		TimeToWaitMs: timeToWait,
		ValidAt:      nextPermitAt,
		ExpiresAt:    localNowMs + timeToWait + slop(minIntervalMs),
	}, true
}
