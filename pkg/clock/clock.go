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
package clock

import (
	"context"
	"time"
)

// Source provides the authoritative time shared by every participant of a
// throttled resource. It may need a network round trip.
type Source interface {
	Now(ctx context.Context) (time.Time, error)
}

// Clock is the process-local wall clock. It is compared against the
// authoritative time to detect skew and scheduling delay, so it must not be
// the monotonic reading.
type Clock interface {
	Now() time.Time
}

// System is the local wall clock of the process.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().Round(0)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (time.Time, error)

// Now implements Source.
func (f SourceFunc) Now(ctx context.Context) (time.Time, error) {
	return f(ctx)
}

// FromClock uses a local clock as the authoritative source. It is only
// sound when every participant runs in one process or the hosts are
// synchronised well within the slop of a reserved permit.
func FromClock(c Clock) Source {
	return SourceFunc(func(ctx context.Context) (time.Time, error) {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}
		return c.Now(), nil
	})
}

// NewSystemSource returns a Source backed by the process clock.
func NewSystemSource() Source {
	return FromClock(System{})
}

// UnixMilli converts t to the millisecond domain used by permits.
func UnixMilli(t time.Time) int64 {
	return t.UnixMilli()
}
