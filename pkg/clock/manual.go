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
	"time"

	"github.com/tikv/throttle/pkg/utils/syncutil"
)

// Manual is a Clock whose time only moves when told to.
type Manual struct {
	mu  syncutil.Mutex
	now time.Time
}

// NewManual creates a Manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// NewManualMilli creates a Manual clock starting at the given unix milliseconds.
func NewManualMilli(ms int64) *Manual {
	return NewManual(time.UnixMilli(ms))
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set jumps to t. Moving backwards is allowed.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// NewManualSource returns an authoritative Source driven by m.
func NewManualSource(m *Manual) Source {
	return FromClock(m)
}
