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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tikv/throttle/pkg/errs"
)

func TestManual(t *testing.T) {
	re := require.New(t)
	m := NewManualMilli(1000)
	re.Equal(int64(1000), UnixMilli(m.Now()))
	m.Advance(1500 * time.Millisecond)
	re.Equal(int64(2500), UnixMilli(m.Now()))
	m.Set(time.UnixMilli(10))
	re.Equal(int64(10), UnixMilli(m.Now()))

	src := NewManualSource(m)
	now, err := src.Now(context.Background())
	re.NoError(err)
	re.Equal(int64(10), UnixMilli(now))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Now(ctx)
	re.ErrorIs(err, context.Canceled)
}

func TestSystemSource(t *testing.T) {
	re := require.New(t)
	before := time.Now()
	now, err := NewSystemSource().Now(context.Background())
	re.NoError(err)
	re.False(now.Before(before.Truncate(time.Millisecond)))
	re.WithinDuration(System{}.Now(), now, time.Second)
}

func TestRedisSource(t *testing.T) {
	re := require.New(t)
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	s.SetTime(time.UnixMicro(1_700_000_000_123_456))
	src := NewRedisSource(client)
	now, err := src.Now(context.Background())
	re.NoError(err)
	re.Equal(int64(1_700_000_000_123), UnixMilli(now))

	s.Close()
	_, err = src.Now(context.Background())
	re.ErrorIs(err, errs.ErrClockSource)
}
