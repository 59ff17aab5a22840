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

	"github.com/redis/go-redis/v9"

	"github.com/tikv/throttle/pkg/errs"
)

// RedisSource reads the authoritative time from the redis server with TIME,
// so every client of the same server agrees on "now".
type RedisSource struct {
	client redis.UniversalClient
}

// NewRedisSource creates a RedisSource on top of an existing client.
func NewRedisSource(client redis.UniversalClient) *RedisSource {
	return &RedisSource{client: client}
}

// Now implements Source. The server reply has microsecond precision and is
// truncated to milliseconds.
func (s *RedisSource) Now(ctx context.Context) (time.Time, error) {
	now, err := s.client.Time(ctx).Result()
	if err != nil {
		return time.Time{}, errs.ErrClockSource.Wrap(err).GenWithStackByCause()
	}
	return now.Truncate(time.Millisecond), nil
}
