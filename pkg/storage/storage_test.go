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
package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/tikv/throttle/pkg/clock"
	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/storage/kv"
	"github.com/tikv/throttle/pkg/utils/configutil"
	"github.com/tikv/throttle/pkg/utils/etcdutil"
)

func adjusted(cfg *Config) *Config {
	cfg.Adjust(nil)
	return cfg
}

func TestAdjust(t *testing.T) {
	re := require.New(t)
	cfg := adjusted(&Config{})
	re.Equal(RedisBackend, cfg.Backend)
	re.Equal(RedisClockSource, cfg.ClockSource)
	re.Equal(defaultRedisAddr, cfg.RedisAddr)
	re.Equal(defaultRequestTimeout, cfg.RequestTimeout.Duration)
	re.NoError(cfg.Validate())

	cfg = adjusted(&Config{Backend: "LevelDB"})
	re.Equal(LevelDBBackend, cfg.Backend)
	re.Equal(SystemClockSource, cfg.ClockSource)
	re.NoError(cfg.Validate())

	var decoded Config
	meta, err := toml.Decode(`
backend = "etcd"
endpoints = ["http://10.0.0.1:2379"]
request-timeout = "500ms"
`, &decoded)
	re.NoError(err)
	decoded.Adjust(configutil.NewConfigMetadata(&meta))
	re.Equal([]string{"http://10.0.0.1:2379"}, decoded.Endpoints)
	re.Equal(500*time.Millisecond, decoded.RequestTimeout.Duration)
	re.Equal(SystemClockSource, decoded.ClockSource)
}

func TestValidate(t *testing.T) {
	re := require.New(t)
	testCases := []struct {
		cfg    *Config
		target error
	}{
		{adjusted(&Config{Backend: "mysql"}), errs.ErrStorageBackend},
		{adjusted(&Config{Backend: MemoryBackend, ClockSource: RedisClockSource}), errs.ErrInvalidConfig},
		{adjusted(&Config{Backend: RedisBackend, ClockSource: "ntp"}), errs.ErrInvalidConfig},
		{adjusted(&Config{Backend: RedisBackend, RedisDB: -1}), errs.ErrInvalidConfig},
	}
	for _, tc := range testCases {
		err := tc.cfg.Validate()
		re.ErrorIs(err, tc.target)
		_, err = Open(tc.cfg)
		re.ErrorIs(err, tc.target)
	}
	cfg := &Config{Backend: EtcdBackend, ClockSource: SystemClockSource}
	re.ErrorIs(cfg.Validate(), errs.ErrInvalidConfig)
}

func testWatermarkRoundTrip(re *require.Assertions, s *Storage) {
	const key = "storage_test_LAST_TIMESTAMP"
	err := s.RunInTxn(context.Background(), func(txn kv.Txn) error {
		return s.SaveWatermarkInTxn(txn, key, 42)
	})
	re.NoError(err)
	watermark, err := s.LoadWatermark(key)
	re.NoError(err)
	re.Equal(int64(42), watermark)
	now, err := s.Source().Now(context.Background())
	re.NoError(err)
	re.False(now.IsZero())
}

func TestOpenMemory(t *testing.T) {
	re := require.New(t)
	s, err := Open(adjusted(&Config{Backend: MemoryBackend}))
	re.NoError(err)
	defer s.Close()
	re.Equal(MemoryBackend, s.Backend())
	testWatermarkRoundTrip(re, s)
}

func TestOpenLevelDB(t *testing.T) {
	re := require.New(t)
	dir := filepath.Join(t.TempDir(), "data")
	s, err := Open(adjusted(&Config{Backend: LevelDBBackend, DataDir: dir}))
	re.NoError(err)
	testWatermarkRoundTrip(re, s)
	re.NoError(s.Close())
}

func TestOpenRedis(t *testing.T) {
	re := require.New(t)
	mr := miniredis.RunT(t)
	mr.SetTime(time.UnixMilli(1_700_000_000_000))
	s, err := Open(adjusted(&Config{Backend: RedisBackend, RedisAddr: mr.Addr()}))
	re.NoError(err)
	defer s.Close()
	testWatermarkRoundTrip(re, s)

	now, err := s.Source().Now(context.Background())
	re.NoError(err)
	re.Equal(int64(1_700_000_000_000), clock.UnixMilli(now))
	raw, err := mr.Get("storage_test_LAST_TIMESTAMP")
	re.NoError(err)
	re.Equal("42", raw)
}

func TestOpenEtcd(t *testing.T) {
	re := require.New(t)
	_, client := etcdutil.NewTestEtcdCluster(t)
	s, err := Open(adjusted(&Config{Backend: EtcdBackend, Endpoints: client.Endpoints()}))
	re.NoError(err)
	defer s.Close()
	testWatermarkRoundTrip(re, s)

	v, err := etcdutil.GetValue(client, "/throttle/storage_test_LAST_TIMESTAMP")
	re.NoError(err)
	re.Equal([]byte("42"), v)
}
