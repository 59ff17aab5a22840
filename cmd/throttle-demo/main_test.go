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
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tikv/throttle/pkg/api"
	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/storage"
	"github.com/tikv/throttle/pkg/utils/tempurl"
	"github.com/tikv/throttle/pkg/utils/testutil"
)

func writeConfigFile(re *require.Assertions, dir, content string) string {
	path := filepath.Join(dir, "throttle.toml")
	re.NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseDefault(t *testing.T) {
	re := require.New(t)
	cfg := newConfig()
	re.NoError(cfg.Parse(nil))
	re.Equal(3, cfg.Workers)
	re.Zero(cfg.Duration.Duration)
	re.Equal("info", cfg.Log.Level)
	re.Equal("text", cfg.Log.Format)
	re.Equal(storage.RedisBackend, cfg.Storage.Backend)
	re.Equal(storage.RedisClockSource, cfg.Storage.ClockSource)
	re.Equal(3*time.Second, cfg.Throttle.MinInterval.Duration)
	re.Equal("throttle-demo", cfg.Metric.PushJob)
}

func TestParseFileAndFlags(t *testing.T) {
	re := require.New(t)
	path := writeConfigFile(re, t.TempDir(), `
workers = 5
duration = "1m"

[log]
level = "debug"

[storage]
backend = "leveldb"
data-dir = "/tmp/throttle"

[throttle]
min-interval = "2s"
max-reserved-permits = 2
resource = "search"
`)
	cfg := newConfig()
	re.NoError(cfg.Parse([]string{"--config", path, "--workers", "7", "--max-reserved-permits=4"}))
	// Flags win over the file.
	re.Equal(7, cfg.Workers)
	re.Equal(int64(4), cfg.Throttle.MaxReservedPermits)
	re.Equal(time.Minute, cfg.Duration.Duration)
	re.Equal("debug", cfg.Log.Level)
	re.Equal(storage.LevelDBBackend, cfg.Storage.Backend)
	re.Equal(storage.SystemClockSource, cfg.Storage.ClockSource)
	re.Equal(2*time.Second, cfg.Throttle.MinInterval.Duration)
	re.Equal("REDIS_THROTTLE_search_LAST_TIMESTAMP", cfg.Throttle.WatermarkKey())

	cfg = newConfig()
	re.NoError(cfg.Parse([]string{"--config", path, "--min-interval=0s"}))
	re.Zero(cfg.Throttle.MinInterval.Duration)
}

func TestParseSampleConfig(t *testing.T) {
	re := require.New(t)
	cfg := newConfig()
	re.NoError(cfg.Parse([]string{"--config", "../../conf/throttle-demo.toml"}))
	re.Equal(30*time.Second, cfg.Duration.Duration)
	re.Equal(storage.RedisBackend, cfg.Storage.Backend)
	re.Equal(storage.RedisClockSource, cfg.Storage.ClockSource)
	re.Equal(int64(1), cfg.Throttle.MaxReservedPermits)
	re.Equal("REDIS_THROTTLE_LAST_TIMESTAMP", cfg.Throttle.WatermarkKey())
	re.Empty(cfg.Metric.PushAddress)
}

func TestParseErrors(t *testing.T) {
	re := require.New(t)
	re.Error(newConfig().Parse([]string{"--unknown"}))
	re.Error(newConfig().Parse([]string{"extra"}))
	re.Error(newConfig().Parse([]string{"--config", "/not/exist.toml"}))
	re.ErrorIs(newConfig().Parse([]string{"--workers", "-1"}), errs.ErrInvalidConfig)
	re.ErrorIs(newConfig().Parse([]string{"--log-level", "verbose"}), errs.ErrInvalidConfig)
	re.ErrorIs(newConfig().Parse([]string{"--backend", "mysql"}), errs.ErrStorageBackend)
	re.ErrorIs(newConfig().Parse([]string{"--backend", "etcd", "--clock-source", "redis"}), errs.ErrInvalidConfig)
	re.ErrorIs(newConfig().Parse([]string{"--min-interval", "-1s"}), errs.ErrInvalidConfig)

	cfg := newConfig()
	re.NoError(cfg.Parse([]string{"-V"}))
	re.True(cfg.version)
}

func TestCancelOnSignal(t *testing.T) {
	re := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sc := make(chan os.Signal, 1)
	received := cancelOnSignal(sc, cancel)
	re.Nil(received())
	re.NoError(ctx.Err())

	sc <- syscall.SIGINT
	<-ctx.Done()
	re.Equal(syscall.SIGINT, received())

	// Without a signal the run ends on its own and nothing is reported.
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	sc = make(chan os.Signal)
	received = cancelOnSignal(sc, cancel)
	re.Nil(received())
	close(sc)
	<-ctx.Done()
}

func TestRun(t *testing.T) {
	re := require.New(t)
	statusAddr := strings.TrimPrefix(tempurl.Alloc(), "http://")
	cfg := newConfig()
	re.NoError(cfg.Parse([]string{
		"--backend", "memory",
		"--workers", "3",
		"--min-interval", "50ms",
		"--max-reserved-permits", "1",
		"--duration", "2s",
		"--status-addr", statusAddr,
	}))

	done := make(chan struct{})
	var statsErr error
	go func() {
		defer close(done)
		stats, err := run(context.Background(), cfg)
		statsErr = err
		if err == nil && stats.Granted == 0 {
			statsErr = errs.ErrNoPermit.FastGenByArgs()
		}
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	testutil.Eventually(re, func() bool {
		resp, err := client.Get(api.URL("http://"+statusAddr, api.Status))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		var status api.StatusResponse
		if err := json.Unmarshal(body, &status); err != nil || status.Stats == nil {
			return false
		}
		return status.Backend == storage.MemoryBackend && status.Stats.Granted > 0
	}, testutil.WithWaitFor(2*time.Second), testutil.WithTickInterval(50*time.Millisecond))

	<-done
	re.NoError(statsErr)
}

func TestRunStorageError(t *testing.T) {
	re := require.New(t)
	cfg := newConfig()
	re.NoError(cfg.Parse([]string{"--backend", "leveldb", "--data-dir", "/dev/null/throttle"}))
	_, err := run(context.Background(), cfg)
	re.ErrorIs(err, errs.ErrLevelDBOpen)
}
