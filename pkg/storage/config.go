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
	"strings"
	"time"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/configutil"
	"github.com/tikv/throttle/pkg/utils/typeutil"
)

// Supported backends.
const (
	MemoryBackend  = "memory"
	EtcdBackend    = "etcd"
	RedisBackend   = "redis"
	LevelDBBackend = "leveldb"
)

// Supported authoritative clock sources.
const (
	RedisClockSource  = "redis"
	SystemClockSource = "system"
)

const (
	defaultBackend        = RedisBackend
	defaultRedisAddr      = "127.0.0.1:6379"
	defaultEtcdEndpoint   = "http://127.0.0.1:2379"
	defaultDataDir        = "default.throttle"
	defaultEtcdRootPath   = "/throttle"
	defaultRequestTimeout = 3 * time.Second
)

// Config is the configuration of the shared store.
type Config struct {
	Backend string `toml:"backend" json:"backend"`
	// Endpoints are the etcd client URLs.
	Endpoints []string `toml:"endpoints" json:"endpoints"`
	RedisAddr string   `toml:"redis-addr" json:"redis-addr"`
	RedisDB   int      `toml:"redis-db" json:"redis-db"`
	// DataDir is where the leveldb backend keeps its files.
	DataDir string `toml:"data-dir" json:"data-dir"`
	// EtcdRootPath prefixes every key stored in etcd.
	EtcdRootPath string `toml:"etcd-root-path" json:"etcd-root-path"`
	// ClockSource picks the authoritative time. It defaults to the redis
	// server time for the redis backend and to the system clock otherwise.
	ClockSource    string            `toml:"clock-source" json:"clock-source"`
	RequestTimeout typeutil.Duration `toml:"request-timeout" json:"request-timeout"`
}

// Adjust fills the unset items with default values.
func (c *Config) Adjust(meta *configutil.ConfigMetaData) {
	c.Backend = strings.ToLower(c.Backend)
	configutil.AdjustString(&c.Backend, defaultBackend)
	configutil.AdjustString(&c.RedisAddr, defaultRedisAddr)
	configutil.AdjustString(&c.DataDir, defaultDataDir)
	configutil.AdjustString(&c.EtcdRootPath, defaultEtcdRootPath)
	if !meta.IsDefined("endpoints") && len(c.Endpoints) == 0 {
		c.Endpoints = []string{defaultEtcdEndpoint}
	}
	if c.ClockSource == "" {
		if c.Backend == RedisBackend {
			c.ClockSource = RedisClockSource
		} else {
			c.ClockSource = SystemClockSource
		}
	}
	configutil.AdjustDuration(&c.RequestTimeout, defaultRequestTimeout)
}

// Validate checks the combination of backend and clock source.
func (c *Config) Validate() error {
	switch c.Backend {
	case MemoryBackend, LevelDBBackend, RedisBackend:
	case EtcdBackend:
		if len(c.Endpoints) == 0 {
			return errs.ErrInvalidConfig.FastGenByArgs("etcd backend requires endpoints")
		}
	default:
		return errs.ErrStorageBackend.FastGenByArgs(c.Backend)
	}
	switch c.ClockSource {
	case SystemClockSource:
	case RedisClockSource:
		if c.Backend != RedisBackend {
			return errs.ErrInvalidConfig.FastGenByArgs("redis clock source requires the redis backend")
		}
	default:
		return errs.ErrInvalidConfig.FastGenByArgs("unknown clock source " + c.ClockSource)
	}
	if c.RedisDB < 0 {
		return errs.ErrInvalidConfig.FastGenByArgs("redis-db must not be negative")
	}
	return nil
}
