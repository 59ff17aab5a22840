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
	"github.com/pingcap/log"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/clock"
	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/storage/endpoint"
	"github.com/tikv/throttle/pkg/storage/kv"
	"github.com/tikv/throttle/pkg/utils/etcdutil"
	"github.com/tikv/throttle/pkg/utils/logutil"
)

// Storage is the shared store of watermarks together with the clock every
// participant agrees on.
type Storage struct {
	*endpoint.StorageEndpoint
	source  clock.Source
	backend string
}

// NewStorageWithKV wraps an existing kv and clock source.
func NewStorageWithKV(backend string, base kv.Base, source clock.Source) *Storage {
	return &Storage{
		StorageEndpoint: endpoint.NewStorageEndpoint(base),
		source:          source,
		backend:         backend,
	}
}

// Open connects to the backend described by cfg. cfg must be adjusted.
func Open(cfg *Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		base   kv.Base
		source clock.Source = clock.NewSystemSource()
	)
	switch cfg.Backend {
	case MemoryBackend:
		base = kv.NewMemoryKV()
	case LevelDBBackend:
		levelDB, err := kv.NewLevelDBKV(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		base = levelDB
		log.Info("open leveldb storage", zap.String("data-dir", cfg.DataDir))
	case EtcdBackend:
		client, err := etcdutil.CreateEtcdClient(cfg.Endpoints)
		if err != nil {
			return nil, err
		}
		base = kv.NewEtcdKVBase(client, cfg.EtcdRootPath)
	case RedisBackend:
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DB:           cfg.RedisDB,
			DialTimeout:  cfg.RequestTimeout.Duration,
			ReadTimeout:  cfg.RequestTimeout.Duration,
			WriteTimeout: cfg.RequestTimeout.Duration,
		})
		base = kv.NewRedisKV(client)
		if cfg.ClockSource == RedisClockSource {
			source = clock.NewRedisSource(client)
		}
		log.Info("connect to redis storage", logutil.ZapRedactString("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	default:
		return nil, errs.ErrStorageBackend.FastGenByArgs(cfg.Backend)
	}
	return NewStorageWithKV(cfg.Backend, base, source), nil
}

// Source returns the authoritative clock of the store.
func (s *Storage) Source() clock.Source {
	return s.source
}

// Backend returns the backend name.
func (s *Storage) Backend() string {
	return s.backend
}
