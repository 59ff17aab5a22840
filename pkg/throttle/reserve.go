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
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/clock"
	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/storage/endpoint"
	"github.com/tikv/throttle/pkg/storage/kv"
)

// Reserver hands out permits for one throttled resource. Any number of
// Reservers, in any number of processes, may share a store and a key.
type Reserver struct {
	store  *endpoint.StorageEndpoint
	source clock.Source
	local  clock.Clock
	cfg    *Config
	key    string
}

// NewReserver creates a Reserver. source is the authoritative time shared by
// every participant and local is the clock of this process.
func NewReserver(store kv.Base, source clock.Source, local clock.Clock, cfg *Config) *Reserver {
	return &Reserver{
		store:  endpoint.NewStorageEndpoint(store),
		source: source,
		local:  local,
		cfg:    cfg,
		key:    cfg.WatermarkKey(),
	}
}

// Config returns the config of the reserver. It must not be modified.
func (r *Reserver) Config() *Config {
	return r.cfg
}

// Key returns the watermark key.
func (r *Reserver) Key() string {
	return r.key
}

// Watermark returns the valid time of the last permit granted, or 0.
func (r *Reserver) Watermark(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return r.store.LoadWatermark(r.key)
}

// Reserve tries to obtain a permit. It returns false without an error when
// the caller has to come back later, either because too many permits are
// outstanding or because every attempt lost to a concurrent writer. An error
// means the store or the clock failed.
func (r *Reserver) Reserve(ctx context.Context) (Permit, bool, error) {
	start := time.Now()
	defer func() {
		reserveDuration.Observe(time.Since(start).Seconds())
	}()
	for attempt := 1; attempt <= r.cfg.MaxTransactionRetries; attempt++ {
		permit, ok, err := r.tryReserve(ctx)
		switch {
		case err == nil:
			r.observe(permit, ok)
			return permit, ok, nil
		case errs.IsTxnConflict(err):
			txnConflictCounter.Inc()
			log.Debug("reservation conflicts with another writer",
				zap.String("key", r.key), zap.Int("attempt", attempt))
		default:
			reservationCounter.WithLabelValues(resultError).Inc()
			log.Error("failed to reserve a permit", zap.String("key", r.key), errs.ZapError(err))
			return Permit{}, false, err
		}
	}
	reservationCounter.WithLabelValues(resultExhausted).Inc()
	log.Warn("reservation retries exhausted",
		zap.String("key", r.key), zap.Int("max-transaction-retries", r.cfg.MaxTransactionRetries))
	return Permit{}, false, nil
}

// tryReserve makes one transactional attempt. The watermark is only written
// when a permit is granted, but the transaction is always committed so a
// concurrent writer is still noticed.
func (r *Reserver) tryReserve(ctx context.Context) (permit Permit, ok bool, err error) {
	err = r.store.RunInTxn(ctx, func(txn kv.Txn) error {
		// The load watches the key, so a write racing with the time read
		// below aborts the commit.
		watermark, err := r.store.LoadWatermarkInTxn(txn, r.key)
		if err != nil {
			return err
		}
		now, err := r.source.Now(ctx)
		if err != nil {
			return err
		}
		permit, ok = Decide(r.cfg.MinIntervalMs(), r.cfg.MaxReservedPermits,
			clock.UnixMilli(now), watermark, clock.UnixMilli(r.local.Now()))
		if !ok {
			return nil
		}
		return r.store.SaveWatermarkInTxn(txn, r.key, permit.ValidAt)
	})
	if err != nil {
		return Permit{}, false, err
	}
	return permit, ok, nil
}

func (r *Reserver) observe(permit Permit, ok bool) {
	switch {
	case !ok:
		reservationCounter.WithLabelValues(resultRefused).Inc()
		log.Debug("no permit available", zap.String("key", r.key))
	case permit.Immediate():
		reservationCounter.WithLabelValues(resultImmediate).Inc()
		log.Debug("permit granted", zap.String("key", r.key), zap.Stringer("permit", permit))
	default:
		reservationCounter.WithLabelValues(resultReserved).Inc()
		log.Debug("permit reserved", zap.String("key", r.key), zap.Stringer("permit", permit))
	}
}
