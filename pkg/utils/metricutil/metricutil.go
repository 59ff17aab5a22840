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
package metricutil

import (
	"context"
	"os"
	"time"

	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/typeutil"
)

// MetricConfig is the metric configuration.
type MetricConfig struct {
	PushJob      string            `toml:"job" json:"job"`
	PushAddress  string            `toml:"address" json:"address"`
	PushInterval typeutil.Duration `toml:"interval" json:"interval"`
}

func instanceName() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

func newPusher(cfg *MetricConfig) *push.Pusher {
	return push.New(cfg.PushAddress, cfg.PushJob).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", instanceName())
}

func prometheusPushClient(ctx context.Context, pusher *push.Pusher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := pusher.PushContext(ctx); err != nil && ctx.Err() == nil {
			log.Error("could not push metrics to Prometheus Pushgateway", errs.ZapError(errs.ErrPrometheusPushMetrics, err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Push metrics in background until ctx is done. It returns a channel closed
// once the pusher has stopped, or nil when pushing is disabled.
func Push(ctx context.Context, cfg *MetricConfig) <-chan struct{} {
	if cfg.PushInterval.Duration <= 0 || len(cfg.PushAddress) == 0 {
		log.Info("disable Prometheus push client")
		return nil
	}
	log.Info("start Prometheus push client", zap.String("address", cfg.PushAddress), zap.Duration("interval", cfg.PushInterval.Duration))
	done := make(chan struct{})
	go func() {
		defer close(done)
		prometheusPushClient(ctx, newPusher(cfg), cfg.PushInterval.Duration)
	}()
	return done
}
