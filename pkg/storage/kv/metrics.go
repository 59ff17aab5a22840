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
package kv

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tikv/throttle/pkg/errs"
)

const (
	txnResultSuccess  = "success"
	txnResultConflict = "conflict"
	txnResultFailed   = "failed"
)

var (
	txnCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "throttle",
			Subsystem: "kv",
			Name:      "txns_count",
			Help:      "Counter of committed kv transactions.",
		}, []string{"backend", "result"})

	txnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "throttle",
			Subsystem: "kv",
			Name:      "handle_txns_duration_seconds",
			Help:      "Bucketed histogram of processing time (s) of kv transaction commits.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 13),
		}, []string{"backend", "result"})
)

func init() {
	prometheus.MustRegister(txnCounter)
	prometheus.MustRegister(txnDuration)
}

func observeCommit(backend string, start time.Time, err error) {
	result := txnResultSuccess
	switch {
	case errs.IsTxnConflict(err):
		result = txnResultConflict
	case err != nil:
		result = txnResultFailed
	}
	txnCounter.WithLabelValues(backend, result).Inc()
	txnDuration.WithLabelValues(backend, result).Observe(time.Since(start).Seconds())
}
