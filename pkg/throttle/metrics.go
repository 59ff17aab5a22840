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

import "github.com/prometheus/client_golang/prometheus"

const (
	resultImmediate = "immediate"
	resultReserved  = "reserved"
	resultRefused   = "refused"
	resultExhausted = "exhausted"
	resultError     = "error"
)

var (
	reservationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "throttle",
			Name:      "reservation_total",
			Help:      "Counter of reservations by result.",
		}, []string{"result"})

	txnConflictCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "throttle",
			Name:      "txn_conflict_total",
			Help:      "Counter of reservation attempts aborted by a concurrent writer.",
		})

	permitExpiredCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "throttle",
			Name:      "permit_expired_total",
			Help:      "Counter of reserved permits that expired while waiting.",
		})

	attemptLimitedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "throttle",
			Name:      "attempt_limited_total",
			Help:      "Counter of attempts rejected by the local attempt limiter.",
		})

	permitWaitHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "throttle",
			Name:      "permit_wait_seconds",
			Help:      "Bucketed histogram of the wait (s) of reserved permits.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		})

	reserveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "throttle",
			Name:      "reserve_duration_seconds",
			Help:      "Bucketed histogram of processing time (s) of reservations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 13),
		})
)

func init() {
	prometheus.MustRegister(reservationCounter)
	prometheus.MustRegister(txnConflictCounter)
	prometheus.MustRegister(permitExpiredCounter)
	prometheus.MustRegister(attemptLimitedCounter)
	prometheus.MustRegister(permitWaitHistogram)
	prometheus.MustRegister(reserveDuration)
}
