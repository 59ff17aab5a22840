// Copyright 2020 TiKV Project Authors.
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

package errs

import "github.com/pingcap/errors"

// throttle errors
var (
	// ErrNoPermit is returned to callers whenever they may not proceed right now:
	// the decision refused, the transaction retries ran out or a reserved permit
	// expired while waiting. All of them mean "try again later".
	ErrNoPermit           = errors.Normalize("no permit available, try again later", errors.RFCCodeText("Throttle:throttle:ErrNoPermit"))
	ErrWatermarkCorrupted = errors.Normalize("watermark %s is corrupted: %s", errors.RFCCodeText("Throttle:throttle:ErrWatermarkCorrupted"))
	ErrClockSource        = errors.Normalize("read authoritative time failed", errors.RFCCodeText("Throttle:throttle:ErrClockSource"))
)

// kv errors
var (
	// ErrTxnConflict is returned by RunInTxn when a key read inside the
	// transaction has been modified by another party before commit.
	ErrTxnConflict    = errors.Normalize("kv transaction conflict", errors.RFCCodeText("Throttle:kv:ErrTxnConflict"))
	ErrStorageBackend = errors.Normalize("unsupported storage backend %s", errors.RFCCodeText("Throttle:kv:ErrStorageBackend"))
)

// config errors
var (
	ErrInvalidConfig = errors.Normalize("invalid config: %s", errors.RFCCodeText("Throttle:config:ErrInvalidConfig"))
	ErrInitLogger    = errors.Normalize("init logger error", errors.RFCCodeText("Throttle:common:ErrInitLogger"))
)

// The third-party project error.
// etcd errors
var (
	ErrNewEtcdClient     = errors.Normalize("new etcd client failed", errors.RFCCodeText("Throttle:etcd:ErrNewEtcdClient"))
	ErrEtcdTxn           = errors.Normalize("etcd Txn failed", errors.RFCCodeText("Throttle:etcd:ErrEtcdTxn"))
	ErrEtcdKVPut         = errors.Normalize("etcd KV put failed", errors.RFCCodeText("Throttle:etcd:ErrEtcdKVPut"))
	ErrEtcdKVGet         = errors.Normalize("etcd KV get failed", errors.RFCCodeText("Throttle:etcd:ErrEtcdKVGet"))
	ErrEtcdKVGetResponse = errors.Normalize("etcd invalid get value response %v, must only one", errors.RFCCodeText("Throttle:etcd:ErrEtcdKVGetResponse"))
	ErrCloseEtcdClient   = errors.Normalize("close etcd client failed", errors.RFCCodeText("Throttle:etcd:ErrCloseEtcdClient"))
)

// redis errors
var (
	ErrRedisCommand = errors.Normalize("redis command %s failed", errors.RFCCodeText("Throttle:redis:ErrRedisCommand"))
	ErrRedisClose   = errors.Normalize("close redis client failed", errors.RFCCodeText("Throttle:redis:ErrRedisClose"))
)

// leveldb errors
var (
	ErrLevelDBOpen  = errors.Normalize("leveldb open file error", errors.RFCCodeText("Throttle:leveldb:ErrLevelDBOpen"))
	ErrLevelDBClose = errors.Normalize("failed to close leveldb", errors.RFCCodeText("Throttle:leveldb:ErrLevelDBClose"))
	ErrLevelDBWrite = errors.Normalize("failed to write leveldb", errors.RFCCodeText("Throttle:leveldb:ErrLevelDBWrite"))
)

// http errors
var (
	ErrSendRequest    = errors.Normalize("send HTTP request failed", errors.RFCCodeText("Throttle:http:ErrSendRequest"))
	ErrNewHTTPRequest = errors.Normalize("new HTTP request failed", errors.RFCCodeText("Throttle:http:ErrNewHTTPRequest"))
	ErrReadHTTPBody   = errors.Normalize("read HTTP body failed", errors.RFCCodeText("Throttle:http:ErrReadHTTPBody"))
)

// prometheus errors
var (
	ErrPrometheusPushMetrics = errors.Normalize("push metrics to Prometheus Pushgateway error", errors.RFCCodeText("Throttle:prometheus:ErrPrometheusPushMetrics"))
)

// netstat error
var (
	ErrNetstatTCPSocks = errors.Normalize("TCP socks error", errors.RFCCodeText("Throttle:netstat:ErrNetstatTCPSocks"))
)
