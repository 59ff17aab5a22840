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
	"context"
	"time"

	"github.com/pingcap/errors"
	"github.com/redis/go-redis/v9"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/syncutil"
)

const (
	redisBackend = "redis"
	// DefaultRedisRequestTimeout bounds a single redis command issued outside a transaction.
	DefaultRedisRequestTimeout = 3 * time.Second
)

type redisKV struct {
	client redis.UniversalClient
}

// NewRedisKV creates a kv on top of a redis client. The client is closed
// together with the kv.
func NewRedisKV(client redis.UniversalClient) Base {
	return &redisKV{client: client}
}

// Load gets a value for a given key.
func (kv *redisKV) Load(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultRedisRequestTimeout)
	defer cancel()
	return redisGet(ctx, kv.client, key)
}

func redisGet(ctx context.Context, c redis.Cmdable, key string) (string, error) {
	value, err := c.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errs.ErrRedisCommand.Wrap(err).GenWithStackByArgs("GET")
	}
	return value, nil
}

// Save stores a key-value pair.
func (kv *redisKV) Save(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultRedisRequestTimeout)
	defer cancel()
	if err := kv.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errs.ErrRedisCommand.Wrap(err).GenWithStackByArgs("SET")
	}
	return nil
}

// Close closes the redis client.
func (kv *redisKV) Close() error {
	if err := kv.client.Close(); err != nil {
		return errs.ErrRedisClose.Wrap(err).GenWithStackByCause()
	}
	return nil
}

// RunInTxn runs f on a dedicated connection. Loads issue WATCH before GET,
// and the staged writes are sent in MULTI/EXEC, which the server discards
// if a watched key was modified.
func (kv *redisKV) RunInTxn(ctx context.Context, f func(txn Txn) error) error {
	var committing bool
	start := time.Now()
	err := kv.client.Watch(ctx, func(tx *redis.Tx) error {
		txn := &redisTxn{ctx: ctx, tx: tx}
		if err := f(txn); err != nil {
			return err
		}
		committing = true
		start = time.Now()
		return txn.commit()
	})
	if !committing {
		return err
	}
	if err == redis.TxFailedErr {
		err = errs.ErrTxnConflict.FastGenByArgs()
	} else if err != nil {
		err = errs.ErrRedisCommand.Wrap(err).GenWithStackByArgs("EXEC")
	}
	observeCommit(redisBackend, start, err)
	return err
}

// redisTxn implements kv.Txn.
type redisTxn struct {
	ctx context.Context
	tx  *redis.Tx
	// mu protects watched and ops.
	mu      syncutil.Mutex
	watched []string
	ops     []LowLevelTxnOp
}

// Load watches the key and reads it on the transaction connection.
func (txn *redisTxn) Load(key string) (string, error) {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	if err := txn.tx.Watch(txn.ctx, key).Err(); err != nil {
		return "", errs.ErrRedisCommand.Wrap(err).GenWithStackByArgs("WATCH")
	}
	txn.watched = append(txn.watched, key)
	return redisGet(txn.ctx, txn.tx, key)
}

// Save stages a SET.
func (txn *redisTxn) Save(key, value string) error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.ops = append(txn.ops, LowLevelTxnOp{Key: key, OpType: LowLevelOpPut, Value: value})
	return nil
}

func (txn *redisTxn) commit() error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	if len(txn.ops) == 0 && len(txn.watched) == 0 {
		return nil
	}
	_, err := txn.tx.TxPipelined(txn.ctx, func(pipe redis.Pipeliner) error {
		if len(txn.ops) == 0 {
			// An empty pipeline is never sent, but EXEC is what validates the
			// watched keys.
			pipe.Ping(txn.ctx)
		}
		for _, op := range txn.ops {
			switch op.OpType {
			case LowLevelOpPut:
				pipe.Set(txn.ctx, op.Key, op.Value, 0)
			default:
				return errors.Errorf("unknown operation type %v", op.OpType)
			}
		}
		return nil
	})
	return err
}
