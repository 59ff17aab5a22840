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

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/syncutil"
)

// simulatedBase is a backend that can only run LowLevelTxn natively.
type simulatedBase interface {
	Load(key string) (string, error)
	CreateLowLevelTxn() LowLevelTxn
}

// simulatedTxn implements Txn on top of LowLevelTxn: every loaded value
// becomes a condition of the final compare-and-swap.
type simulatedTxn struct {
	base simulatedBase
	ctx  context.Context

	// mu protects conditions and ops.
	mu         syncutil.Mutex
	pinned     map[string]struct{}
	conditions []LowLevelTxnCondition
	ops        []LowLevelTxnOp
}

func runSimulatedTxn(ctx context.Context, backend string, base simulatedBase, f func(txn Txn) error) error {
	txn := &simulatedTxn{
		base:   base,
		ctx:    ctx,
		pinned: make(map[string]struct{}),
	}
	if err := f(txn); err != nil {
		return err
	}
	start := time.Now()
	err := txn.commit()
	observeCommit(backend, start, err)
	return err
}

// Load reads the key and pins the value it saw.
func (txn *simulatedTxn) Load(key string) (string, error) {
	value, err := txn.base.Load(key)
	if err != nil {
		return "", err
	}
	txn.mu.Lock()
	defer txn.mu.Unlock()
	if _, ok := txn.pinned[key]; ok {
		return value, nil
	}
	txn.pinned[key] = struct{}{}
	// There's a convention to represent not-existing key with empty value.
	condition := LowLevelTxnCondition{Key: key, CmpType: LowLevelCmpNotExists}
	if value != "" {
		condition = LowLevelTxnCondition{Key: key, CmpType: LowLevelCmpEqual, Value: value}
	}
	txn.conditions = append(txn.conditions, condition)
	return value, nil
}

// Save appends a put operation to ops.
func (txn *simulatedTxn) Save(key, value string) error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.ops = append(txn.ops, LowLevelTxnOp{Key: key, OpType: LowLevelOpPut, Value: value})
	return nil
}

func (txn *simulatedTxn) commit() error {
	// Check context first to make sure transaction is not cancelled.
	select {
	default:
	case <-txn.ctx.Done():
		return txn.ctx.Err()
	}
	txn.mu.Lock()
	defer txn.mu.Unlock()
	res, err := txn.base.CreateLowLevelTxn().
		If(txn.conditions...).
		Then(txn.ops...).
		Commit(txn.ctx)
	if err != nil {
		return err
	}
	if !res.Succeeded {
		return errs.ErrTxnConflict.FastGenByArgs()
	}
	return nil
}
