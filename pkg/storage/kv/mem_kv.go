// Copyright 2017 TiKV Project Authors.
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
	"fmt"

	"github.com/google/btree"

	"github.com/tikv/throttle/pkg/utils/syncutil"
)

const memoryBackend = "memory"

type memoryKV struct {
	syncutil.RWMutex
	tree *btree.BTreeG[memoryKVItem]
}

// NewMemoryKV returns an in-memory kvBase. It only coordinates callers
// sharing the same process.
func NewMemoryKV() Base {
	return &memoryKV{
		tree: btree.NewG(2, func(i, j memoryKVItem) bool {
			return i.Less(&j)
		}),
	}
}

type memoryKVItem struct {
	key, value string
}

// Less compares two memoryKVItem.
func (s *memoryKVItem) Less(than *memoryKVItem) bool {
	return s.key < than.key
}

// Load loads the value for the key.
func (kv *memoryKV) Load(key string) (string, error) {
	kv.RLock()
	defer kv.RUnlock()
	return kv.loadNoLock(key), nil
}

func (kv *memoryKV) loadNoLock(key string) string {
	item, ok := kv.tree.Get(memoryKVItem{key, ""})
	if !ok {
		return ""
	}
	return item.value
}

// Save saves the key-value pair.
func (kv *memoryKV) Save(key, value string) error {
	kv.Lock()
	defer kv.Unlock()
	kv.tree.ReplaceOrInsert(memoryKVItem{key, value})
	return nil
}

// RunInTxn runs the user provided function f in a transaction.
func (kv *memoryKV) RunInTxn(ctx context.Context, f func(txn Txn) error) error {
	return runSimulatedTxn(ctx, memoryBackend, kv, f)
}

// Close implements Base.
func (*memoryKV) Close() error {
	return nil
}

// CreateLowLevelTxn creates a transaction that provides interface in if-then pattern.
func (kv *memoryKV) CreateLowLevelTxn() LowLevelTxn {
	return &memKvLowLevelTxnSimulator{
		kv: kv,
	}
}

type memKvLowLevelTxnSimulator struct {
	kv           *memoryKV
	conditions   []LowLevelTxnCondition
	onSuccessOps []LowLevelTxnOp
}

// If implements LowLevelTxn interface for adding conditions to the transaction.
func (t *memKvLowLevelTxnSimulator) If(conditions ...LowLevelTxnCondition) LowLevelTxn {
	t.conditions = append(t.conditions, conditions...)
	return t
}

// Then implements LowLevelTxn interface for adding operations that need to be executed when the condition passes to
// the transaction.
func (t *memKvLowLevelTxnSimulator) Then(ops ...LowLevelTxnOp) LowLevelTxn {
	t.onSuccessOps = append(t.onSuccessOps, ops...)
	return t
}

// Commit implements LowLevelTxn interface for committing the transaction.
func (t *memKvLowLevelTxnSimulator) Commit(_ context.Context) (LowLevelTxnResult, error) {
	t.kv.Lock()
	defer t.kv.Unlock()

	for _, condition := range t.conditions {
		value := t.kv.loadNoLock(condition.Key)
		if !condition.CheckOnValue(value, value != "") {
			return LowLevelTxnResult{Succeeded: false}, nil
		}
	}

	// Note: executions in mem_kv never fails.
	for _, operation := range t.onSuccessOps {
		switch operation.OpType {
		case LowLevelOpPut:
			t.kv.tree.ReplaceOrInsert(memoryKVItem{operation.Key, operation.Value})
		default:
			panic(fmt.Sprintf("unknown operation type %v", operation.OpType))
		}
	}
	return LowLevelTxnResult{Succeeded: true}, nil
}
