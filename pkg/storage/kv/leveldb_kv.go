// Copyright 2018 TiKV Project Authors.
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

	"github.com/pingcap/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/tikv/throttle/pkg/errs"
)

const levelDBBackend = "leveldb"

// LevelDBKV is a kv store using LevelDB. It persists watermarks on a single
// host, so every caller must run in the same process.
type LevelDBKV struct {
	*leveldb.DB
}

// NewLevelDBKV opens or creates the database under path.
func NewLevelDBKV(path string) (*LevelDBKV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errs.ErrLevelDBOpen.Wrap(err).GenWithStackByCause()
	}
	return &LevelDBKV{db}, nil
}

// Load gets a value for a given key.
func (kv *LevelDBKV) Load(key string) (string, error) {
	v, err := kv.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return "", nil
		}
		return "", errors.WithStack(err)
	}
	return string(v), nil
}

// Save stores a key-value pair.
func (kv *LevelDBKV) Save(key, value string) error {
	if err := kv.Put([]byte(key), []byte(value), nil); err != nil {
		return errs.ErrLevelDBWrite.Wrap(err).GenWithStackByCause()
	}
	return nil
}

// RunInTxn runs user provided function f in a transaction.
func (kv *LevelDBKV) RunInTxn(ctx context.Context, f func(txn Txn) error) error {
	return runSimulatedTxn(ctx, levelDBBackend, kv, f)
}

// Close closes the database.
func (kv *LevelDBKV) Close() error {
	if err := kv.DB.Close(); err != nil {
		return errs.ErrLevelDBClose.Wrap(err).GenWithStackByCause()
	}
	return nil
}

// CreateLowLevelTxn creates a transaction that provides interface in if-then pattern.
func (kv *LevelDBKV) CreateLowLevelTxn() LowLevelTxn {
	return &levelDBLowLevelTxnSimulator{
		kv: kv,
	}
}

type levelDBLowLevelTxnSimulator struct {
	kv           *LevelDBKV
	condition    []LowLevelTxnCondition
	onSuccessOps []LowLevelTxnOp
}

func (t *levelDBLowLevelTxnSimulator) If(conditions ...LowLevelTxnCondition) LowLevelTxn {
	t.condition = append(t.condition, conditions...)
	return t
}

func (t *levelDBLowLevelTxnSimulator) Then(ops ...LowLevelTxnOp) LowLevelTxn {
	t.onSuccessOps = append(t.onSuccessOps, ops...)
	return t
}

// Commit checks the conditions and applies the operations inside one leveldb
// transaction, which blocks every other write until it is closed.
func (t *levelDBLowLevelTxnSimulator) Commit(_ context.Context) (res LowLevelTxnResult, err error) {
	txn, err := t.kv.DB.OpenTransaction()
	if err != nil {
		return LowLevelTxnResult{}, errs.ErrLevelDBWrite.Wrap(err).GenWithStackByCause()
	}
	defer func() {
		// Set txn to nil when the function finished normally.
		// When the function encounters any error and returns early, the transaction will be discarded here.
		if txn != nil {
			txn.Discard()
		}
	}()

	for _, condition := range t.condition {
		value, err := txn.Get([]byte(condition.Key), nil)
		exists := true
		if err != nil {
			if err != leveldb.ErrNotFound {
				return res, errors.WithStack(err)
			}
			exists = false
		}
		if !condition.CheckOnValue(string(value), exists) {
			return LowLevelTxnResult{Succeeded: false}, nil
		}
	}

	for _, operation := range t.onSuccessOps {
		switch operation.OpType {
		case LowLevelOpPut:
			err = txn.Put([]byte(operation.Key), []byte(operation.Value), nil)
		default:
			panic(fmt.Sprintf("unknown operation type %v", operation.OpType))
		}
		if err != nil {
			return res, errs.ErrLevelDBWrite.Wrap(err).GenWithStackByCause()
		}
	}

	if err = txn.Commit(); err != nil {
		return res, errs.ErrLevelDBWrite.Wrap(err).GenWithStackByCause()
	}
	// Avoid being discarded again in the defer block.
	txn = nil
	return LowLevelTxnResult{Succeeded: true}, nil
}
