// Copyright 2016 TiKV Project Authors.
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

import "context"

// LowLevelTxnCmpType represents the comparison type that is used in the condition of LowLevelTxn.
type LowLevelTxnCmpType int

// LowLevelTxnOpType represents the operation type that is used in the `Then` branch of LowLevelTxn.
type LowLevelTxnOpType int

// nolint:revive
const (
	LowLevelCmpEqual LowLevelTxnCmpType = iota
	LowLevelCmpNotEqual
	LowLevelCmpExists
	LowLevelCmpNotExists
)

// nolint:revive
const (
	LowLevelOpPut LowLevelTxnOpType = iota
)

// LowLevelTxnCondition represents a condition in a LowLevelTxn.
type LowLevelTxnCondition struct {
	Key     string
	CmpType LowLevelTxnCmpType
	// The value to compare with. It's not used when CmpType is LowLevelCmpExists or LowLevelCmpNotExists.
	Value string
}

// CheckOnValue checks whether the condition is satisfied on the given value.
func (c *LowLevelTxnCondition) CheckOnValue(value string, exists bool) bool {
	switch c.CmpType {
	case LowLevelCmpEqual:
		return exists && value == c.Value
	case LowLevelCmpNotEqual:
		return exists && value != c.Value
	case LowLevelCmpExists:
		return exists
	case LowLevelCmpNotExists:
		return !exists
	default:
		panic("unreachable")
	}
}

// LowLevelTxnOp represents an operation in a LowLevelTxn's `Then` branch.
type LowLevelTxnOp struct {
	Key    string
	OpType LowLevelTxnOpType
	Value  string
}

// LowLevelTxnResult represents the result of a LowLevelTxn.
type LowLevelTxnResult struct {
	Succeeded bool
}

// LowLevelTxn is a compare-and-swap transaction in the if-then pattern of etcd.
// Backends without a native equivalent simulate it under a lock.
// It only supports checking the value or whether the key exists.
type LowLevelTxn interface {
	If(conditions ...LowLevelTxnCondition) LowLevelTxn
	Then(ops ...LowLevelTxnOp) LowLevelTxn
	Commit(ctx context.Context) (LowLevelTxnResult, error)
}

// BaseReadWrite is the API set, shared by Base and Txn interfaces, that provides basic KV read and write operations.
type BaseReadWrite interface {
	Save(key, value string) error
	// Load returns "" when the key does not exist.
	Load(key string) (string, error)
}

// Txn bundles multiple operations into a single executable unit.
// Every Load on a Txn watches the key: the transaction only commits if none
// of the loaded keys has been modified in the meantime. Save is staged and
// becomes visible on commit only.
type Txn interface {
	BaseReadWrite
}

// Base is an abstract interface for the shared store holding throttle watermarks.
type Base interface {
	BaseReadWrite
	// RunInTxn runs the user provided function in an optimistic transaction.
	// If f returns a non-nil error, the transaction is not committed and the
	// same error is returned.
	// Otherwise the commit is attempted. It fails with errs.ErrTxnConflict
	// when any key loaded through txn changed before the commit. This check
	// also happens for transactions that staged no write.
	//
	// Values saved during the transaction are not observable by
	// Load on the same transaction.
	RunInTxn(ctx context.Context, f func(txn Txn) error) error
	// Close releases the connections or files held by the backend.
	Close() error
}
