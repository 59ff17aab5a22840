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

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/pingcap/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/etcdutil"
)

func TestEtcd(t *testing.T) {
	re := require.New(t)
	_, client := etcdutil.NewTestEtcdCluster(t)

	kv := NewEtcdKVBase(client, "/throttle/test")
	testReadWrite(re, kv)
	testSaveMultiple(re, kv, 20)
	testLoadConflict(re, kv)
	testNoWriteConflict(re, kv)
	testAbsentKeyConflict(re, kv)
	testSameValueConflict(re, kv)
	testUserError(re, kv)

	// Keys live under the root path.
	re.NoError(kv.Save("rooted", "1"))
	v, err := etcdutil.GetValue(client, "/throttle/test/rooted")
	re.NoError(err)
	re.Equal([]byte("1"), v)
}

func TestRedis(t *testing.T) {
	re := require.New(t)
	s := miniredis.RunT(t)
	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	defer kv.Close()

	testReadWrite(re, kv)
	testSaveMultiple(re, kv, 20)
	testLoadConflict(re, kv)
	testNoWriteConflict(re, kv)
	testAbsentKeyConflict(re, kv)
	testSameValueConflict(re, kv)
	testUserError(re, kv)

	// The key name is used verbatim.
	re.NoError(kv.Save("REDIS_THROTTLE_LAST_TIMESTAMP", "42"))
	v, err := s.Get("REDIS_THROTTLE_LAST_TIMESTAMP")
	re.NoError(err)
	re.Equal("42", v)

	s.Close()
	_, err = kv.Load("REDIS_THROTTLE_LAST_TIMESTAMP")
	re.ErrorIs(err, errs.ErrRedisCommand)
	err = kv.RunInTxn(context.Background(), func(txn Txn) error {
		_, err := txn.Load("REDIS_THROTTLE_LAST_TIMESTAMP")
		return err
	})
	re.Error(err)
	re.False(errs.IsTxnConflict(err))
}

func TestLevelDB(t *testing.T) {
	re := require.New(t)
	dir := t.TempDir()
	kv, err := NewLevelDBKV(dir)
	re.NoError(err)

	testReadWrite(re, kv)
	testSaveMultiple(re, kv, 20)
	testLoadConflict(re, kv)
	testNoWriteConflict(re, kv)
	testAbsentKeyConflict(re, kv)
	testUserError(re, kv)
	testLowLevelTxn(re, kv)
	re.NoError(kv.Close())

	// Data survives a reopen.
	kv, err = NewLevelDBKV(dir)
	re.NoError(err)
	defer kv.Close()
	v, err := kv.Load("key0")
	re.NoError(err)
	re.Equal("val0", v)
}

func TestMemKV(t *testing.T) {
	re := require.New(t)
	kv := NewMemoryKV()
	testReadWrite(re, kv)
	testSaveMultiple(re, kv, 20)
	testLoadConflict(re, kv)
	testNoWriteConflict(re, kv)
	testAbsentKeyConflict(re, kv)
	testUserError(re, kv)
	testLowLevelTxn(re, kv.(*memoryKV))
	re.NoError(kv.Close())
}

func TestCancelledTxn(t *testing.T) {
	re := require.New(t)
	kv := NewMemoryKV()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := kv.RunInTxn(ctx, func(txn Txn) error {
		return txn.Save("key", "value")
	})
	re.ErrorIs(err, context.Canceled)
	v, err := kv.Load("key")
	re.NoError(err)
	re.Empty(v)
}

func testReadWrite(re *require.Assertions, kv Base) {
	v, err := kv.Load("key")
	re.NoError(err)
	re.Equal("", v)
	err = kv.Save("key", "value")
	re.NoError(err)
	v, err = kv.Load("key")
	re.NoError(err)
	re.Equal("value", v)
	re.NoError(kv.Save("key", "value2"))
	v, err = kv.Load("key")
	re.NoError(err)
	re.Equal("value2", v)
}

func testSaveMultiple(re *require.Assertions, kv Base, count int) {
	err := kv.RunInTxn(context.Background(), func(txn Txn) error {
		var saveErr error
		for i := range count {
			saveErr = txn.Save("key"+strconv.Itoa(i), "val"+strconv.Itoa(i))
			if saveErr != nil {
				return saveErr
			}
		}
		// Staged writes are not visible inside the transaction.
		v, loadErr := txn.Load("key0")
		re.NoError(loadErr)
		re.Empty(v)
		return nil
	})
	re.NoError(err)
	for i := range count {
		val, loadErr := kv.Load("key" + strconv.Itoa(i))
		re.NoError(loadErr)
		re.Equal("val"+strconv.Itoa(i), val)
	}
}

// testLoadConflict checks that if any value loaded during the current transaction
// has been modified by another writer before the current one commits,
// then the current transaction must fail and write nothing.
func testLoadConflict(re *require.Assertions, kv Base) {
	re.NoError(kv.Save("testKey", "initialValue"))
	// loader loads the test key value and writes it back.
	loader := func(txn Txn) error {
		v, err := txn.Load("testKey")
		if err != nil {
			return err
		}
		return txn.Save("testKey", v+"+loader")
	}
	// When no other writer, loader must succeed.
	re.NoError(kv.RunInTxn(context.Background(), loader))
	v, err := kv.Load("testKey")
	re.NoError(err)
	re.Equal("initialValue+loader", v)

	conflictLoader := func(txn Txn) error {
		v, err := txn.Load("testKey")
		if err != nil {
			return err
		}
		// update key after load.
		re.NoError(kv.Save("testKey", "newValue"))
		return txn.Save("testKey", v+"+conflictLoader")
	}
	// When other writer exists, loader must error.
	err = kv.RunInTxn(context.Background(), conflictLoader)
	re.True(errs.IsTxnConflict(err))
	v, err = kv.Load("testKey")
	re.NoError(err)
	re.Equal("newValue", v)
}

// testNoWriteConflict checks that a transaction which only reads is still
// validated on commit.
func testNoWriteConflict(re *require.Assertions, kv Base) {
	re.NoError(kv.Save("readOnlyKey", "1"))
	err := kv.RunInTxn(context.Background(), func(txn Txn) error {
		_, err := txn.Load("readOnlyKey")
		return err
	})
	re.NoError(err)

	err = kv.RunInTxn(context.Background(), func(txn Txn) error {
		if _, err := txn.Load("readOnlyKey"); err != nil {
			return err
		}
		return kv.Save("readOnlyKey", "2")
	})
	re.True(errs.IsTxnConflict(err))
}

func testAbsentKeyConflict(re *require.Assertions, kv Base) {
	err := kv.RunInTxn(context.Background(), func(txn Txn) error {
		v, err := txn.Load("absentKey")
		if err != nil {
			return err
		}
		re.Empty(v)
		re.NoError(kv.Save("absentKey", "created"))
		return txn.Save("absentKey", "mine")
	})
	re.True(errs.IsTxnConflict(err))
	v, err := kv.Load("absentKey")
	re.NoError(err)
	re.Equal("created", v)
}

// testSameValueConflict checks that rewriting the same value is detected on
// backends that watch modifications rather than values.
func testSameValueConflict(re *require.Assertions, kv Base) {
	re.NoError(kv.Save("sameKey", "v"))
	err := kv.RunInTxn(context.Background(), func(txn Txn) error {
		if _, err := txn.Load("sameKey"); err != nil {
			return err
		}
		re.NoError(kv.Save("sameKey", "v"))
		return txn.Save("sameKey", "w")
	})
	re.True(errs.IsTxnConflict(err))
}

func testUserError(re *require.Assertions, kv Base) {
	userErr := errors.New("user error")
	err := kv.RunInTxn(context.Background(), func(txn Txn) error {
		re.NoError(txn.Save("userErrKey", "v"))
		return userErr
	})
	re.Equal(userErr, err)
	v, err := kv.Load("userErrKey")
	re.NoError(err)
	re.Empty(v)
}

func testLowLevelTxn(re *require.Assertions, kv interface {
	Base
	CreateLowLevelTxn() LowLevelTxn
}) {
	ctx := context.Background()
	res, err := kv.CreateLowLevelTxn().If(
		LowLevelTxnCondition{Key: "txn-k1", CmpType: LowLevelCmpNotExists},
	).Then(
		LowLevelTxnOp{Key: "txn-k1", OpType: LowLevelOpPut, Value: "v1"},
		LowLevelTxnOp{Key: "txn-k2", OpType: LowLevelOpPut, Value: "v2"},
	).Commit(ctx)
	re.NoError(err)
	re.True(res.Succeeded)

	res, err = kv.CreateLowLevelTxn().If(
		LowLevelTxnCondition{Key: "txn-k1", CmpType: LowLevelCmpEqual, Value: "v1"},
		LowLevelTxnCondition{Key: "txn-k2", CmpType: LowLevelCmpNotEqual, Value: "v1"},
	).Then(
		LowLevelTxnOp{Key: "txn-k1", OpType: LowLevelOpPut, Value: "v3"},
	).Commit(ctx)
	re.NoError(err)
	re.True(res.Succeeded)
	v, err := kv.Load("txn-k1")
	re.NoError(err)
	re.Equal("v3", v)

	res, err = kv.CreateLowLevelTxn().If(
		LowLevelTxnCondition{Key: "txn-missing", CmpType: LowLevelCmpExists},
	).Then(
		LowLevelTxnOp{Key: "txn-unexpected", OpType: LowLevelOpPut, Value: "unexpected"},
	).Commit(ctx)
	re.NoError(err)
	re.False(res.Succeeded)
	v, err = kv.Load("txn-unexpected")
	re.NoError(err)
	re.Empty(v)
}
