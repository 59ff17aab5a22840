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
	"path"
	"time"

	"github.com/pingcap/log"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/etcdutil"
	"github.com/tikv/throttle/pkg/utils/syncutil"
)

const etcdBackend = "etcd"

type etcdKVBase struct {
	client   *clientv3.Client
	rootPath string
}

// NewEtcdKVBase creates a new etcd kv. All keys are stored under rootPath.
// The client is closed together with the kv.
func NewEtcdKVBase(client *clientv3.Client, rootPath string) Base {
	return &etcdKVBase{
		client:   client,
		rootPath: rootPath,
	}
}

func (kv *etcdKVBase) key(key string) string {
	return path.Join(kv.rootPath, key)
}

// Load gets a value for a given key.
func (kv *etcdKVBase) Load(key string) (string, error) {
	value, err := etcdutil.GetValue(kv.client, kv.key(key))
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Save stores a key-value pair.
func (kv *etcdKVBase) Save(key, value string) error {
	key = kv.key(key)
	txn := NewSlowLogTxn(kv.client.Ctx(), kv.client)
	resp, err := txn.Then(clientv3.OpPut(key, value)).Commit()
	if err != nil {
		e := errs.ErrEtcdKVPut.Wrap(err).GenWithStackByCause()
		log.Error("save to etcd meet error", zap.String("key", key), zap.String("value", value), errs.ZapError(e))
		return e
	}
	if !resp.Succeeded {
		return errs.ErrEtcdTxn.FastGenByArgs()
	}
	return nil
}

// Close closes the etcd client.
func (kv *etcdKVBase) Close() error {
	if err := kv.client.Close(); err != nil {
		return errs.ErrCloseEtcdClient.Wrap(err).GenWithStackByCause()
	}
	return nil
}

// SlowLogTxn wraps etcd transaction and log slow one.
type SlowLogTxn struct {
	clientv3.Txn
	cancel context.CancelFunc
}

// NewSlowLogTxn create a SlowLogTxn bounded by the default request timeout.
func NewSlowLogTxn(ctx context.Context, client *clientv3.Client) clientv3.Txn {
	ctx, cancel := context.WithTimeout(ctx, etcdutil.DefaultRequestTimeout)
	return &SlowLogTxn{
		Txn:    client.Txn(ctx),
		cancel: cancel,
	}
}

// If takes a list of comparison. If all comparisons passed in succeed,
// the operations passed into Then() will be executed. Or the operations
// passed into Else() will be executed.
func (t *SlowLogTxn) If(cs ...clientv3.Cmp) clientv3.Txn {
	t.Txn = t.Txn.If(cs...)
	return t
}

// Then takes a list of operations. The Ops list will be executed, if the
// comparisons passed in If() succeed.
func (t *SlowLogTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.Txn = t.Txn.Then(ops...)
	return t
}

// Commit implements Txn Commit interface.
func (t *SlowLogTxn) Commit() (*clientv3.TxnResponse, error) {
	start := time.Now()
	resp, err := t.Txn.Commit()
	t.cancel()

	cost := time.Since(start)
	if cost > etcdutil.DefaultSlowRequestTime {
		log.Warn("txn runs too slow",
			zap.Reflect("response", resp),
			zap.Duration("cost", cost),
			errs.ZapError(err))
	}
	return resp, err
}

// etcdTxn implements kv.Txn. Every Load pins the ModRevision of the key, so
// the commit fails if anyone wrote the key in between, even with the same value.
type etcdTxn struct {
	kv  *etcdKVBase
	ctx context.Context
	// mu protects conditions and operations.
	mu         syncutil.Mutex
	pinned     map[string]struct{}
	conditions []clientv3.Cmp
	operations []clientv3.Op
}

// RunInTxn runs user provided function f in a transaction.
func (kv *etcdKVBase) RunInTxn(ctx context.Context, f func(txn Txn) error) error {
	txn := &etcdTxn{
		kv:     kv,
		ctx:    ctx,
		pinned: make(map[string]struct{}),
	}
	if err := f(txn); err != nil {
		return err
	}
	start := time.Now()
	err := txn.commit()
	observeCommit(etcdBackend, start, err)
	return err
}

// Save puts a put operation into operations.
func (txn *etcdTxn) Save(key, value string) error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	txn.operations = append(txn.operations, clientv3.OpPut(txn.kv.key(key), value))
	return nil
}

// Load loads the target value from etcd and puts a comparator into conditions.
func (txn *etcdTxn) Load(key string) (string, error) {
	key = txn.kv.key(key)
	ctx, cancel := context.WithTimeout(txn.ctx, etcdutil.DefaultRequestTimeout)
	defer cancel()
	resp, err := txn.kv.client.Get(ctx, key)
	if err != nil {
		return "", errs.ErrEtcdKVGet.Wrap(err).GenWithStackByCause()
	}

	var (
		// A key that does not exist has ModRevision 0.
		revision int64
		value    string
	)
	switch len(resp.Kvs) {
	case 0:
	case 1:
		revision = resp.Kvs[0].ModRevision
		value = string(resp.Kvs[0].Value)
	default:
		return "", errs.ErrEtcdKVGetResponse.GenWithStackByArgs(resp.Kvs)
	}

	txn.mu.Lock()
	defer txn.mu.Unlock()
	if _, ok := txn.pinned[key]; !ok {
		txn.pinned[key] = struct{}{}
		txn.conditions = append(txn.conditions, clientv3.Compare(clientv3.ModRevision(key), "=", revision))
	}
	return value, nil
}

// commit performs the operations in an etcd transaction guarded by the loaded revisions.
func (txn *etcdTxn) commit() error {
	txn.mu.Lock()
	defer txn.mu.Unlock()
	resp, err := NewSlowLogTxn(txn.ctx, txn.kv.client).
		If(txn.conditions...).
		Then(txn.operations...).
		Commit()
	if err != nil {
		return errs.ErrEtcdTxn.Wrap(err).GenWithStackByCause()
	}
	if !resp.Succeeded {
		return errs.ErrTxnConflict.FastGenByArgs()
	}
	return nil
}
