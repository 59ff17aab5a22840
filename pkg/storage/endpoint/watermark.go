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
package endpoint

import (
	"strconv"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/storage/kv"
)

// WatermarkStorage defines the storage operations on the watermark of a
// throttled resource. A watermark is the valid time, in unix milliseconds,
// of the last permit granted. An absent watermark reads as 0.
type WatermarkStorage interface {
	LoadWatermark(key string) (int64, error)
	LoadWatermarkInTxn(txn kv.Txn, key string) (int64, error)
	SaveWatermarkInTxn(txn kv.Txn, key string, watermark int64) error
}

var _ WatermarkStorage = (*StorageEndpoint)(nil)

// LoadWatermark reads the watermark outside of any transaction.
func (se *StorageEndpoint) LoadWatermark(key string) (int64, error) {
	value, err := se.Load(key)
	if err != nil {
		return 0, err
	}
	return decodeWatermark(key, value)
}

// LoadWatermarkInTxn reads the watermark and makes the transaction depend on it.
func (*StorageEndpoint) LoadWatermarkInTxn(txn kv.Txn, key string) (int64, error) {
	value, err := txn.Load(key)
	if err != nil {
		return 0, err
	}
	return decodeWatermark(key, value)
}

// SaveWatermarkInTxn stages the new watermark in the transaction.
func (*StorageEndpoint) SaveWatermarkInTxn(txn kv.Txn, key string, watermark int64) error {
	return txn.Save(key, strconv.FormatInt(watermark, 10))
}

func decodeWatermark(key, value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	watermark, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errs.ErrWatermarkCorrupted.Wrap(err).GenWithStackByArgs(key, value)
	}
	return watermark, nil
}
