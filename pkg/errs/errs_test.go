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

import (
	"strings"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestIsNoPermit(t *testing.T) {
	re := require.New(t)
	re.True(IsNoPermit(ErrNoPermit))
	re.True(IsNoPermit(ErrNoPermit.FastGenByArgs()))
	re.True(IsNoPermit(errors.WithStack(ErrNoPermit)))
	re.False(IsNoPermit(ErrTxnConflict))
	re.False(IsNoPermit(errors.New("no permit available, try again later")))
	re.False(IsNoPermit(nil))
}

func TestIsTxnConflict(t *testing.T) {
	re := require.New(t)
	re.True(IsTxnConflict(ErrTxnConflict))
	re.True(IsTxnConflict(ErrTxnConflict.Wrap(errors.New("watched key changed")).GenWithStackByCause()))
	re.False(IsTxnConflict(ErrEtcdTxn.Wrap(errors.New("boom")).GenWithStackByCause()))
}

func TestZapError(t *testing.T) {
	re := require.New(t)
	re.Equal(zap.Skip(), ZapError(nil))

	field := ZapError(ErrRedisCommand, errors.New("connection refused"))
	re.Equal("error", field.Key)
	re.Equal(zapcore.ErrorType, field.Type)
	err, ok := field.Interface.(error)
	re.True(ok)
	re.True(strings.Contains(err.Error(), "connection refused"))
	re.True(strings.Contains(err.Error(), "Throttle:redis:ErrRedisCommand"))
}
