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
package throttlectl

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pingcap/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/tikv/throttle/pkg/api"
	"github.com/tikv/throttle/pkg/clock"
	"github.com/tikv/throttle/pkg/storage/kv"
	"github.com/tikv/throttle/pkg/throttle"
	"github.com/tikv/throttle/pkg/utils/typeutil"
)

func execute(re *require.Assertions, args ...string) string {
	cmd := GetRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	re.NoError(cmd.Execute())
	return out.String()
}

func TestCommands(t *testing.T) {
	re := require.New(t)
	defer log.SetLevel(zapcore.InfoLevel)

	cfg := throttle.NewConfig()
	cfg.MinInterval = typeutil.NewDuration(time.Hour)
	cfg.MaxReservedPermits = 1
	now := clock.NewManual(time.Now())
	reserver := throttle.NewReserver(kv.NewMemoryKV(), clock.NewManualSource(now), now, cfg)
	svr := httptest.NewServer(api.NewHandler(api.NewService(reserver, "memory", nil)))
	defer svr.Close()

	re.Contains(execute(re, "ping", "-u", svr.URL), "time:")
	re.Contains(execute(re, "status", "-u", svr.URL), `"backend": "memory"`)
	re.Contains(execute(re, "config", "-u", svr.URL), `"min-interval": "1h0m0s"`)
	re.Contains(execute(re, "watermark", "-u", svr.URL), "no permit has been granted yet")

	re.Contains(execute(re, "reserve", "-u", svr.URL), "the permit can be used now")
	re.Contains(execute(re, "reserve", "-u", svr.URL), "wait ")
	re.Contains(execute(re, "reserve", "-u", svr.URL), "No permit available, try again later.")
	re.Contains(execute(re, "watermark", "-u", svr.URL), "permits are reserved for the next")

	re.Contains(execute(re, "log", "debug", "-u", svr.URL), "Success!")
	re.Equal(zapcore.DebugLevel, log.GetLevel())

	// Prefix matching.
	re.Contains(execute(re, "water", "-u", svr.URL), "REDIS_THROTTLE_LAST_TIMESTAMP")
}

func TestUnreachable(t *testing.T) {
	re := require.New(t)
	svr := httptest.NewServer(nil)
	url := svr.URL
	svr.Close()
	re.Contains(execute(re, "status", "-u", url), "Failed to get status")
}
