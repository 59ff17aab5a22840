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

package logutil

import (
	"strings"
	"sync/atomic"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tikv/throttle/pkg/errs"
)

// StringToZapLogLevel translates log level string to log level.
func StringToZapLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "fatal":
		return zapcore.FatalLevel
	case "error":
		return zapcore.ErrorLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	}
	return zapcore.InfoLevel
}

// IsLevelLegal checks whether the level is legal.
func IsLevelLegal(level string) bool {
	switch strings.ToLower(level) {
	case "fatal", "error", "warn", "warning", "debug", "info":
		return true
	default:
		return false
	}
}

// SetupLogger setup the logger.
func SetupLogger(logConfig log.Config, logger **zap.Logger, logProps **log.ZapProperties, redactInfoLog bool) error {
	lg, p, err := log.InitLogger(&logConfig, zap.AddStacktrace(zapcore.FatalLevel))
	if err != nil {
		return errs.ErrInitLogger.Wrap(err).FastGenWithCause()
	}
	*logger = lg
	*logProps = p
	SetRedactLog(redactInfoLog)
	return nil
}

// LogPanic logs the panic reason and stack, then exit the process.
// Commonly used with a `defer`.
func LogPanic() {
	if e := recover(); e != nil {
		log.Fatal("panic", zap.Reflect("recover", e))
	}
}

var redactInfoLog atomic.Bool

// SetRedactLog turns redaction of sensitive log fields on or off.
func SetRedactLog(enabled bool) {
	redactInfoLog.Store(enabled)
}

// RedactString returns "?" instead of arg if redact log is enabled.
func RedactString(arg string) string {
	if redactInfoLog.Load() {
		return "?"
	}
	return arg
}

// ZapRedactString receives string argument and return omitted information in zap.Field if redact log enabled
func ZapRedactString(key, arg string) zap.Field {
	return zap.String(key, RedactString(arg))
}

// ZapRedactStrings is like ZapRedactString for a list of values such as endpoints.
func ZapRedactStrings(key string, args []string) zap.Field {
	if !redactInfoLog.Load() {
		return zap.Strings(key, args)
	}
	redacted := make([]string, len(args))
	for i := range args {
		redacted[i] = "?"
	}
	return zap.Strings(key, redacted)
}
