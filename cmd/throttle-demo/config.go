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
package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/storage"
	"github.com/tikv/throttle/pkg/throttle"
	"github.com/tikv/throttle/pkg/utils/configutil"
	"github.com/tikv/throttle/pkg/utils/logutil"
	"github.com/tikv/throttle/pkg/utils/metricutil"
	"github.com/tikv/throttle/pkg/utils/typeutil"
)

const (
	defaultWorkers   = 3
	defaultLogFormat = "text"
	defaultLogLevel  = "info"
	defaultPushJob   = "throttle-demo"
)

// config is the throttle-demo configuration.
type config struct {
	flagSet *flag.FlagSet

	configFile string
	version    bool

	// Workers is the number of goroutines calling the throttled request.
	Workers int `toml:"workers" json:"workers"`
	// Duration stops the demo after the given time. Zero runs until a signal.
	Duration   typeutil.Duration `toml:"duration" json:"duration"`
	StatusAddr string            `toml:"status-addr" json:"status-addr"`
	// RedactInfoLog hides the addresses of the store in the log.
	RedactInfoLog bool `toml:"redact-info-log" json:"redact-info-log"`

	Log      log.Config              `toml:"log" json:"log"`
	Storage  storage.Config          `toml:"storage" json:"storage"`
	Throttle throttle.Config         `toml:"throttle" json:"throttle"`
	Metric   metricutil.MetricConfig `toml:"metric" json:"metric"`

	logger   *zap.Logger
	logProps *log.ZapProperties
}

// newConfig returns a config bound to its command line flags.
func newConfig() *config {
	cfg := &config{}
	cfg.flagSet = flag.NewFlagSet("throttle-demo", flag.ContinueOnError)
	fs := cfg.flagSet
	fs.BoolVarP(&cfg.version, "version", "V", false, "print version information and exit")
	fs.StringVar(&cfg.configFile, "config", "", "config file")
	fs.IntVar(&cfg.Workers, "workers", 0, "number of workers")
	fs.DurationVar(&cfg.Duration.Duration, "duration", 0, "stop after the given duration, 0 runs until a signal")
	fs.StringVar(&cfg.StatusAddr, "status-addr", "", "status address, empty disables the status server")

	fs.StringVar(&cfg.Storage.Backend, "backend", "", "storage backend, one of memory, etcd, redis, leveldb")
	fs.StringVar(&cfg.Storage.RedisAddr, "redis-addr", "", "redis address")
	fs.StringSliceVar(&cfg.Storage.Endpoints, "etcd-endpoints", nil, "etcd client urls")
	fs.StringVar(&cfg.Storage.DataDir, "data-dir", "", "leveldb data directory")
	fs.StringVar(&cfg.Storage.ClockSource, "clock-source", "", "authoritative clock, one of redis, system")

	fs.DurationVar(&cfg.Throttle.MinInterval.Duration, "min-interval", 0, "minimum interval between two permits")
	fs.Int64Var(&cfg.Throttle.MaxReservedPermits, "max-reserved-permits", 0, "permits that may be reserved ahead")
	fs.StringVar(&cfg.Throttle.Resource, "resource", "", "name of the throttled resource")

	fs.StringVarP(&cfg.Log.Level, "log-level", "L", "", "log level: debug, info, warn, error, fatal")
	fs.StringVar(&cfg.Log.File.Filename, "log-file", "", "log file path")
	return cfg
}

// Parse parses flag definitions from the argument list.
func (c *config) Parse(arguments []string) error {
	// Parse first to get config file.
	err := c.flagSet.Parse(arguments)
	if err != nil {
		return errors.WithStack(err)
	}

	// Load config file if specified.
	var meta *toml.MetaData
	if c.configFile != "" {
		meta, err = configutil.ConfigFromFile(c, c.configFile)
		if err != nil {
			return err
		}
	}

	// Parse again to replace with command line options.
	err = c.flagSet.Parse(arguments)
	if err != nil {
		return errors.WithStack(err)
	}

	if len(c.flagSet.Args()) != 0 {
		return errors.Errorf("'%s' is an invalid flag", c.flagSet.Arg(0))
	}

	c.Adjust(configutil.NewConfigMetadata(meta))
	return c.Validate()
}

// Adjust is used to adjust configurations.
func (c *config) Adjust(meta *configutil.ConfigMetaData) {
	if !meta.IsDefined("workers") {
		configutil.AdjustInt(&c.Workers, defaultWorkers)
	}
	configutil.AdjustString(&c.Log.Format, defaultLogFormat)
	configutil.AdjustString(&c.Log.Level, defaultLogLevel)
	configutil.AdjustString(&c.Metric.PushJob, defaultPushJob)
	c.Storage.Adjust(meta.Child("storage"))

	minInterval := c.Throttle.MinInterval
	c.Throttle.Adjust(meta.Child("throttle"))
	// An explicit --min-interval=0 disables throttling.
	if c.flagSet.Changed("min-interval") {
		c.Throttle.MinInterval = minInterval
	}
}

// Validate checks the config.
func (c *config) Validate() error {
	if c.Workers < 1 {
		return errs.ErrInvalidConfig.FastGenByArgs("workers must be at least 1")
	}
	if c.Duration.Duration < 0 {
		return errs.ErrInvalidConfig.FastGenByArgs("duration must not be negative")
	}
	if !logutil.IsLevelLegal(c.Log.Level) {
		return errs.ErrInvalidConfig.FastGenByArgs("illegal log level " + c.Log.Level)
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	return c.Throttle.Validate()
}

// SetupLogger sets up the logger.
func (c *config) SetupLogger() error {
	return logutil.SetupLogger(c.Log, &c.logger, &c.logProps, c.RedactInfoLog)
}
