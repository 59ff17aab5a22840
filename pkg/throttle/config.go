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
package throttle

import (
	"time"

	"github.com/tikv/throttle/pkg/errs"
	"github.com/tikv/throttle/pkg/utils/configutil"
	"github.com/tikv/throttle/pkg/utils/keypath"
	"github.com/tikv/throttle/pkg/utils/typeutil"
)

const (
	defaultMinInterval           = 3 * time.Second
	defaultMaxTransactionRetries = 3
)

// Config is the configuration of a throttled resource.
type Config struct {
	// MinInterval is the minimum time between two permits. It is used with
	// millisecond precision. Zero disables throttling.
	MinInterval typeutil.Duration `toml:"min-interval" json:"min-interval"`
	// MaxReservedPermits is how many future permits may be handed out ahead
	// of time. Zero means a caller is refused unless it can run right away.
	MaxReservedPermits int64 `toml:"max-reserved-permits" json:"max-reserved-permits"`
	// MaxTransactionRetries is the number of reservation attempts made
	// before giving up under contention.
	MaxTransactionRetries int    `toml:"max-transaction-retries" json:"max-transaction-retries"`
	Namespace             string `toml:"namespace" json:"namespace"`
	Resource              string `toml:"resource" json:"resource"`
	// MaxAttemptsPerSecond caps the reservation attempts of this process.
	// Zero disables the cap.
	MaxAttemptsPerSecond float64 `toml:"max-attempts-per-second" json:"max-attempts-per-second"`
}

// NewConfig returns a Config with the default values.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.Adjust(nil)
	return cfg
}

// Adjust fills the unset items with default values. An explicit zero
// min-interval in the config file is kept.
func (c *Config) Adjust(meta *configutil.ConfigMetaData) {
	if !meta.IsDefined("min-interval") && c.MinInterval.Duration == 0 {
		c.MinInterval = typeutil.NewDuration(defaultMinInterval)
	}
	if !meta.IsDefined("max-transaction-retries") {
		configutil.AdjustInt(&c.MaxTransactionRetries, defaultMaxTransactionRetries)
	}
	configutil.AdjustString(&c.Namespace, keypath.DefaultNamespace)
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.MinInterval.Duration < 0 {
		return errs.ErrInvalidConfig.FastGenByArgs("min-interval must not be negative")
	}
	if c.MaxReservedPermits < 0 {
		return errs.ErrInvalidConfig.FastGenByArgs("max-reserved-permits must not be negative")
	}
	if c.MaxTransactionRetries < 1 {
		return errs.ErrInvalidConfig.FastGenByArgs("max-transaction-retries must be at least 1")
	}
	if c.MaxAttemptsPerSecond < 0 {
		return errs.ErrInvalidConfig.FastGenByArgs("max-attempts-per-second must not be negative")
	}
	return nil
}

// MinIntervalMs returns the minimum interval in milliseconds.
func (c *Config) MinIntervalMs() int64 {
	return c.MinInterval.Milliseconds()
}

// WatermarkKey returns the store key of the throttled resource.
func (c *Config) WatermarkKey() string {
	return keypath.WatermarkKey(c.Namespace, c.Resource)
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	cfg := *c
	return &cfg
}
