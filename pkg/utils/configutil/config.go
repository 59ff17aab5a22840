// Copyright 2022 TiKV Project Authors.
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

package configutil

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"

	"github.com/tikv/throttle/pkg/utils/typeutil"
)

// ConfigMetaData is a utility to test if a configuration is defined.
type ConfigMetaData struct {
	meta *toml.MetaData
	path []string
}

// NewConfigMetadata creates a new ConfigMetaData.
func NewConfigMetadata(meta *toml.MetaData) *ConfigMetaData {
	return &ConfigMetaData{meta: meta}
}

// IsDefined checks if the key is defined in the configuration.
func (m *ConfigMetaData) IsDefined(key string) bool {
	if m == nil || m.meta == nil {
		return false
	}
	keys := append([]string(nil), m.path...)
	keys = append(keys, key)
	return m.meta.IsDefined(keys...)
}

// Child creates a new ConfigMetaData with the path appended.
func (m *ConfigMetaData) Child(path ...string) *ConfigMetaData {
	if m == nil {
		return &ConfigMetaData{path: path}
	}
	newPath := append([]string(nil), m.path...)
	newPath = append(newPath, path...)
	return &ConfigMetaData{
		meta: m.meta,
		path: newPath,
	}
}

// CheckUndecoded checks if there are any undefined items in the configuration.
func (m *ConfigMetaData) CheckUndecoded() error {
	if m == nil || m.meta == nil {
		return nil
	}
	undecoded := m.meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}
	return errors.New("Config contains undefined item: " + strings.Join(keys, ", "))
}

// ConfigFromFile loads config from file.
func ConfigFromFile(config any, path string) (*toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, config)
	return &meta, errors.WithStack(err)
}

// AdjustString adjusts the value of a string variable.
func AdjustString(v *string, defValue string) {
	if len(*v) == 0 {
		*v = defValue
	}
}

// AdjustInt adjusts the value of an int variable.
func AdjustInt(v *int, defValue int) {
	if *v == 0 {
		*v = defValue
	}
}

// AdjustInt64 adjusts the value of an int64 variable.
func AdjustInt64(v *int64, defValue int64) {
	if *v == 0 {
		*v = defValue
	}
}

// AdjustFloat64 adjusts the value of a float64 variable.
func AdjustFloat64(v *float64, defValue float64) {
	if *v == 0 {
		*v = defValue
	}
}

// AdjustDuration adjusts the value of a Duration variable.
func AdjustDuration(v *typeutil.Duration, defValue time.Duration) {
	if v.Duration <= 0 {
		v.Duration = defValue
	}
}
