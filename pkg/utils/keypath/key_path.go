// Copyright 2023 TiKV Project Authors.
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
package keypath

import "strings"

const (
	// DefaultNamespace is the namespace used when none is configured.
	DefaultNamespace = "REDIS_THROTTLE"
	watermarkSuffix  = "LAST_TIMESTAMP"
	keySeparator     = "_"
)

// WatermarkKey returns the key holding the watermark of the given resource, which is:
//  1. for the default namespace without a resource:
//     REDIS_THROTTLE_LAST_TIMESTAMP
//  2. otherwise:
//     {namespace}_{resource}_LAST_TIMESTAMP
//
// An empty namespace falls back to DefaultNamespace.
func WatermarkKey(namespace, resource string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	parts := []string{namespace}
	if resource != "" {
		parts = append(parts, resource)
	}
	parts = append(parts, watermarkSuffix)
	return strings.Join(parts, keySeparator)
}
