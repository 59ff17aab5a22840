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
package versioninfo

import (
	"fmt"

	"github.com/coreos/go-semver/semver"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Version information, set by -ldflags at build time.
var (
	ThrottleReleaseVersion = "None"
	ThrottleBuildTS        = "None"
	ThrottleGitHash        = "None"
	ThrottleGitBranch      = "None"
)

// MinSupportedVersion is the oldest server version a client of this version
// can talk to.
const MinSupportedVersion = "1.0.0"

// Status is the status of a running throttle process.
type Status struct {
	BuildTS        string `json:"build_ts"`
	Version        string `json:"version"`
	GitHash        string `json:"git_hash"`
	StartTimestamp int64  `json:"start_timestamp"`
}

// Log prints the version information.
func Log(component string) {
	log.Info("Welcome to "+component,
		zap.String("release-version", ThrottleReleaseVersion),
		zap.String("git-hash", ThrottleGitHash),
		zap.String("git-branch", ThrottleGitBranch),
		zap.String("utc-build-time", ThrottleBuildTS))
}

// Print prints the version information without log info.
func Print() {
	fmt.Println("Release Version:", ThrottleReleaseVersion)
	fmt.Println("Git Commit Hash:", ThrottleGitHash)
	fmt.Println("Git Branch:", ThrottleGitBranch)
	fmt.Println("UTC Build Time: ", ThrottleBuildTS)
}

// ParseVersion wraps semver.NewVersion and handles the leading "v".
func ParseVersion(v string) (*semver.Version, error) {
	if len(v) > 0 && v[0] == 'v' {
		v = v[1:]
	}
	return semver.NewVersion(v)
}

// MustParseVersion wraps ParseVersion and panics if error is not nil.
func MustParseVersion(v string) *semver.Version {
	ver, err := ParseVersion(v)
	if err != nil {
		log.Fatal("version string is illegal", zap.Error(err))
	}
	return ver
}

// IsCompatible reports whether a server reporting version can be used.
// Versions that do not parse, such as development builds, are accepted.
func IsCompatible(version string) bool {
	ver, err := ParseVersion(version)
	if err != nil {
		return true
	}
	return !ver.LessThan(*MustParseVersion(MinSupportedVersion))
}
