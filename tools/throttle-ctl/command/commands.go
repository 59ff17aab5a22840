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
package command

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"github.com/tikv/throttle/pkg/api"
	"github.com/tikv/throttle/pkg/throttle"
	"github.com/tikv/throttle/pkg/utils/logutil"
	"github.com/tikv/throttle/pkg/versioninfo"
)

// DefaultURL is the address of a status server started with the default config.
const DefaultURL = "http://127.0.0.1:10080"

// now is replaced in tests.
var now = time.Now

// NewPingCommand returns a ping subcommand of rootCmd.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "show the total time spend ping the throttle service",
		Run:   showPingCommandFunc,
	}
}

func showPingCommandFunc(cmd *cobra.Command, _ []string) {
	start := now()
	if _, err := doRequest(cmd, api.Ping, http.MethodGet, nil); err != nil {
		cmd.Println(err)
		return
	}
	cmd.Println("time:", now().Sub(start))
}

// NewStatusCommand returns a status subcommand of rootCmd.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "show the build, backend and workload of the throttle service",
		Run:   showStatusCommandFunc,
	}
}

func showStatusCommandFunc(cmd *cobra.Command, _ []string) {
	r, err := doRequest(cmd, api.Status, http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to get status: %s\n", err)
		return
	}
	var status api.StatusResponse
	if err := json.Unmarshal([]byte(r), &status); err != nil {
		cmd.Printf("Failed to parse status: %s\n", err)
		return
	}
	if !versioninfo.IsCompatible(status.Version) {
		cmd.Printf("Warning: server version %s is older than %s\n", status.Version, versioninfo.MinSupportedVersion)
	}
	cmd.Println(r)
	cmd.Println("uptime:", units.HumanDuration(now().Sub(time.Unix(status.StartTimestamp, 0))))
}

// NewConfigCommand returns a config subcommand of rootCmd.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "show the throttle config",
		Run:   showConfigCommandFunc,
	}
}

func showConfigCommandFunc(cmd *cobra.Command, _ []string) {
	r, err := doRequest(cmd, api.Config, http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to get config: %s\n", err)
		return
	}
	cmd.Println(r)
}

// NewWatermarkCommand returns a watermark subcommand of rootCmd.
func NewWatermarkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watermark",
		Short: "show the valid time of the last permit granted",
		Run:   showWatermarkCommandFunc,
	}
}

func showWatermarkCommandFunc(cmd *cobra.Command, _ []string) {
	r, err := doRequest(cmd, api.Watermark, http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to get watermark: %s\n", err)
		return
	}
	var watermark api.WatermarkResponse
	if err := json.Unmarshal([]byte(r), &watermark); err != nil {
		cmd.Printf("Failed to parse watermark: %s\n", err)
		return
	}
	cmd.Println(r)
	if watermark.Watermark == 0 {
		cmd.Println("no permit has been granted yet")
		return
	}
	cmd.Println(describeWatermark(watermark.Watermark, now()))
}

func describeWatermark(watermarkMs int64, at time.Time) string {
	validAt := time.UnixMilli(watermarkMs)
	if validAt.After(at) {
		return "permits are reserved for the next " + units.HumanDuration(validAt.Sub(at))
	}
	return "the last permit was granted " + units.HumanDuration(at.Sub(validAt)) + " ago"
}

// NewReserveCommand returns a reserve subcommand of rootCmd.
func NewReserveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reserve",
		Short: "reserve one permit, the caller is responsible for waiting",
		Run:   reserveCommandFunc,
	}
}

func reserveCommandFunc(cmd *cobra.Command, _ []string) {
	r, err := doRequest(cmd, api.Permits, http.MethodPost, nil)
	if err != nil {
		if statusErr, ok := asStatusError(err); ok && statusErr.Code == http.StatusTooManyRequests {
			cmd.Println("No permit available, try again later.")
			return
		}
		cmd.Printf("Failed to reserve a permit: %s\n", err)
		return
	}
	var permit throttle.Permit
	if err := json.Unmarshal([]byte(r), &permit); err != nil {
		cmd.Printf("Failed to parse permit: %s\n", err)
		return
	}
	cmd.Println(r)
	if permit.Immediate() {
		cmd.Println("the permit can be used now")
		return
	}
	cmd.Printf("wait %s before using the permit\n", permit.WaitDuration())
}

// NewLogCommand returns a log subcommand of rootCmd.
func NewLogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log [fatal|error|warn|info|debug]",
		Short: "set log level",
		Args:  cobra.ExactArgs(1),
		Run:   logCommandFunc,
	}
}

func logCommandFunc(cmd *cobra.Command, args []string) {
	level := strings.ToLower(args[0])
	if !logutil.IsLevelLegal(level) {
		cmd.Printf("Illegal log level %s\n", args[0])
		return
	}
	data, err := json.Marshal(level)
	if err != nil {
		cmd.Println(err)
		return
	}
	if _, err := doRequest(cmd, api.AdminLog, http.MethodPost, strings.NewReader(string(data))); err != nil {
		cmd.Printf("Failed to set log level: %s\n", err)
		return
	}
	cmd.Println("Success!")
}
