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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tikv/throttle/pkg/versioninfo"
	"github.com/tikv/throttle/tools/throttle-ctl/command"
)

func init() {
	cobra.EnablePrefixMatching = true
}

// GetRootCmd is exposed for integration tests.
func GetRootCmd() *cobra.Command {
	var version bool
	rootCmd := &cobra.Command{
		Use:   "throttle-ctl",
		Short: "Distributed throttle control",
		Run: func(cmd *cobra.Command, _ []string) {
			if version {
				versioninfo.Print()
				return
			}
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("url", "u", command.DefaultURL, "address of the throttle status server")
	rootCmd.Flags().BoolVarP(&version, "version", "V", false, "Print version information and exit.")

	rootCmd.AddCommand(
		command.NewPingCommand(),
		command.NewStatusCommand(),
		command.NewConfigCommand(),
		command.NewWatermarkCommand(),
		command.NewReserveCommand(),
		command.NewLogCommand(),
	)

	rootCmd.SilenceErrors = true
	return rootCmd
}

// Start runs a command.
func Start(args []string) {
	rootCmd := GetRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
