// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"laptudirm.com/x/gyges/pkg/common"
)

// gyges config
func Config() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration in use",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			if show, _ := cmd.Flags().GetBool("path"); show {
				path := cmd.Flag("config").Value.String()
				if path == "" {
					path = common.ConfigFile
				}

				fmt.Println(path)
				return nil
			}

			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				if err := common.TryMkdir(common.Directory); err != nil {
					return err
				}

				fmt.Printf("\x1b[32mResetting\x1b[0m %s\n", common.ConfigFile)
				return os.WriteFile(common.ConfigFile, common.BaseConfigFile, 0644)
			}

			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			file, err := config.Marshal()
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(file)
			return err
		},
	}

	cmd.Flags().Bool("path", false, "Only print the config file's path")
	cmd.Flags().Bool("reset", false, "Overwrite the config file with the defaults")
	return cmd
}
