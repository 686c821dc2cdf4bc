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

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/gyges/pkg/ugi"
)

// gyges analyse
func Analyse() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyse",
		Aliases: []string{"analyze"},
		Short:   "Analyse a position with the engine",
		Args:    cobra.NoArgs,
		Long: heredoc.Doc(`analyse searches the given board for the given side and
			prints the engine's progress as it is reported, until the search
			reaches its time or depth limit or is interrupted.

			Moves are always printed from P1's point of view, whichever side
			is being analysed.`),

		RunE: func(cmd *cobra.Command, args []string) error {
			board, side, err := position(cmd)
			if err != nil {
				return err
			}

			session, err := startSession(cmd, side)
			if err != nil {
				return err
			}
			defer quit(session)

			if err := session.NewSearch(ugi.Analysis, &board); err != nil {
				return err
			}

			fmt.Printf("\x1b[32mAnalysing\x1b[0m for %s:\n%s\n", side, board.Pretty())

			last := ""
			err = poll(session, &board, func(bool) bool {
				if info := session.BestSearch().String(); info != last && info != "" {
					fmt.Println("info", info)
					last = info
				}

				return false
			})

			if move := session.BestSearch().BestMove; move != nil {
				fmt.Printf("\n\x1b[32mBest Move\x1b[0m: %s\n", move)
			}

			return err
		},
	}

	engineFlags(cmd)
	return cmd
}
