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

	"laptudirm.com/x/gyges/pkg/gyges"
	"laptudirm.com/x/gyges/pkg/ugi"
)

// gyges simulate
func Simulate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Let the engine play a game against itself",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`simulate lets the engine play both sides, starting with the
			given side, until one of the goals is reached. Each move is printed
			as it is played.

			The game can be cut short with --max-moves or by interrupting it.`),

		RunE: func(cmd *cobra.Command, args []string) error {
			board, side, err := position(cmd)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("max-moves")
			verbose, _ := cmd.Flags().GetBool("boards")

			session, err := startSession(cmd, side)
			if err != nil {
				return err
			}
			defer quit(session)

			game := gyges.NewGame(board)
			if err := session.NewSearch(ugi.Auto, game); err != nil {
				return err
			}

			mover, moves := session.Side(), 0
			err = poll(session, game, func(moved bool) bool {
				if !moved {
					return false
				}

				moves++
				fmt.Printf("%3d. %s %s\n", moves, mover, game.LastMove())
				if verbose {
					result := game.Snapshot()
					fmt.Println(result.Pretty())
				}

				if game.GameOver() {
					fmt.Printf("\n\x1b[32m%s wins\x1b[0m after %d moves\n", mover, moves)
					return true
				}

				if limit > 0 && moves >= limit {
					session.Stop()
					fmt.Printf("\nStopped after %d moves\n", moves)
					return true
				}

				mover = mover.Other()
				return false
			})

			if err != nil {
				return err
			}

			result := game.Snapshot()
			fmt.Printf("\n%s\nboard: %s\n", result.Pretty(), result)
			return nil
		},
	}

	engineFlags(cmd)
	cmd.Flags().IntP("max-moves", "n", 0, "Stop after this many moves, 0 for no limit")
	cmd.Flags().Bool("boards", false, "Print the board after every move")
	return cmd
}
