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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"laptudirm.com/x/gyges/internal/util"
	"laptudirm.com/x/gyges/pkg/gyges"
	"laptudirm.com/x/gyges/pkg/ugi"
)

// gyges move
func Move() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Let the engine play one move for a side",
		Args:  cobra.NoArgs,

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

			game := gyges.NewGame(board)
			if err := session.NewSearch(ugi.Single, game); err != nil {
				return err
			}

			util.StartSpinner(fmt.Sprintf("Thinking for %s", side))
			err = poll(session, game, func(moved bool) bool { return moved })
			util.PauseSpinner()

			if err != nil {
				return err
			}

			move := game.LastMove()
			if move == nil {
				return errors.New("engine did not play a move")
			}

			result := game.Snapshot()
			fmt.Printf("\x1b[32m%s plays\x1b[0m: %s\n\n%s\n", side, move, result.Pretty())
			fmt.Println("board:", result.String())
			return nil
		},
	}

	engineFlags(cmd)
	return cmd
}
