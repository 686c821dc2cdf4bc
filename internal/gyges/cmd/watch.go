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
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/gyges/internal/gyges/watch"
	"laptudirm.com/x/gyges/pkg/gyges"
)

// gyges watch
func Watch() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive terminal board driven by the engine",
		Args:  cobra.NoArgs,
		Long: heredoc.Doc(`watch shows the board in the terminal and lets the engine
			analyse it, play single moves for either side, or simulate the
			rest of the game. Moves played are kept in a history which can
			be browsed with the arrow keys.

			Press q to quit.`),

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

			return watch.Run(session, gyges.NewGame(board))
		},
	}

	engineFlags(cmd)
	return cmd
}
