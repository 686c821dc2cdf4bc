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

package gyges

// Entry is a single point in a game's history: the board reached and the
// move which reached it. The first entry of a game has no move.
type Entry struct {
	Board Board
	Move  Move
}

// NewGame creates a new game starting from the given board.
func NewGame(board Board) *Game {
	return &Game{
		board:   board,
		history: []Entry{{Board: board}},
	}
}

// Game is a board along with the history of moves played on it. A game
// may be rewound to any point in its history, and making a move from a
// rewound position discards the entries after it.
type Game struct {
	board   Board
	history []Entry
	current int
}

// Snapshot returns a copy of the current board.
func (game *Game) Snapshot() Board {
	return game.board
}

// MakeMove plays the given move and records it in the history.
func (game *Game) MakeMove(move Move) {
	game.board.MakeMove(move)

	game.history = append(game.history[:game.current+1], Entry{
		Board: game.board,
		Move:  append(Move(nil), move...),
	})
	game.current++
}

// Load sets the current board to the one at the given history index. It
// reports false if the index is out of bounds.
func (game *Game) Load(i int) bool {
	if i < 0 || i >= len(game.history) {
		return false
	}

	game.current = i
	game.board = game.history[i].Board
	return true
}

// Back and Forward step one entry through the history.
func (game *Game) Back() bool    { return game.Load(game.current - 1) }
func (game *Game) Forward() bool { return game.Load(game.current + 1) }

// Reset starts the game over from the given board.
func (game *Game) Reset(board Board) {
	*game = *NewGame(board)
}

// Current returns the index of the current history entry.
func (game *Game) Current() int {
	return game.current
}

// History returns a copy of the game's history.
func (game *Game) History() []Entry {
	return append([]Entry(nil), game.history...)
}

// LastMove returns the move which reached the current board, if any.
func (game *Game) LastMove() Move {
	return game.history[game.current].Move
}

// GameOver checks if the current board is terminal.
func (game *Game) GameOver() bool {
	return game.board.GameOver()
}
