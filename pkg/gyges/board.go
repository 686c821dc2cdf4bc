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

// Package gyges implements the board and move representation of the game
// Gyges, along with the wire encodings used to talk to UGI engines.
package gyges

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// GridN is the number of squares in the 6x6 playing grid.
	GridN = 36

	// SouthGoal and NorthGoal are the indexes of the goal cells below row 0
	// and above row 5. A piece in a goal cell ends the game.
	SouthGoal = 36
	NorthGoal = 37

	// CellN is the total number of cells in a Board.
	CellN = 38
)

// Board is a Gyges position. Cells [0, 36) are the grid in row-major order
// and the last two cells are the goals. Each cell holds the size of the
// piece on it, or zero if it is empty.
type Board [CellN]int

// StartingBoard is the position every game of Gyges starts from.
var StartingBoard = Board{
	3, 2, 1, 1, 2, 3,
	0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0,
	3, 2, 1, 1, 2, 3,
	0, 0,
}

var ErrMalformedBoard = errors.New("gyges: malformed board")

// ParseBoard parses a board string in the natural orientation, as produced
// by board.Serialize(P1).
func ParseBoard(str string) (Board, error) {
	var board Board

	str = strings.TrimSpace(str)
	if len(str) != CellN {
		return board, fmt.Errorf("%w: want %d cells, got %d", ErrMalformedBoard, CellN, len(str))
	}

	for i, char := range []byte(str) {
		if char < '0' || char > '3' {
			return board, fmt.Errorf("%w: invalid piece %q at cell %d", ErrMalformedBoard, char, i)
		}

		board[i] = int(char - '0')
	}

	return board, nil
}

// Serialize encodes the board in the format expected by the setpos command.
// For P2 the grid is mirrored, since engines always search from P1's point
// of view, but the two goal cells are emitted in their original order.
func (board *Board) Serialize(side Side) string {
	var str strings.Builder
	str.Grow(CellN)

	if side == P2 {
		for i := GridN - 1; i >= 0; i-- {
			str.WriteByte(digit(board[i]))
		}
	} else {
		for i := 0; i < GridN; i++ {
			str.WriteByte(digit(board[i]))
		}
	}

	str.WriteByte(digit(board[SouthGoal]))
	str.WriteByte(digit(board[NorthGoal]))
	return str.String()
}

func digit(n int) byte {
	if n < 0 || n > 3 {
		panic(fmt.Sprintf("gyges: invalid piece %d on board", n))
	}

	return byte('0' + n)
}

// String returns the natural orientation serialization of the board.
func (board Board) String() string {
	return board.Serialize(P1)
}

// GameOver checks if one of the goal cells has been reached.
func (board *Board) GameOver() bool {
	return board[SouthGoal] != 0 || board[NorthGoal] != 0
}

// MakeMove plays the given move on the board. The move is not checked for
// legality, the engine and the caller are trusted for that.
func (board *Board) MakeMove(move Move) {
	switch len(move) {
	case 2:
		piece := board[move[0]]
		board[move[0]] = 0
		board[move[1]] = piece

	case 3:
		// The moving piece lands on an occupied cell and the piece there
		// is placed on the final cell.
		moving, displaced := board[move[0]], board[move[1]]
		board[move[0]] = 0
		board[move[1]] = moving
		board[move[2]] = displaced
	}
}

// Flipped returns the board rotated by 180 degrees. The goal cells are
// swapped along with the grid.
func (board *Board) Flipped() Board {
	var flipped Board
	for i := 0; i < GridN; i++ {
		flipped[GridN-1-i] = board[i]
	}

	flipped[SouthGoal] = board[NorthGoal]
	flipped[NorthGoal] = board[SouthGoal]
	return flipped
}

// Snapshot returns a copy of the board. Together with MakeMove it lets a
// *Board be used directly as a Position.
func (board *Board) Snapshot() Board {
	return *board
}

// Pretty renders the board as text, P2's home row first and P1's last.
func (board *Board) Pretty() string {
	var str strings.Builder

	fmt.Fprintf(&str, "      %s\n", cell(board[NorthGoal]))
	for row := 5; row >= 0; row-- {
		str.WriteString(" ")
		for col := 0; col < 6; col++ {
			str.WriteString(" ")
			str.WriteString(cell(board[row*6+col]))
		}
		str.WriteString("\n")
	}
	fmt.Fprintf(&str, "      %s\n", cell(board[SouthGoal]))

	return str.String()
}

func cell(piece int) string {
	if piece == 0 {
		return "."
	}

	return fmt.Sprint(piece)
}
