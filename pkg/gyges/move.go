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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Side identifies the player whose turn is being searched.
type Side int8

const (
	P1 Side = +1
	P2 Side = -1
)

// Other returns the opponent of the given side.
func (side Side) Other() Side {
	return -side
}

// Index maps P1 to 0 and P2 to 1, for use with per-side arrays.
func (side Side) Index() int {
	if side == P2 {
		return 1
	}

	return 0
}

func (side Side) String() string {
	switch side {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return "P?"
	}
}

// ParseSide parses a side from its name, "p1" or "p2" in any case, or from
// its numeric value.
func ParseSide(str string) (Side, error) {
	switch strings.ToLower(str) {
	case "p1", "1", "+1":
		return P1, nil
	case "p2", "2", "-1":
		return P2, nil
	default:
		return 0, fmt.Errorf("gyges: invalid side %q", str)
	}
}

// Move is a sequence of cell indexes. A simple move is {source, target}. A
// replacement move is {source, landing, final}: the moving piece lands on
// an occupied cell and the piece there is moved to the final cell.
type Move []int

var ErrMalformedMove = errors.New("gyges: malformed move")

// ParseMove parses a move from its |-separated wire token, like 4|10.
func ParseMove(token string) (Move, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, fmt.Errorf("%w: %q has %d cells", ErrMalformedMove, token, len(parts))
	}

	move := make(Move, len(parts))
	for i, part := range parts {
		index, err := strconv.Atoi(part)
		if err != nil || index < 0 || index >= CellN {
			return nil, fmt.Errorf("%w: %q has invalid cell %q", ErrMalformedMove, token, part)
		}

		move[i] = index
	}

	return move, nil
}

// Flip translates the move to the other player's frame of reference. Grid
// cells are rotated by 180 degrees and the goals swap identities. Flip is
// its own inverse.
func (move Move) Flip() Move {
	if move == nil {
		return nil
	}

	flipped := make(Move, len(move))
	for i, index := range move {
		switch index {
		case SouthGoal:
			flipped[i] = NorthGoal
		case NorthGoal:
			flipped[i] = SouthGoal
		default:
			flipped[i] = GridN - 1 - index
		}
	}

	return flipped
}

// Oriented returns the move as seen by P1, given that it was generated
// from the given side's point of view.
func (move Move) Oriented(side Side) Move {
	if side == P2 {
		return move.Flip()
	}

	return move
}

// Equal checks if both the moves visit the same cells in the same order.
func (move Move) Equal(other Move) bool {
	if len(move) != len(other) {
		return false
	}

	for i := range move {
		if move[i] != other[i] {
			return false
		}
	}

	return true
}

// String returns the wire token of the move.
func (move Move) String() string {
	parts := make([]string, len(move))
	for i, index := range move {
		parts[i] = strconv.Itoa(index)
	}

	return strings.Join(parts, "|")
}
