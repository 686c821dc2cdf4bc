package gyges

import (
	"errors"
	"testing"
)

func testBoard() Board {
	var board Board
	for i := range board {
		board[i] = i % 4
	}
	return board
}

func TestSerializeP1IsNaturalOrder(t *testing.T) {
	board := testBoard()
	str := board.Serialize(P1)

	if len(str) != CellN {
		t.Fatalf("Serialize(P1) length = %d, want %d", len(str), CellN)
	}
	for i, char := range []byte(str) {
		if char < '0' || char > '9' {
			t.Fatalf("Serialize(P1) has non-digit %q at %d", char, i)
		}
		if int(char-'0') != board[i] {
			t.Fatalf("Serialize(P1)[%d] = %c, want %d", i, char, board[i])
		}
	}
}

func TestSerializeP2MirrorsGridButKeepsGoals(t *testing.T) {
	board := testBoard()
	board[SouthGoal], board[NorthGoal] = 1, 2
	str := board.Serialize(P2)

	if len(str) != CellN {
		t.Fatalf("Serialize(P2) length = %d, want %d", len(str), CellN)
	}
	for i := 0; i < GridN; i++ {
		if int(str[i]-'0') != board[GridN-1-i] {
			t.Fatalf("Serialize(P2)[%d] = %c, want %d", i, str[i], board[GridN-1-i])
		}
	}
	if str[SouthGoal] != '1' || str[NorthGoal] != '2' {
		t.Fatalf("Serialize(P2) goals = %q, want \"12\"", str[GridN:])
	}
}

func TestStartingBoardSerialization(t *testing.T) {
	want := "32112300000000000000000000000032112300"
	if got := StartingBoard.Serialize(P1); got != want {
		t.Fatalf("Serialize(P1) = %q, want %q", got, want)
	}
	// The starting position is symmetric under rotation.
	if got := StartingBoard.Serialize(P2); got != want {
		t.Fatalf("Serialize(P2) = %q, want %q", got, want)
	}
}

func TestParseBoard(t *testing.T) {
	board := testBoard()
	got, err := ParseBoard(board.String())
	if err != nil {
		t.Fatalf("ParseBoard error: %v", err)
	}
	if got != board {
		t.Fatalf("ParseBoard = %v, want %v", got, board)
	}

	for _, str := range []string{"", "123", StartingBoard.String() + "0", "4" + StartingBoard.String()[1:]} {
		if _, err := ParseBoard(str); !errors.Is(err, ErrMalformedBoard) {
			t.Fatalf("ParseBoard(%q) error = %v, want ErrMalformedBoard", str, err)
		}
	}
}

func TestGameOver(t *testing.T) {
	board := StartingBoard
	if board.GameOver() {
		t.Fatalf("starting board should not be game over")
	}

	board[SouthGoal] = 2
	if !board.GameOver() {
		t.Fatalf("board with a piece in the south goal should be game over")
	}

	board = StartingBoard
	board[NorthGoal] = 1
	if !board.GameOver() {
		t.Fatalf("board with a piece in the north goal should be game over")
	}
}

func TestMakeMove(t *testing.T) {
	board := StartingBoard
	board.MakeMove(Move{4, 10})
	if board[4] != 0 || board[10] != 2 {
		t.Fatalf("simple move not applied: cell 4 = %d, cell 10 = %d", board[4], board[10])
	}

	board = StartingBoard
	board[10] = 3
	board.MakeMove(Move{4, 10, 16})
	if board[4] != 0 || board[10] != 2 || board[16] != 3 {
		t.Fatalf("replacement move not applied: %v", board)
	}

	before := board
	board.MakeMove(nil)
	if board != before {
		t.Fatalf("empty move should not change the board")
	}
}

func TestFlippedTwiceIsIdentity(t *testing.T) {
	board := testBoard()
	flipped := board.Flipped()
	if flipped[0] != board[35] || flipped[SouthGoal] != board[NorthGoal] {
		t.Fatalf("Flipped did not rotate the board: %v", flipped)
	}
	if again := flipped.Flipped(); again != board {
		t.Fatalf("Flipped twice = %v, want %v", again, board)
	}
}

func TestFlippedBoardMatchesFlippedMove(t *testing.T) {
	board := StartingBoard
	move := Move{4, 10}

	direct := board
	direct.MakeMove(move)

	rotated := board.Flipped()
	rotated.MakeMove(move.Flip())

	if rotated.Flipped() != direct {
		t.Fatalf("moving on a flipped board should mirror moving on the original")
	}
}

func TestSerializeRejectsInvalidPieces(t *testing.T) {
	for _, piece := range []int{-1, 4, 12} {
		board := StartingBoard
		board[17] = piece

		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("piece %d should not be serialized", piece)
				}
			}()

			_ = board.Serialize(P1)
		}()
	}
}
