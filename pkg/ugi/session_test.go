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

package ugi

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"laptudirm.com/x/gyges/pkg/gyges"
)

// scriptedPipe is an in-memory engine. respond is called with every
// command sent and its result is queued as the engine's output.
type scriptedPipe struct {
	sent    []string
	lines   []string
	respond func(command string) []string

	shutdowns int
}

func (pipe *scriptedPipe) Send(command string) {
	pipe.sent = append(pipe.sent, command)
	if pipe.respond != nil {
		pipe.lines = append(pipe.lines, pipe.respond(command)...)
	}
}

func (pipe *scriptedPipe) TryReceive() (string, bool) {
	if len(pipe.lines) == 0 {
		return "", false
	}

	line := pipe.lines[0]
	pipe.lines = pipe.lines[1:]
	return line, true
}

func (pipe *scriptedPipe) Await(pattern string, _ time.Duration) (string, error) {
	regex := regexp.MustCompile(pattern)
	for line, ok := pipe.TryReceive(); ok; line, ok = pipe.TryReceive() {
		if regex.MatchString(line) {
			return line, nil
		}
	}

	return "", ErrReadTimeout
}

func (pipe *scriptedPipe) Alive() bool { return pipe.shutdowns == 0 }

func (pipe *scriptedPipe) Shutdown() error {
	pipe.shutdowns++
	return nil
}

func (pipe *scriptedPipe) count(command string) int {
	n := 0
	for _, sent := range pipe.sent {
		if sent == command {
			n++
		}
	}
	return n
}

func (pipe *scriptedPipe) last() string {
	if len(pipe.sent) == 0 {
		return ""
	}
	return pipe.sent[len(pipe.sent)-1]
}

// replies answers each go with the next of the given lines.
func replies(lines ...string) func(string) []string {
	return func(command string) []string {
		if command != "go" || len(lines) == 0 {
			return nil
		}

		line := lines[0]
		lines = lines[1:]
		return []string{line}
	}
}

func newTestSession(pipe *scriptedPipe) *Session {
	session := NewSession(pipe)
	session.Delay = 0
	session.StopTimeout = 10 * time.Millisecond
	return session
}

func TestNewSearchSendsPosition(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)
	session.SetSettings(gyges.P1, SearchSettings{MaxPly: 5, MaxTime: 1.5})

	board := gyges.StartingBoard
	if err := session.NewSearch(Analysis, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	want := []string{
		"setpos data 32112300000000000000000000000032112300",
		"setoption max_time 1.5",
		"setoption max_ply 5",
		"go",
	}
	if strings.Join(pipe.sent, "\n") != strings.Join(want, "\n") {
		t.Fatalf("NewSearch sent %q, want %q", pipe.sent, want)
	}
	if session.Mode() != Analysis || !session.Searching() {
		t.Fatalf("expected an analysis search, got mode %v searching %v", session.Mode(), session.Searching())
	}
}

func TestNewSearchRejectsInvalidRequests(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Disabled, &board); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("NewSearch(Disabled) error = %v, want ErrInvalidMode", err)
	}

	board[gyges.NorthGoal] = 1
	if err := session.NewSearch(Single, &board); !errors.Is(err, ErrGameOver) {
		t.Fatalf("NewSearch on a finished game error = %v, want ErrGameOver", err)
	}

	if len(pipe.sent) != 0 {
		t.Fatalf("rejected searches should not talk to the engine, sent %q", pipe.sent)
	}
}

func TestSingleMoveForP1(t *testing.T) {
	pipe := &scriptedPipe{respond: replies("bestmove 0|6")}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	if !session.Update(&board) {
		t.Fatalf("Update should have played the engine's move")
	}
	if board[0] != 0 || board[6] != 3 {
		t.Fatalf("move 0|6 not applied: %s", board)
	}
	if session.Mode() != Disabled || session.Searching() {
		t.Fatalf("single search should stop after its move")
	}
	if pipe.last() != "stop" {
		t.Fatalf("expected stop after the move, last command %q", pipe.last())
	}
}

func TestSingleMoveForP2IsTranslated(t *testing.T) {
	pipe := &scriptedPipe{respond: replies("bestmove 0|6")}
	session := newTestSession(pipe)
	session.SetSide(gyges.P2)

	board := gyges.StartingBoard
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	if !session.Update(&board) {
		t.Fatalf("Update should have played the engine's move")
	}
	if board[35] != 0 || board[29] != 3 {
		t.Fatalf("move 0|6 for P2 should be played as 35|29: %s", board)
	}
	if board[0] != 3 {
		t.Fatalf("P1's pieces should be untouched: %s", board)
	}
}

func TestAutoPlaysUntilGameOver(t *testing.T) {
	pipe := &scriptedPipe{respond: replies(
		"bestmove 0|6",  // P1: 0|6
		"bestmove 0|6",  // P2: 35|29
		"bestmove 6|37", // P1: 6 into the north goal
	)}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Auto, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	moves := 0
	for i := 0; i < 10; i++ {
		if session.Update(&board) {
			moves++
		}
	}

	if moves != 3 {
		t.Fatalf("expected 3 moves, got %d", moves)
	}
	if board[gyges.NorthGoal] != 3 || !board.GameOver() {
		t.Fatalf("expected the game to end in the north goal: %s", board)
	}
	if n := pipe.count("go"); n != 3 {
		t.Fatalf("expected 3 searches, got %d", n)
	}
	if session.Mode() != Disabled {
		t.Fatalf("auto play should stop at game over, mode %v", session.Mode())
	}
	if pipe.last() != "stop" {
		t.Fatalf("expected stop after the final move, last command %q", pipe.last())
	}

	var setpos []string
	for _, command := range pipe.sent {
		if strings.HasPrefix(command, "setpos") {
			setpos = append(setpos, command)
		}
	}

	// The second search is for P2, so its board is mirrored.
	after := gyges.StartingBoard
	after.MakeMove(gyges.Move{0, 6})
	if want := "setpos data " + after.Serialize(gyges.P2); setpos[1] != want {
		t.Fatalf("second search sent %q, want %q", setpos[1], want)
	}
}

func TestStragglingBestMoveIsIgnored(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	session.Stop()
	pipe.lines = append(pipe.lines, "info ply 4 bestmove 0|6", "bestmove 0|6")

	if session.Update(&board) || board != gyges.StartingBoard {
		t.Fatalf("a stopped session should not play moves")
	}

	pipe.respond = replies("bestmove 1|7")
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	for i := 0; i < 3; i++ {
		session.Update(&board)
	}

	if board[0] != 3 || board[6] != 0 {
		t.Fatalf("the stopped search's move was played: %s", board)
	}
	if board[1] != 0 || board[7] != 2 {
		t.Fatalf("the new search's move was not played: %s", board)
	}
}

func TestLateBestMoveAfterStopTimeout(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	session.Stop()

	// The engine doesn't answer the stop before the barrier gives up.
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	pipe.lines = append(pipe.lines, "bestmove 0|6")
	if session.Update(&board) || board != gyges.StartingBoard {
		t.Fatalf("the stopped search's move was played: %s", board)
	}
	if !session.Searching() || session.Mode() != Single {
		t.Fatalf("the new search should still be running, mode=%s", session.Mode())
	}

	pipe.lines = append(pipe.lines, "bestmove 1|7")
	if !session.Update(&board) {
		t.Fatalf("the new search's move was not played")
	}
	if board[0] != 3 || board[1] != 0 || board[7] != 2 {
		t.Fatalf("unexpected board after the new search: %s", board)
	}
}

func TestStopTimeoutWithDeadEngine(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Analysis, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	pipe.shutdowns = 1
	if err := session.NewSearch(Single, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	pipe.lines = append(pipe.lines, "bestmove 1|7")
	if !session.Update(&board) || board[7] != 2 {
		t.Fatalf("a dead engine's stopped search should not be waited on: %s", board)
	}
}

func TestMalformedLinesAreDiscarded(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Analysis, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	pipe.lines = append(pipe.lines,
		"info ply 2 score 7",
		"info ply three",
		"info score",
		"bestmove 99|1",
	)

	for i := 0; i < 4; i++ {
		if session.Update(&board) {
			t.Fatalf("no move should be played in analysis")
		}
	}

	best := session.BestSearch()
	if best.Ply == nil || *best.Ply != 2 || best.Score == nil || *best.Score != 7 {
		t.Fatalf("malformed info replaced the last good one: %v", best)
	}
	if board != gyges.StartingBoard {
		t.Fatalf("board changed by malformed output: %s", board)
	}
	if session.Mode() != Analysis {
		t.Fatalf("malformed output changed the mode to %v", session.Mode())
	}
}

func TestAnalysisReportsInfo(t *testing.T) {
	pipe := &scriptedPipe{respond: replies("info ply 3 score 12 bestmove 4|10")}
	session := newTestSession(pipe)
	session.SetSide(gyges.P2)

	board := gyges.StartingBoard
	if err := session.NewSearch(Analysis, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	session.Update(&board)
	best := session.BestSearch()
	if best.Ply == nil || *best.Ply != 3 {
		t.Fatalf("unexpected ply in %v", best)
	}
	if !best.BestMove.Equal(gyges.Move{31, 25}) {
		t.Fatalf("best move for P2 = %v, want 31|25", best.BestMove)
	}

	session.Stop()
	session.Update(&board)
	if !session.BestSearch().Empty() {
		t.Fatalf("disabled session should clear its best search")
	}
}

func TestGameOverStopsSession(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Analysis, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	board[gyges.SouthGoal] = 2
	session.Update(&board)

	if session.Mode() != Disabled || pipe.last() != "stop" {
		t.Fatalf("game over should stop the session, mode %v last %q", session.Mode(), pipe.last())
	}
}

func TestNewSearchWaitsForRunningSearch(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.NewSearch(Analysis, &board); err != nil {
		t.Fatalf("NewSearch error: %v", err)
	}

	pipe.respond = func(command string) []string {
		if command == "stop" {
			return []string{"info ply 9", "bestmove 0|6"}
		}
		return nil
	}

	if err := session.SwitchSide(&board); err != nil {
		t.Fatalf("SwitchSide error: %v", err)
	}

	if session.Side() != gyges.P2 {
		t.Fatalf("SwitchSide should search for P2")
	}
	if len(pipe.lines) != 0 {
		t.Fatalf("the previous search's output should be drained, left %q", pipe.lines)
	}
	if n := pipe.count("go"); n != 2 {
		t.Fatalf("expected the analysis to restart, got %d searches", n)
	}
	if pipe.count("stop") != 1 {
		t.Fatalf("expected the previous search to be stopped")
	}
}

func TestSwitchSideWhileDisabled(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	board := gyges.StartingBoard
	if err := session.SwitchSide(&board); err != nil {
		t.Fatalf("SwitchSide error: %v", err)
	}

	if session.Side() != gyges.P2 || len(pipe.sent) != 0 {
		t.Fatalf("disabled SwitchSide should only flip the side")
	}
}

func TestQuit(t *testing.T) {
	pipe := &scriptedPipe{}
	session := newTestSession(pipe)

	if err := session.Quit(); err != nil {
		t.Fatalf("Quit error: %v", err)
	}
	if pipe.last() != "quit" || pipe.shutdowns != 1 {
		t.Fatalf("Quit should send quit and shut the pipe down")
	}

	board := gyges.StartingBoard
	for name, use := range map[string]func(){
		"Update":     func() { session.Update(&board) },
		"Stop":       func() { session.Stop() },
		"Name":       func() { session.Name() },
		"Mode":       func() { session.Mode() },
		"Side":       func() { session.Side() },
		"Searching":  func() { session.Searching() },
		"BestSearch": func() { session.BestSearch() },
		"Alive":      func() { session.Alive() },
		"Settings":   func() { session.Settings(gyges.P1) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s after Quit should panic", name)
				}
			}()

			use()
		})
	}
}
