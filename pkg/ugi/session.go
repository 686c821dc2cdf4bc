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

// Package ugi drives a Gyges engine over the UGI protocol. A Transport owns
// the engine process and a Session tracks the searches run on it.
package ugi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/gyges/pkg/gyges"
)

// Mode is the purpose of a session's current search.
type Mode int

const (
	// Disabled sessions don't search and ignore the engine.
	Disabled Mode = iota

	// Analysis sessions report the engine's progress without making moves.
	Analysis

	// Auto sessions play both sides until the game is over.
	Auto

	// Single sessions play one move for the current side.
	Single
)

func (mode Mode) String() string {
	switch mode {
	case Disabled:
		return "disabled"
	case Analysis:
		return "analysis"
	case Auto:
		return "auto"
	case Single:
		return "single"
	default:
		return fmt.Sprintf("mode(%d)", int(mode))
	}
}

// Position is a board owned by the caller. The session reads snapshots of
// it to start searches and plays the engine's moves through MakeMove.
type Position interface {
	Snapshot() gyges.Board
	MakeMove(gyges.Move)
}

// Pipe is the connection to an engine. *Transport implements it.
type Pipe interface {
	Send(command string)
	TryReceive() (string, bool)
	Await(pattern string, timeout time.Duration) (string, error)
	Alive() bool
	Shutdown() error
}

var (
	ErrInvalidMode = errors.New("ugi: invalid search mode")
	ErrGameOver    = errors.New("ugi: game is over")
)

const (
	// DefaultDelay is the pause after each move played in Auto mode.
	DefaultDelay = 100 * time.Millisecond

	// DefaultStopTimeout bounds how long a new search waits for the
	// previous one to report its bestmove.
	DefaultStopTimeout = 5 * time.Second
)

// StartSession starts the engine described by config, performs the UGI
// handshake and returns a disabled session on it.
func StartSession(config EngineConfig) (*Session, error) {
	transport, err := Start(config)
	if err != nil {
		return nil, err
	}

	if config.InitStr != "" {
		for _, line := range strings.Split(config.InitStr, "\n") {
			transport.Send(line)
		}
	}

	transport.Send("ugi")
	if config.Handshake > 0 {
		if _, err := transport.Await("^ugiok", config.Handshake); err != nil {
			if !transport.Alive() {
				_ = transport.Shutdown()
				return nil, err
			}

			logrus.WithField("name", config.Name).Warn("Engine did not acknowledge ugi")
		}
	}

	names := make([]string, 0, len(config.Options))
	for name := range config.Options {
		names = append(names, name)
	}

	sort.Strings(names)
	for _, name := range names {
		transport.Send("setoption " + name + " " + config.Options[name])
	}

	session := NewSession(transport)
	session.name = config.Name
	return session, nil
}

// NewSession creates a disabled session searching for P1 over the given
// pipe. The session owns the pipe from now on.
func NewSession(pipe Pipe) *Session {
	return &Session{
		pipe: pipe,
		side: gyges.P1,

		settings: [2]SearchSettings{
			DefaultSettings(),
			DefaultSettings(),
		},

		Delay:       DefaultDelay,
		StopTimeout: DefaultStopTimeout,
	}
}

// Session is a search session on an engine. It must only be used from
// one goroutine. Engines always search from P1's point of view, so the
// session translates positions and moves when searching for P2; callers
// only ever see P1-oriented boards and moves.
type Session struct {
	pipe Pipe
	name string

	mode      Mode
	side      gyges.Side
	searching bool
	best      SearchInfo

	settings [2]SearchSettings

	// pending is the number of go commands which haven't been answered
	// with a bestmove yet. Output is only meaningful while it is one,
	// anything else belongs to a search which has been superseded.
	pending int

	// Delay is the pause after each move played in Auto mode.
	Delay time.Duration

	// StopTimeout bounds how long a new search waits for the previous
	// one to report its bestmove.
	StopTimeout time.Duration

	quit bool
}

// NewSearch starts a search of the position for the session's side. Any
// search still running is stopped first, and NewSearch blocks until the
// engine has reported its result.
func (session *Session) NewSearch(purpose Mode, pos Position) error {
	session.checkOpen()

	if purpose == Disabled || purpose > Single {
		return fmt.Errorf("%w: %v", ErrInvalidMode, purpose)
	}

	board := pos.Snapshot()
	if board.GameOver() {
		return ErrGameOver
	}

	session.synchronize()

	settings := session.settings[session.side.Index()]
	session.pipe.Send("setpos data " + board.Serialize(session.side))
	session.pipe.Send("setoption max_time " + formatFloat(settings.MaxTime))
	session.pipe.Send("setoption max_ply " + formatFloat(settings.MaxPly))
	session.pipe.Send("go")

	session.pending++
	session.mode = purpose
	session.searching = true

	logrus.WithFields(logrus.Fields{
		"mode": purpose,
		"side": session.side,
	}).Debug("Started new search")
	return nil
}

// synchronize stops the running search, if any, and discards the engine's
// output up to and including its bestmove.
func (session *Session) synchronize() {
	if session.pending == 0 {
		return
	}

	session.pipe.Send("stop")
	for session.pending > 0 {
		if _, err := session.pipe.Await(`^bestmove\b`, session.StopTimeout); err != nil {
			logrus.WithError(err).Warn("Engine did not finish its previous search")

			// Late bestmoves still count against pending and are discarded.
			if !session.pipe.Alive() {
				session.pending = 0
			}
			break
		}

		session.pending--
	}

	session.searching = false
}

// Stop asks the engine to stop searching and disables the session. The
// stopped search's output is ignored if it still arrives.
func (session *Session) Stop() {
	session.checkOpen()

	session.pipe.Send("stop")
	session.mode = Disabled
	session.searching = false
}

// Update is the session's per-tick entry point. It handles at most one
// line of engine output, and reports whether a move was played on pos.
func (session *Session) Update(pos Position) bool {
	session.checkOpen()

	if session.mode == Disabled {
		session.best = SearchInfo{}
		return false
	}

	if board := pos.Snapshot(); board.GameOver() {
		session.Stop()
		return false
	}

	line, ok := session.pipe.TryReceive()
	if !ok {
		return false
	}

	return session.handle(line, pos)
}

func (session *Session) handle(line string, pos Position) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "info":
		if session.pending != 1 {
			logrus.Tracef("Discarding stale line %q", line)
			return false
		}

		info, err := ParseInfo(line, session.side)
		if err != nil {
			logrus.WithError(err).Warn("Discarding malformed info")
			return false
		}

		session.best = info
		return false

	case "bestmove":
		if session.pending == 0 {
			logrus.Tracef("Discarding unexpected line %q", line)
			return false
		}

		session.pending--
		if session.pending > 0 {
			logrus.Tracef("Discarding stale line %q", line)
			return false
		}

		session.searching = false

		move, err := ParseBestMove(line, session.side)
		if err != nil {
			logrus.WithError(err).Warn("Discarding malformed bestmove")
			return false
		}

		return session.played(move, pos)

	default:
		return false
	}
}

// played handles the result of a finished search.
func (session *Session) played(move gyges.Move, pos Position) bool {
	switch session.mode {
	case Single:
		pos.MakeMove(move)
		session.Stop()
		return true

	case Auto:
		pos.MakeMove(move)

		if board := pos.Snapshot(); board.GameOver() {
			session.Stop()
			return true
		}

		session.FlipSide()
		if err := session.NewSearch(Auto, pos); err != nil {
			logrus.WithError(err).Error("Unable to continue auto play")
			session.Stop()
			return true
		}

		time.Sleep(session.Delay)
		return true

	default:
		// An analysis search ran out of time or depth.
		return false
	}
}

// SwitchSide makes the session search for the other side, restarting
// the current analysis if the session isn't disabled.
func (session *Session) SwitchSide(pos Position) error {
	session.checkOpen()
	session.FlipSide()

	if session.searching || session.mode != Disabled {
		return session.NewSearch(Analysis, pos)
	}

	return nil
}

// Quit stops the engine and releases its process. The session can't be
// used after it has quit.
func (session *Session) Quit() error {
	session.checkOpen()
	session.quit = true

	session.pipe.Send("quit")
	return session.pipe.Shutdown()
}

func (session *Session) checkOpen() {
	if session.quit {
		panic("ugi: session used after quit")
	}
}

// FlipSide makes the next search be for the other side.
func (session *Session) FlipSide() {
	session.checkOpen()
	session.side = session.side.Other()
}

// SetSide sets the side the next search is for.
func (session *Session) SetSide(side gyges.Side) {
	session.checkOpen()
	session.side = side
}

// Settings returns the search limits used when searching for the side.
func (session *Session) Settings(side gyges.Side) SearchSettings {
	session.checkOpen()
	return session.settings[side.Index()]
}

// SetSettings sets the search limits for the side. The limits are sent to
// the engine as-is, use SearchSettings.Clamp to bound them.
func (session *Session) SetSettings(side gyges.Side, settings SearchSettings) {
	session.checkOpen()
	session.settings[side.Index()] = settings
}

func (session *Session) Name() string {
	session.checkOpen()
	return session.name
}

func (session *Session) Mode() Mode {
	session.checkOpen()
	return session.mode
}

func (session *Session) Side() gyges.Side {
	session.checkOpen()
	return session.side
}

func (session *Session) Searching() bool {
	session.checkOpen()
	return session.searching
}

func (session *Session) BestSearch() SearchInfo {
	session.checkOpen()
	return session.best
}

// Alive checks if the engine is still running.
func (session *Session) Alive() bool {
	session.checkOpen()
	return session.pipe.Alive()
}
