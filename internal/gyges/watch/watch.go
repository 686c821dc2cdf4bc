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

// Package watch is a terminal front-end for a search session.
package watch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/gyges/pkg/gyges"
	"laptudirm.com/x/gyges/pkg/ugi"
)

// TickInterval is how often the session is polled for engine output.
var TickInterval = 20 * time.Millisecond

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model drives a session from key presses. The session is polled once per
// tick, and moves it plays are recorded in the game.
type Model struct {
	session *ugi.Session
	game    *gyges.Game

	status string
	err    error
}

func New(session *ugi.Session, game *gyges.Game) Model {
	return Model{
		session: session,
		game:    game,
		status:  "press a to start the analysis",
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg.String())

	case tickMsg:
		if m.session.Update(m.game) {
			m.status = fmt.Sprintf("%s played %s", m.mover(), m.game.LastMove())
		}

		if !m.session.Alive() {
			m.err = errors.New("engine exited")
			return m, tea.Quit
		}

		return m, tickCmd()
	}

	return m, nil
}

// mover returns the side which played the last move. Auto play has
// already flipped the session's side by the time the move is seen.
func (m Model) mover() gyges.Side {
	if m.session.Mode() == ugi.Auto {
		return m.session.Side().Other()
	}

	return m.session.Side()
}

func (m Model) key(key string) (tea.Model, tea.Cmd) {
	m.err = nil

	switch key {
	case "q", "ctrl+c":
		m.session.Stop()
		return m, tea.Quit

	case "a":
		if m.session.Mode() == ugi.Analysis {
			m.session.Stop()
			m.status = "analysis disabled"
			break
		}

		m.search(ugi.Analysis, "analysing")

	case "s":
		m.err = m.session.SwitchSide(m.game)
		m.status = "searching for " + m.session.Side().String()

	case "1", "2":
		side := gyges.P1
		if key == "2" {
			side = gyges.P2
		}

		m.session.SetSide(side)
		m.search(ugi.Single, "thinking for "+side.String())

	case "g":
		m.search(ugi.Auto, "simulating")

	case "x", "esc":
		m.session.Stop()
		m.status = "stopped"

	case "left", "h":
		if m.game.Back() {
			m.reanalyse()
		}

	case "right", "l":
		if m.game.Forward() {
			m.reanalyse()
		}

	case "up", "k":
		if m.game.Load(len(m.game.History()) - 1) {
			m.reanalyse()
		}

	case "n":
		m.game.Reset(gyges.StartingBoard)
		m.status = "new game"
		m.reanalyse()

	case "p":
		m.cyclePly()

	case "+", "=":
		m.adjustTime(+1)

	case "-":
		m.adjustTime(-1)
	}

	return m, nil
}

func (m *Model) search(mode ugi.Mode, status string) {
	if err := m.session.NewSearch(mode, m.game); err != nil {
		m.err = err
		return
	}

	m.status = status
}

// start begins analysing the opening position, unless the game is
// already over.
func (m *Model) start() {
	if m.game.GameOver() {
		return
	}

	m.search(ugi.Analysis, "analysing")
}

// reanalyse restarts the analysis after the position has changed, as long
// as the session wasn't disabled.
func (m *Model) reanalyse() {
	if m.session.Mode() == ugi.Disabled {
		return
	}

	if m.game.GameOver() {
		m.session.Stop()
		return
	}

	m.search(ugi.Analysis, "analysing")
}

// cyclePly moves the current side's ply limit to the next preset, with no
// limit coming after the deepest one.
func (m *Model) cyclePly() {
	side := m.session.Side()
	settings := m.session.Settings(side)

	next := ugi.PlyPresets[0]
	for i, ply := range ugi.PlyPresets {
		if settings.MaxPly == ply {
			if i+1 < len(ugi.PlyPresets) {
				next = ugi.PlyPresets[i+1]
			} else {
				next = ugi.MaxPly
			}
			break
		}
	}

	settings.MaxPly = next
	m.session.SetSettings(side, settings.Clamp())
	m.status = fmt.Sprintf("%s max ply %s", side, plyString(next))
}

func (m *Model) adjustTime(delta float64) {
	side := m.session.Side()
	settings := m.session.Settings(side)

	settings.MaxTime += delta
	settings = settings.Clamp()

	m.session.SetSettings(side, settings)
	m.status = fmt.Sprintf("%s max time %gs", side, settings.MaxTime)
}

func plyString(ply float64) string {
	if ply >= ugi.MaxPly {
		return "no limit"
	}

	return fmt.Sprint(ply)
}

func (m Model) View() string {
	var view strings.Builder

	board := m.game.Snapshot()
	view.WriteString(titleStyle.Render("Gyges") + "\n\n")
	view.WriteString(board.Pretty())
	view.WriteString("\n")

	fmt.Fprintf(&view, "Move:     %d/%d\n", m.game.Current(), len(m.game.History())-1)
	fmt.Fprintf(&view, "Side:     %s\n", m.session.Side())
	fmt.Fprintf(&view, "Mode:     %s\n", m.session.Mode())

	settings := m.session.Settings(m.session.Side())
	fmt.Fprintf(&view, "Limits:   %gs, ply %s\n", settings.MaxTime, plyString(settings.MaxPly))

	if best := m.session.BestSearch(); !best.Empty() {
		fmt.Fprintf(&view, "Search:   %s\n", best)
	}

	if board.GameOver() {
		view.WriteString("\n" + statusStyle.Render("game over") + "\n")
	} else if m.status != "" {
		view.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	if m.err != nil {
		view.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}

	view.WriteString("\n" + helpStyle.Render(
		"a analysis  s switch side  1/2 move  g simulate  x stop\n"+
			"←/→ history  ↑ latest  n new game  p ply  +/- time  q quit",
	) + "\n")

	return view.String()
}

// Run shows the model until the user quits.
func Run(session *ugi.Session, game *gyges.Game) error {
	// Logging would scribble over the view.
	level := logrus.GetLevel()
	if level > logrus.WarnLevel {
		logrus.SetLevel(logrus.WarnLevel)
	}
	defer logrus.SetLevel(level)

	model := New(session, game)
	model.start()

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}

	return nil
}
