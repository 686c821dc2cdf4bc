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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/gyges/internal/util"
	"laptudirm.com/x/gyges/pkg/common"
	"laptudirm.com/x/gyges/pkg/gyges"
	"laptudirm.com/x/gyges/pkg/ugi"
)

const (
	// pollInterval is how often the commands poll the session.
	pollInterval = 5 * time.Millisecond

	// linesPerPoll bounds the engine lines handled per poll.
	linesPerPoll = 64
)

var errEngineExited = errors.New("engine exited unexpectedly")

// engineFlags registers the flags of commands which run an engine.
func engineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("engine", "e", "", "Run the given engine instead of the configured one")
	cmd.Flags().String("arg", "", "Arguments for the engine")
	cmd.Flags().StringP("board", "b", gyges.StartingBoard.String(), "Board to search, as 38 digits")
	cmd.Flags().StringP("side", "s", "p1", "Side to search for, p1 or p2")
	cmd.Flags().Float64("time", 0, "Maximum think time in seconds (default from config)")
	cmd.Flags().Float64("ply", 0, "Maximum search depth (default from config)")
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(cmd *cobra.Command) (common.Config, error) {
	config, err := common.LoadConfig(cmd.Flag("config").Value.String())
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Lookup("engine") == nil {
		return config, nil
	}

	if flags.Changed("engine") {
		config.Engine.Cmd, _ = flags.GetString("engine")
		config.Engine.Name = filepath.Base(config.Engine.Cmd)
	}

	if flags.Changed("arg") {
		config.Engine.Arg, _ = flags.GetString("arg")
	}

	if flags.Changed("time") {
		limit, _ := flags.GetFloat64("time")
		config.Settings.P1.MaxTime = limit
		config.Settings.P2.MaxTime = limit
	}

	if flags.Changed("ply") {
		ply, _ := flags.GetFloat64("ply")
		config.Settings.P1.MaxPly = ply
		config.Settings.P2.MaxPly = ply
	}

	return config, nil
}

// position parses the board and side flags.
func position(cmd *cobra.Command) (gyges.Board, gyges.Side, error) {
	str, _ := cmd.Flags().GetString("board")
	board, err := gyges.ParseBoard(str)
	if err != nil {
		return board, 0, err
	}

	str, _ = cmd.Flags().GetString("side")
	side, err := gyges.ParseSide(str)
	return board, side, err
}

// startSession starts the configured engine and sets up a session on it
// searching for the given side.
func startSession(cmd *cobra.Command, side gyges.Side) (*ugi.Session, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	util.StartSpinner("Starting " + config.Engine.Name)
	session, err := ugi.StartSession(config.Engine)
	util.PauseSpinner()

	if err != nil {
		return nil, fmt.Errorf("start engine %s: %w", config.Engine.Cmd, err)
	}

	config.Apply(session)
	session.SetSide(side)

	logrus.WithFields(logrus.Fields{
		"engine": session.Name(),
		"side":   side,
	}).Debug("Session ready")
	return session, nil
}

// quit shuts the session's engine down, logging any errors.
func quit(session *ugi.Session) {
	if err := session.Quit(); err != nil {
		logrus.WithError(err).Warn("Engine did not shut down cleanly")
	}
}

// poll updates the session every pollInterval for as long as it is
// searching, or until done returns true. An interrupt stops the search.
func poll(session *ugi.Session, pos ugi.Position, done func(moved bool) bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for session.Searching() {
		select {
		case <-ctx.Done():
			logrus.Info("Interrupted, stopping the search")
			session.Stop()
			return nil
		case <-ticker.C:
		}

		if !session.Alive() {
			return errEngineExited
		}

		for i := 0; i < linesPerPoll && session.Searching(); i++ {
			if done(session.Update(pos)) {
				return nil
			}
		}
	}

	return nil
}
