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
	"fmt"
	"strconv"
	"strings"

	"laptudirm.com/x/gyges/pkg/gyges"
)

// SearchInfo is the latest search progress reported by the engine. Every
// field is optional and nil until the engine reports it.
type SearchInfo struct {
	Ply      *int
	BestMove gyges.Move
	Score    *float64
	Nodes    *int64
	NPS      *float64
	ABF      *float64
	BetaCuts *int64
	Time     *float64
}

// ParseError is returned when a line from the engine can't be understood.
type ParseError struct {
	Line string
	Err  error
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("ugi: parse %q: %v", err.Line, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

var errMissingValue = errors.New("missing value")

// ParseInfo parses an info line into a fresh SearchInfo. The best move is
// translated to P1's frame of reference if side is P2. Unknown keys are
// skipped along with their values.
func ParseInfo(line string, side gyges.Side) (SearchInfo, error) {
	var info SearchInfo

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return info, &ParseError{Line: line, Err: errors.New("not an info line")}
	}

	fields = fields[1:]
	for i := 0; i < len(fields); i += 2 {
		key := fields[i]
		if i+1 >= len(fields) {
			return SearchInfo{}, &ParseError{Line: line, Err: fmt.Errorf("%s: %w", key, errMissingValue)}
		}

		var err error
		value := fields[i+1]
		switch key {
		case "ply":
			info.Ply, err = parseInt(value)
		case "bestmove":
			info.BestMove, err = gyges.ParseMove(value)
			info.BestMove = info.BestMove.Oriented(side)
		case "score":
			info.Score, err = parseFloat(value)
		case "nodes":
			info.Nodes, err = parseInt64(value)
		case "nps":
			info.NPS, err = parseFloat(value)
		case "abf":
			info.ABF, err = parseFloat(value)
		case "beta_cuts":
			info.BetaCuts, err = parseInt64(value)
		case "time":
			info.Time, err = parseFloat(value)
		}

		if err != nil {
			return SearchInfo{}, &ParseError{Line: line, Err: fmt.Errorf("%s: %w", key, err)}
		}
	}

	return info, nil
}

// ParseBestMove parses a bestmove line, translating the move to P1's frame
// of reference if side is P2.
func ParseBestMove(line string, side gyges.Side) (gyges.Move, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return nil, &ParseError{Line: line, Err: fmt.Errorf("bestmove: %w", errMissingValue)}
	}

	move, err := gyges.ParseMove(fields[1])
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	return move.Oriented(side), nil
}

// String formats the reported fields of the info in protocol order.
func (info SearchInfo) String() string {
	var parts []string

	if info.Ply != nil {
		parts = append(parts, fmt.Sprintf("ply %d", *info.Ply))
	}
	if info.Score != nil {
		parts = append(parts, "score "+formatFloat(*info.Score))
	}
	if info.BestMove != nil {
		parts = append(parts, "bestmove "+info.BestMove.String())
	}
	if info.Nodes != nil {
		parts = append(parts, fmt.Sprintf("nodes %d", *info.Nodes))
	}
	if info.NPS != nil {
		parts = append(parts, "nps "+formatFloat(*info.NPS))
	}
	if info.ABF != nil {
		parts = append(parts, "abf "+formatFloat(*info.ABF))
	}
	if info.BetaCuts != nil {
		parts = append(parts, fmt.Sprintf("beta_cuts %d", *info.BetaCuts))
	}
	if info.Time != nil {
		parts = append(parts, "time "+formatFloat(*info.Time))
	}

	return strings.Join(parts, " ")
}

// Empty checks if no field of the info has been reported.
func (info SearchInfo) Empty() bool {
	return info.String() == ""
}

func parseInt(str string) (*int, error) {
	n, err := strconv.Atoi(str)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseInt64(str string) (*int64, error) {
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseFloat(str string) (*float64, error) {
	n, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func formatFloat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
