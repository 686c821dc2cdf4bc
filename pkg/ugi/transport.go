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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// EngineConfig describes how to run an engine process.
type EngineConfig struct {
	Name string `yaml:"name"`
	Cmd  string `yaml:"cmd"`
	Dir  string `yaml:"dir"`
	Arg  string `yaml:"arg"`

	// Stderr is a file the engine's standard error is appended to. The
	// engine's standard error is discarded if it is empty.
	Stderr string `yaml:"stderr"`

	InitStr string `yaml:"init-string"`

	// Options are sent as setoption commands after the handshake.
	Options map[string]string `yaml:"options"`

	// Handshake is how long to wait for ugiok after sending ugi. Engines
	// which don't acknowledge the handshake are still usable.
	Handshake time.Duration `yaml:"handshake-timeout"`
}

// ShutdownGrace is how long Shutdown waits for the engine to exit on its
// own before killing it.
var ShutdownGrace = 2 * time.Second

var (
	ErrReadTimeout   = errors.New("engine: read i/o timeout")
	ErrEngineExited  = errors.New("engine: process exited")
	ErrShutdownTwice = errors.New("engine: transport already shut down")
)

// Start spawns the engine process described by the config and starts the
// goroutines which move lines between it and the transport's queues.
func Start(config EngineConfig) (*Transport, error) {
	var transport Transport
	transport.config = config

	process := exec.Command(config.Cmd, strings.Fields(config.Arg)...)
	process.Dir = config.Dir

	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if config.Stderr != "" {
		file, err := os.OpenFile(config.Stderr, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}

		// The child gets its own copy of the descriptor.
		defer file.Close()
		process.Stderr = file
	}

	transport.cmd = process
	transport.stdin = stdin
	transport.stdout = stdout

	transport.commands = newQueue()
	transport.lines = newQueue()

	transport.quit = make(chan struct{})
	transport.exited = make(chan struct{})

	if err := process.Start(); err != nil {
		return nil, fmt.Errorf("engine: start %s: %w", config.Cmd, err)
	}

	logrus.WithFields(logrus.Fields{
		"name": config.Name,
		"cmd":  config.Cmd,
		"pid":  process.Process.Pid,
	}).Debug("Started engine process")

	transport.group.Go(transport.read)
	transport.group.Go(transport.write)

	return &transport, nil
}

// Transport owns an engine process. Lines written by the engine are read
// by one goroutine into an unbounded queue, and commands are written to
// the engine by another goroutine from a second queue. A Transport is
// meant to be used by a single owner.
type Transport struct {
	config EngineConfig

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	commands *queue
	lines    *queue

	group errgroup.Group

	// quit is closed by Shutdown. exited is closed by the reader after
	// the process has exited.
	quit   chan struct{}
	exited chan struct{}

	mu       sync.Mutex
	err      error
	shutdown bool
}

// Send queues a command for the engine. It never blocks.
func (transport *Transport) Send(command string) {
	if transport.isShutdown() {
		logrus.Debugf("info: (%s)< %s dropped, transport is shut down", transport.config.Name, command)
		return
	}

	transport.commands.push(command)
}

// TryReceive pops the oldest line written by the engine, if any.
func (transport *Transport) TryReceive() (string, bool) {
	return transport.lines.pop()
}

// Await waits for a line matching the given pattern with a fixed timeout.
// Lines which don't match are discarded.
func (transport *Transport) Await(pattern string, timeout time.Duration) (string, error) {
	regex := regexp.MustCompile(pattern)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	exited := false
	for {
		for line, ok := transport.lines.pop(); ok; line, ok = transport.lines.pop() {
			if regex.MatchString(line) {
				// line is the expected line
				return line, nil
			}
		}

		if exited {
			// every line has been read and none of them matched
			return "", transport.exitError()
		}

		select {
		case <-transport.lines.ready():
		case <-transport.exited:
			exited = true
		case <-timer.C:
			// timer ran out: wait timeout
			if !transport.Alive() {
				return "", transport.exitError()
			}

			return "", ErrReadTimeout
		}
	}
}

// Alive checks if the engine process is still running.
func (transport *Transport) Alive() bool {
	select {
	case <-transport.exited:
		return false
	default:
		return true
	}
}

// Err returns the first i/o or process error encountered by the transport.
func (transport *Transport) Err() error {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	return transport.err
}

// Pending returns the number of lines waiting to be received.
func (transport *Transport) Pending() int {
	return transport.lines.len()
}

// Shutdown stops the writer after it has flushed every queued command,
// closes the engine's input and waits for the process to exit, killing it
// if it doesn't do so within ShutdownGrace. Both goroutines are joined
// before Shutdown returns.
func (transport *Transport) Shutdown() error {
	transport.mu.Lock()
	if transport.shutdown {
		transport.mu.Unlock()
		return ErrShutdownTwice
	}
	transport.shutdown = true
	transport.mu.Unlock()

	close(transport.quit)

	select {
	case <-transport.exited:
	case <-time.After(ShutdownGrace):
		logrus.WithField("name", transport.config.Name).Warn("Engine did not exit, killing it")
		if err := transport.cmd.Process.Kill(); err != nil {
			logrus.Debug(err)
		}
	}

	err := transport.group.Wait()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A non-zero exit status on quit is the engine's business.
		logrus.WithField("name", transport.config.Name).Debug(err)
		return nil
	}

	return err
}

// read is the reader goroutine. It returns once the engine's output has
// been closed, after reaping the process.
func (transport *Transport) read() error {
	defer close(transport.exited)

	reader := bufio.NewReader(transport.stdout)
	for {
		line, err := reader.ReadString('\n')
		if line != "" || err == nil {
			line = strings.Trim(line, " \n\t\r")

			logrus.Debugf("info: (%s)> %s", transport.config.Name, line)
			transport.lines.push(line)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				transport.setErr(err)
			}

			// The pipe has been drained, so the process may be reaped.
			werr := transport.cmd.Wait()
			if werr != nil {
				transport.setErr(werr)
			} else {
				transport.setErr(ErrEngineExited)
			}

			return werr
		}
	}
}

// write is the writer goroutine. It sleeps until a command is queued or
// the transport is shut down.
func (transport *Transport) write() error {
	writer := bufio.NewWriter(transport.stdin)
	defer transport.stdin.Close()

	for {
		transport.flush(writer)

		select {
		case <-transport.commands.ready():
		case <-transport.quit:
			// Commands queued right before shutdown, like quit, still
			// need to be delivered.
			transport.flush(writer)
			return nil
		}
	}
}

func (transport *Transport) flush(writer *bufio.Writer) {
	for command, ok := transport.commands.pop(); ok; command, ok = transport.commands.pop() {
		logrus.Debugf("info: (%s)< %s", transport.config.Name, command)

		// Writes are best effort: a dead engine shows up through Alive.
		if _, err := fmt.Fprintln(writer, command); err != nil {
			transport.setErr(err)
			continue
		}

		if err := writer.Flush(); err != nil {
			transport.setErr(err)
		}
	}
}

func (transport *Transport) setErr(err error) {
	transport.mu.Lock()
	defer transport.mu.Unlock()

	if transport.err == nil {
		transport.err = err
	}
}

func (transport *Transport) exitError() error {
	if err := transport.Err(); err != nil && !errors.Is(err, ErrEngineExited) {
		return fmt.Errorf("%w: %v", ErrEngineExited, err)
	}

	return ErrEngineExited
}

func (transport *Transport) isShutdown() bool {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	return transport.shutdown
}
