//go:build linux

// Minaret
// Copyright (c) 2026 The Minaret Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Minaret.
//
// Minaret is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Minaret is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Minaret.  If not, see <http://www.gnu.org/licenses/>.

// Package daemon runs the service in the foreground or detaches it into the
// background, using the pid file to find a running instance.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/minaret-project/minaret/pkg/helpers"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// ForegroundArg is passed to the detached child so it runs the service
// in place instead of detaching again.
const ForegroundArg = "-foreground"

const (
	startWait    = 5 * time.Second
	stopWait     = 10 * time.Second
	pollInterval = 100 * time.Millisecond
)

var ErrNotRunning = errors.New("service not running")

// Entry starts the service. stop shuts it down; done closes if the service
// stops on its own.
type Entry func() (stop func() error, done <-chan struct{}, err error)

type Daemon struct {
	pid   *helpers.PidFile
	entry Entry
	// signals is the set of signals that stop a foreground service.
	signals []os.Signal
}

func New(pl platforms.Platform, entry Entry) *Daemon {
	return &Daemon{
		pid:     helpers.NewPidFile(pl),
		entry:   entry,
		signals: []os.Signal{unix.SIGINT, unix.SIGTERM},
	}
}

func (d *Daemon) Running() bool {
	return d.pid.Running()
}

// Run starts the service in this process and blocks until ctx is done, a
// stop signal arrives or the service stops by itself.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.pid.Create(); err != nil {
		return err
	}
	defer func() {
		if err := d.pid.Remove(); err != nil {
			log.Warn().Err(err).Msg("error removing pid file")
		}
	}()

	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, 1); err != nil {
		log.Debug().Err(err).Msg("could not lower process priority")
	}

	stop, done, err := d.entry()
	if err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, d.signals...)
	defer cancel()

	select {
	case <-ctx.Done():
		log.Info().Msg("stop requested")
	case <-done:
		log.Info().Msg("service stopped by itself")
	}
	return stop()
}

// Start launches the current binary as a detached child running the
// service, and waits for it to write its pid file.
func (d *Daemon) Start() error {
	if d.Running() {
		return helpers.ErrAlreadyRunning
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to find executable: %w", err)
	}

	//nolint:gosec // re-executes this binary
	cmd := exec.Command(exe, ForegroundArg)
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release service process: %w", err)
	}

	if !waitFor(startWait, d.Running) {
		return errors.New("service did not start in time, check the log")
	}
	pid, _ := d.pid.Pid()
	log.Info().Int("pid", pid).Msg("service started")
	return nil
}

// Stop signals the running service and waits for it to exit.
func (d *Daemon) Stop() error {
	if !d.Running() {
		return ErrNotRunning
	}
	pid, err := d.pid.Pid()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(unix.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}

	if !waitFor(stopWait, func() bool { return !d.Running() }) {
		return fmt.Errorf("service %d did not stop in time", pid)
	}
	return nil
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}
