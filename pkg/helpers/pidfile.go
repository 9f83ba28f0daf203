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

package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/shirou/gopsutil/v4/process"
)

const pidFileName = "minaret.pid"

var ErrAlreadyRunning = errors.New("service already running")

// PidFile guards against more than one daemon per user.
type PidFile struct {
	path string
}

func NewPidFile(pl platforms.Platform) *PidFile {
	return &PidFile{path: filepath.Join(pl.Settings().TempDir, pidFileName)}
}

func (p *PidFile) Path() string {
	return p.path
}

// Pid returns the recorded process ID, or 0 if there is no PID file.
func (p *PidFile) Pid() (int, error) {
	//nolint:gosec // path is built from the platform temp dir
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// Running reports whether the recorded process is alive. A process owned by
// another user still counts.
func (p *PidFile) Running() bool {
	pid, err := p.Pid()
	if err != nil || pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid)) //nolint:gosec // pids fit in int32
	return err == nil && exists
}

// Create writes the current process ID. It fails if another live process
// already holds the file.
func (p *PidFile) Create() error {
	if p.Running() {
		pid, _ := p.Pid()
		if pid != os.Getpid() {
			return ErrAlreadyRunning
		}
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o750); err != nil {
		return fmt.Errorf("failed to create pid file directory: %w", err)
	}
	err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (p *PidFile) Remove() error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}
