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

package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/stretchr/testify/require"
)

// TestScreen wraps a SimulationScreen with helper methods for testing.
type TestScreen struct {
	tcell.SimulationScreen
	t *testing.T
}

// NewTestScreen creates and initializes a simulation screen for testing.
func NewTestScreen(t *testing.T, width, height int) *TestScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")

	err := sim.Init()
	require.NoError(t, err, "failed to initialize simulation screen")

	sim.SetSize(width, height)

	return &TestScreen{
		SimulationScreen: sim,
		t:                t,
	}
}

// InjectEnter simulates pressing the Enter key.
func (s *TestScreen) InjectEnter() {
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
}

// InjectEscape simulates pressing the Escape key.
func (s *TestScreen) InjectEscape() {
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
}

// InjectCtrlC simulates pressing Ctrl-C.
func (s *TestScreen) InjectCtrlC() {
	s.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
}

// InjectRune simulates typing a character.
func (s *TestScreen) InjectRune(r rune) {
	s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

// InjectClick simulates a left click at x, y.
func (s *TestScreen) InjectClick(x, y int) {
	s.InjectMouse(x, y, tcell.Button1, tcell.ModNone)
	s.InjectMouse(x, y, tcell.ButtonNone, tcell.ModNone)
}

// InjectFocus simulates the terminal gaining or losing focus.
func (s *TestScreen) InjectFocus(focused bool) {
	require.NoError(s.t, s.PostEvent(tcell.NewEventFocus(focused)))
}

// GetScreenText returns all screen content as a single string.
func (s *TestScreen) GetScreenText() string {
	cells, width, height := s.GetContents()
	var sb strings.Builder
	for y := range height {
		for x := range width {
			cell := cells[y*width+x]
			if len(cell.Runes) > 0 {
				sb.WriteRune(cell.Runes[0])
			} else {
				sb.WriteRune(' ')
			}
		}
		if y < height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// ContainsText checks if the screen contains the specified text anywhere.
func (s *TestScreen) ContainsText(text string) bool {
	return strings.Contains(s.GetScreenText(), text)
}

// WaitForCondition waits for a condition to be true, with a timeout.
func WaitForCondition(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// fakeController records window callbacks.
type fakeController struct {
	focus []bool
	back  int
	taps  int
	mu    syncutil.Mutex
}

func (c *fakeController) OnBackPressed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.back++
}

func (c *fakeController) OnWindowFocusChanged(hasFocus bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = append(c.focus, hasFocus)
}

func (c *fakeController) OnTap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taps++
}

func (c *fakeController) Back() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.back
}

func (c *fakeController) Taps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taps
}

func (c *fakeController) Focus() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.focus...)
}
