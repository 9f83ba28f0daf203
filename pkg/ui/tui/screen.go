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
	"sync"

	"github.com/gdamore/tcell/v2"
)

// focusScreen reports terminal focus changes instead of handing them to
// tview, which ignores them.
type focusScreen struct {
	tcell.Screen
	initErr  error
	onFocus  func(focused bool)
	initOnce sync.Once
}

func newFocusScreen(screen tcell.Screen, onFocus func(bool)) *focusScreen {
	return &focusScreen{Screen: screen, onFocus: onFocus}
}

// Init initializes the wrapped screen once. tview calls Init again from
// SetScreen after we have already checked for errors.
func (s *focusScreen) Init() error {
	s.initOnce.Do(func() {
		s.initErr = s.Screen.Init()
	})
	return s.initErr
}

func (s *focusScreen) PollEvent() tcell.Event {
	for {
		ev := s.Screen.PollEvent()
		focus, ok := ev.(*tcell.EventFocus)
		if !ok {
			return ev
		}
		if s.onFocus != nil {
			s.onFocus(focus.Focused)
		}
	}
}
