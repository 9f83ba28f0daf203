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

package athan

import (
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// HeadlessWindow is the window used by the daemon, where there is no screen
// to draw on. It only logs.
type HeadlessWindow struct {
	controller platforms.WindowController
	finished   chan struct{}
	title      string
	status     string
	mu         syncutil.Mutex
}

func NewHeadlessWindow() *HeadlessWindow {
	return &HeadlessWindow{finished: make(chan struct{})}
}

func (w *HeadlessWindow) Show(title string, c platforms.WindowController) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
	w.controller = c
	log.Info().Str("title", title).Msg("athan window shown")
	return nil
}

func (w *HeadlessWindow) SetStatus(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = text
	log.Debug().Str("title", w.title).Str("status", text).Msg("athan window status")
}

func (w *HeadlessWindow) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Finish closes the window. Later calls do nothing.
func (w *HeadlessWindow) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.finished:
	default:
		close(w.finished)
		log.Debug().Str("title", w.title).Msg("athan window finished")
	}
}

// Finished is closed when the window has been finished.
func (w *HeadlessWindow) Finished() <-chan struct{} {
	return w.finished
}

// Controller returns the controller passed to Show, or nil.
func (w *HeadlessWindow) Controller() platforms.WindowController {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.controller
}
