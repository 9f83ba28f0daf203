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

// Package tui draws the athan alarm screen in a terminal.
package tui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

var (
	ErrWindowShown    = errors.New("athan window already shown")
	ErrWindowFinished = errors.New("athan window already finished")
)

// AthanWindow is the full-screen alarm shown while an athan plays. Escape
// and Ctrl-C are the back action; Enter, space or a mouse click is a tap.
type AthanWindow struct {
	screen     tcell.Screen
	controller platforms.WindowController
	app        *tview.Application
	statusView *tview.TextView
	ready      chan struct{}
	done       chan struct{}
	ttyPath    string
	status     string
	readyOnce  sync.Once
	mu         syncutil.Mutex
	shown      bool
	finished   bool
}

// NewAthanWindow creates a window drawn on the controlling terminal, or on
// ttyPath when it is set.
func NewAthanWindow(ttyPath string) *AthanWindow {
	return &AthanWindow{
		app:     tview.NewApplication(),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		ttyPath: ttyPath,
	}
}

// SetScreen draws the window on screen instead of opening a terminal.
func (w *AthanWindow) SetScreen(screen tcell.Screen) *AthanWindow {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.screen = screen
	return w
}

// Show starts drawing the window and returns without waiting for it.
func (w *AthanWindow) Show(title string, c platforms.WindowController) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.finished:
		return ErrWindowFinished
	case w.shown:
		return ErrWindowShown
	}

	screen := w.screen
	if screen == nil {
		var err error
		screen, err = openScreen(w.ttyPath)
		if err != nil {
			return err
		}
	}
	fs := newFocusScreen(screen, c.OnWindowFocusChanged)
	if err := fs.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	fs.EnableFocus()

	w.controller = c
	w.app.SetScreen(fs).
		SetRoot(w.layout(title), true).
		EnableMouse(true).
		SetInputCapture(w.handleKey).
		SetMouseCapture(w.handleMouse).
		SetAfterDrawFunc(func(tcell.Screen) {
			w.readyOnce.Do(func() { close(w.ready) })
		})
	w.shown = true

	go w.run()
	return nil
}

func (w *AthanWindow) run() {
	if err := w.app.Run(); err != nil {
		log.Error().Err(err).Msg("athan window exited with error")
	}

	w.mu.Lock()
	finished := w.finished
	w.mu.Unlock()
	close(w.done)

	// the screen is gone but the session was never told
	if !finished {
		log.Warn().Msg("athan window closed unexpectedly")
		w.controller.OnWindowFocusChanged(false)
	}
}

func (w *AthanWindow) layout(title string) tview.Primitive {
	t := CurrentTheme()

	titleView := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(fmt.Sprintf("[%s::b]%s", t.AccentColorName, tview.Escape(title)))

	w.statusView = tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(w.status)

	stop := tview.NewButton("Stop").
		SetSelectedFunc(w.controller.OnTap)

	hints := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(fmt.Sprintf("[%s]Enter: Stop | ESC: Dismiss", t.SecondaryColor))

	frame := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(titleView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(w.statusView, 1, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(stop, 10, 0, true).
			AddItem(nil, 0, 1, false), 1, 0, true).
		AddItem(nil, 0, 1, false).
		AddItem(hints, 1, 0, false)
	frame.SetBorder(true).SetTitle(" Athan ")
	return frame
}

func (w *AthanWindow) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		w.controller.OnBackPressed()
		return nil
	case tcell.KeyEnter:
		w.controller.OnTap()
		return nil
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			w.controller.OnTap()
			return nil
		}
	default:
	}
	return ev
}

func (w *AthanWindow) handleMouse(
	ev *tcell.EventMouse,
	action tview.MouseAction,
) (*tcell.EventMouse, tview.MouseAction) {
	if action == tview.MouseLeftClick {
		w.controller.OnTap()
		return nil, action
	}
	return ev, action
}

// SetStatus replaces the status line under the title.
func (w *AthanWindow) SetStatus(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = text
	if !w.shown || w.finished {
		return
	}
	view := w.statusView
	w.app.QueueUpdateDraw(func() {
		view.SetText(text)
	})
}

// Status returns the current status line.
func (w *AthanWindow) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Finish stops the application and restores the terminal. Later calls do
// nothing.
func (w *AthanWindow) Finish() {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return
	}
	w.finished = true
	shown := w.shown
	w.mu.Unlock()

	if !shown {
		return
	}

	// Stop before the first draw would leave Run to open a new terminal
	select {
	case <-w.ready:
		w.app.Stop()
	case <-w.done:
	}
	<-w.done
}

// Done is closed once a shown window has stopped drawing.
func (w *AthanWindow) Done() <-chan struct{} {
	return w.done
}
