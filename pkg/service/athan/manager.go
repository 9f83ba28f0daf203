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
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/minaret-project/minaret/pkg/assets"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/helpers"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionActive   = errors.New("an athan session is already active")
	ErrNoActiveSession = errors.New("no active athan session")
)

// EventKind identifies a session transition.
type EventKind string

const (
	EventStarted EventKind = "started"
	EventStopped EventKind = "stopped"
)

type Event struct {
	Kind   EventKind
	Status Status
}

// Recorder stores finished sessions.
type Recorder interface {
	Record(e history.Entry) error
}

// Manager runs at most one session at a time and records each one when it
// ends.
type Manager struct {
	clock        clockwork.Clock
	pl           platforms.Platform
	cfg          *config.Instance
	recorder     Recorder
	active       *Session
	finished     chan struct{}
	listeners    []func(Event)
	defaultSound []byte
	mu           syncutil.Mutex
}

// NewManager creates a Manager. recorder may be nil to skip history.
func NewManager(
	pl platforms.Platform,
	cfg *config.Instance,
	recorder Recorder,
	clock clockwork.Clock,
) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		clock:        clock,
		pl:           pl,
		cfg:          cfg,
		recorder:     recorder,
		defaultSound: assets.DefaultAthan,
	}
}

// Play starts a session for prayer on window, or a headless window when nil.
func (m *Manager) Play(ctx context.Context, prayer string, window platforms.Window) (Status, error) {
	p, err := ParsePrayer(prayer)
	if err != nil {
		return Status{}, err
	}

	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		return Status{}, ErrSessionActive
	}
	s := NewSession(SessionOptions{
		Clock:        m.clock,
		Platform:     m.pl,
		Config:       m.cfg,
		Window:       window,
		DefaultSound: m.defaultSound,
		Prayer:       p,
	})
	finished := make(chan struct{})
	m.active = s
	m.finished = finished
	m.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		s.Destroy()
		m.release(s, finished)
		return Status{}, fmt.Errorf("failed to play athan for %s: %w", p, err)
	}

	st := s.Status()
	m.emit(Event{Kind: EventStarted, Status: st})
	go m.lifecycle(s, finished)
	return st, nil
}

// Subscribe registers fn to be called on every session transition. fn runs
// on the manager's goroutines and must not block.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) emit(e Event) {
	m.mu.Lock()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

func (m *Manager) lifecycle(s *Session, finished chan struct{}) {
	<-s.Done()
	s.Destroy()

	st := s.Status()
	log.Info().Str("session", st.ID).Str("prayer", st.Prayer).
		Str("reason", string(st.Reason)).Int("elapsed", st.ElapsedSeconds).
		Msg("athan: session finished")
	m.record(st)
	m.release(s, finished)
	m.emit(Event{Kind: EventStopped, Status: st})
}

func (m *Manager) release(s *Session, finished chan struct{}) {
	m.mu.Lock()
	if m.active == s {
		m.active = nil
		m.finished = nil
	}
	m.mu.Unlock()
	close(finished)
}

func (m *Manager) record(st Status) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.Record(history.Entry{
		ID:             st.ID,
		Prayer:         st.Prayer,
		StartedAt:      st.StartedAt,
		StoppedAt:      st.StoppedAt,
		Reason:         string(st.Reason),
		CustomSound:    st.CustomSound,
		ClockSource:    helpers.ClockSource(st.StartedAt),
		ElapsedSeconds: st.ElapsedSeconds,
		Muted:          st.Muted,
	})
	if err != nil {
		log.Error().Err(err).Str("session", st.ID).Msg("athan: failed to record history")
	}
}

// Active returns the status of the running session.
func (m *Manager) Active() (Status, bool) {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s == nil {
		return Status{}, false
	}
	return s.Status(), true
}

// StopActive stops the running session and waits until it has been torn
// down and recorded, or ctx is done.
func (m *Manager) StopActive(ctx context.Context, reason StopReason) (Status, error) {
	m.mu.Lock()
	s := m.active
	finished := m.finished
	m.mu.Unlock()
	if s == nil {
		return Status{}, ErrNoActiveSession
	}

	s.Cancel(reason)
	select {
	case <-finished:
	case <-ctx.Done():
		return s.Status(), fmt.Errorf("waiting for session to stop: %w", ctx.Err())
	}
	return s.Status(), nil
}

// Wait blocks until the running session, if any, has finished.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	finished := m.finished
	m.mu.Unlock()
	if finished == nil {
		return nil
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for session: %w", ctx.Err())
	}
}

// Shutdown destroys the running session, if any.
func (m *Manager) Shutdown(ctx context.Context) error {
	_, err := m.StopActive(ctx, StopReasonDestroyed)
	if errors.Is(err, ErrNoActiveSession) {
		return nil
	}
	return err
}
