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
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/testing/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 4, 10, 12, 30, 0, 0, time.UTC)

type harness struct {
	clock   *clockwork.FakeClock
	cfg     *config.Instance
	pl      *mocks.MockPlatform
	player  *mocks.MockPlayer
	media   *mocks.MockMedia
	window  *mocks.MockWindow
	session *Session
}

type harnessOption func(h *harness)

// withPlatform registers platform expectations ahead of the defaults.
func withPlatform(fn func(pl *mocks.MockPlatform)) harnessOption {
	return func(h *harness) { fn(h.pl) }
}

func withPlayer(fn func(player *mocks.MockPlayer)) harnessOption {
	return func(h *harness) { fn(h.player) }
}

func withConfig(fn func(cfg *config.Instance)) harnessOption {
	return func(h *harness) { fn(h.cfg) }
}

func newTestConfig(t *testing.T) *config.Instance {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func newHarness(t *testing.T, prayer string, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		clock:  clockwork.NewFakeClockAt(testStart),
		cfg:    newTestConfig(t),
		pl:     mocks.NewMockPlatform(),
		player: mocks.NewMockPlayer(),
		media:  mocks.NewMockMedia(),
		window: mocks.NewMockWindow(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.media.On("Play").Return(nil).Maybe()
	h.player.On("OpenMedia", mock.Anything).Return(h.media, nil).Maybe()
	h.pl.SetupBasicMock(h.player)
	h.window.On("Show", mock.Anything, mock.Anything).Return(nil).Maybe()

	h.session = NewSession(SessionOptions{
		Clock:        h.clock,
		Platform:     h.pl,
		Config:       h.cfg,
		Window:       h.window,
		DefaultSound: []byte("RIFF"),
		Prayer:       prayer,
	})
	t.Cleanup(h.session.Destroy)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.session.Start(ctx))
}

// step advances the clock by d and waits until either the given number of
// timers are pending again or the session has stopped.
func (h *harness) step(t *testing.T, d time.Duration, waiters int) {
	t.Helper()
	h.clock.Advance(d)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	blocked := make(chan error, 1)
	go func() {
		blocked <- h.clock.BlockUntilContext(ctx, waiters)
	}()

	select {
	case <-h.session.Done():
		cancel()
		<-blocked
	case err := <-blocked:
		require.NoError(t, err, "timers were not rescheduled")
	}
}

// runUntilStopped ticks the watchdog until the session stops.
func (h *harness) runUntilStopped(t *testing.T, maxTicks int) {
	t.Helper()
	h.step(t, watchdogInitialDelay, 1)
	for range maxTicks {
		if h.stopped() {
			return
		}
		h.step(t, watchdogInterval, 1)
	}
	require.True(t, h.stopped(), "session did not stop after %d ticks", maxTicks)
}

func (h *harness) stopped() bool {
	select {
	case <-h.session.Done():
		return true
	default:
		return false
	}
}

func (h *harness) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-h.session.Done():
	case <-time.After(2 * time.Second):
		require.FailNow(t, "session did not stop")
	}
}
