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

package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/service/athan"
	"github.com/minaret-project/minaret/pkg/testing/mocks"
	"github.com/stretchr/testify/require"
)

var errHistoryBroken = errors.New("history broken")

type fakeAthan struct {
	active *athan.Status
	plays  []string
	mu     syncutil.Mutex
}

func (f *fakeAthan) Play(_ context.Context, prayer string, _ platforms.Window) (athan.Status, error) {
	p, err := athan.ParsePrayer(prayer)
	if err != nil {
		return athan.Status{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != nil {
		return athan.Status{}, athan.ErrSessionActive
	}
	st := athan.Status{
		ID:        "session-1",
		Prayer:    p,
		StartedAt: time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC),
	}
	f.active = &st
	f.plays = append(f.plays, p)
	return st, nil
}

func (f *fakeAthan) StopActive(_ context.Context, reason athan.StopReason) (athan.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return athan.Status{}, athan.ErrNoActiveSession
	}
	st := *f.active
	st.Stopped = true
	st.Reason = reason
	st.StoppedAt = st.StartedAt.Add(12 * time.Second)
	f.active = nil
	return st, nil
}

func (f *fakeAthan) Active() (athan.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return athan.Status{}, false
	}
	return *f.active, true
}

func (f *fakeAthan) Plays() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.plays...)
}

type fakeHistory struct {
	err       error
	entries   []history.Entry
	lastLimit int
	mu        syncutil.Mutex
}

func (f *fakeHistory) Recent(limit int) ([]history.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeHistory) LastLimit() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLimit
}

type apiHarness struct {
	platform *mocks.MockPlatform
	athan    *fakeAthan
	history  *fakeHistory
	server   *Server
	http     *httptest.Server
}

type harnessOption func(*apiHarness)

func withHistory(h *fakeHistory) harnessOption {
	return func(a *apiHarness) { a.history = h }
}

func withPlatform(setup func(pl *mocks.MockPlatform)) harnessOption {
	return func(a *apiHarness) { setup(a.platform) }
}

// newAPIHarness starts a Server behind httptest with notifications being
// broadcast until the test ends.
func newAPIHarness(t *testing.T, opts ...harnessOption) *apiHarness {
	t.Helper()

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	h := &apiHarness{
		platform: mocks.NewMockPlatform(),
		athan:    &fakeAthan{},
		history:  &fakeHistory{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.platform.SetupBasicMock(nil)

	var hist interface {
		Recent(limit int) ([]history.Entry, error)
	}
	if h.history != nil {
		hist = h.history
	}

	h.server = NewServer(Options{
		Platform: h.platform,
		Config:   cfg,
		Athan:    h.athan,
		History:  hist,
	})
	h.http = httptest.NewServer(h.server.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	go h.server.broadcast(ctx)
	t.Cleanup(func() {
		cancel()
		_ = h.server.ws.Close()
		h.http.Close()
	})
	return h
}

func (h *apiHarness) url(path string) string {
	return h.http.URL + APIPath + path
}

func (h *apiHarness) addr() string {
	return h.http.Listener.Addr().String()
}
