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

package service

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/minaret-project/minaret/pkg/api/client"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/service/athan"
	"github.com/minaret-project/minaret/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newServicePlatform(t *testing.T) (*mocks.MockPlatform, platforms.Settings) {
	t.Helper()
	root := t.TempDir()
	settings := platforms.Settings{
		DataDir:   filepath.Join(root, "data"),
		ConfigDir: filepath.Join(root, "config"),
		TempDir:   filepath.Join(root, "tmp"),
	}

	player := mocks.NewMockPlayer()
	media := mocks.NewMockMedia()
	media.On("Play").Return(nil)
	player.On("OpenMedia", mock.Anything).Return(media, nil)

	pl := mocks.NewMockPlatform()
	pl.On("Settings").Return(settings)
	pl.SetupBasicMock(player)
	return pl, settings
}

func TestForwardEvents(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 2)
	fn := forwardEvents(ns)
	fn(athan.Event{Kind: athan.EventStarted, Status: athan.Status{ID: "a"}})
	fn(athan.Event{Kind: athan.EventStopped, Status: athan.Status{ID: "a", Stopped: true}})

	assert.Equal(t, models.NotificationAthanStarted, (<-ns).Method)
	n := <-ns
	assert.Equal(t, models.NotificationAthanStopped, n.Method)
	var session models.SessionResponse
	require.NoError(t, json.Unmarshal(n.Params, &session))
	assert.True(t, session.Stopped)
}

func TestStartPlayStop(t *testing.T) {
	t.Parallel()

	pl, settings := newServicePlatform(t)
	cfg, err := config.NewConfig(settings.ConfigDir, config.BaseDefaults)
	require.NoError(t, err)

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	stop, done, err := Start(pl, cfg, Options{Listener: ln})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := client.New(ln.Addr().String())

	stopped := make(chan models.Notification, 1)
	go func() {
		_ = c.Watch(ctx, func(n models.Notification) {
			if n.Method == models.NotificationAthanStopped {
				select {
				case stopped <- n:
				default:
				}
			}
		})
	}()
	// Watch has no connected signal; give it a moment before playing.
	time.Sleep(100 * time.Millisecond)

	raw, err := c.Call(ctx, models.MethodAthanPlay, models.PlayParams{Prayer: "dhuhr"})
	require.NoError(t, err)
	var session models.SessionResponse
	require.NoError(t, json.Unmarshal(raw, &session))
	assert.Equal(t, "dhuhr", session.Prayer)

	_, err = c.Call(ctx, models.MethodAthanStop, nil)
	require.NoError(t, err)

	select {
	case n := <-stopped:
		var got models.SessionResponse
		require.NoError(t, json.Unmarshal(n.Params, &got))
		assert.Equal(t, string(athan.StopReasonRemote), got.Reason)
	case <-ctx.Done():
		t.Fatal("no stopped notification")
	}

	require.NoError(t, stop())
	select {
	case <-done:
	default:
		t.Fatal("done not closed after stop")
	}

	db, err := history.Open(filepath.Join(settings.DataDir, config.HistoryFile))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	entries, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dhuhr", entries[0].Prayer)
	assert.Equal(t, string(athan.StopReasonRemote), entries[0].Reason)
}

func TestStartListenError(t *testing.T) {
	t.Parallel()

	pl, settings := newServicePlatform(t)
	cfg, err := config.NewConfig(settings.ConfigDir, config.BaseDefaults)
	require.NoError(t, err)

	var lc net.ListenConfig
	taken, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = taken.Close() }()

	_, port, err := net.SplitHostPort(taken.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)
	cfg.SetAPIPort(portNum)

	_, _, err = Start(pl, cfg, Options{})
	require.Error(t, err)
}
