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
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/minaret-project/minaret/pkg/api/client"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/notifications"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPlayStopStatus(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	var status models.StatusResponse
	code := doJSON(t, http.MethodGet, h.url("/athan/status"), "", &status)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, status.Active)
	assert.Nil(t, status.Session)

	var session models.SessionResponse
	code = doJSON(t, http.MethodPost, h.url("/athan/play"), `{"prayer":"Maghrib"}`, &session)
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "maghrib", session.Prayer)
	assert.Equal(t, "session-1", session.ID)
	assert.Nil(t, session.StoppedAt)

	code = doJSON(t, http.MethodGet, h.url("/athan/status"), "", &status)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, status.Active)
	require.NotNil(t, status.Session)
	assert.Equal(t, "maghrib", status.Session.Prayer)

	var errResp models.ErrorResponse
	code = doJSON(t, http.MethodPost, h.url("/athan/play"), `{"prayer":"isha"}`, &errResp)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, errResp.Error)

	code = doJSON(t, http.MethodPost, h.url("/athan/stop"), "", &session)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, session.Stopped)
	assert.Equal(t, "remote", session.Reason)
	require.NotNil(t, session.StoppedAt)
	assert.Equal(t, 12*time.Second, session.StoppedAt.Sub(session.StartedAt))

	code = doJSON(t, http.MethodPost, h.url("/athan/stop"), "", &errResp)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, []string{"maghrib"}, h.athan.Plays())
}

func TestPlayValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantFields bool
	}{
		{name: "unknown prayer", body: `{"prayer":"brunch"}`, wantFields: true},
		{name: "missing prayer", body: `{}`, wantFields: true},
		{name: "no body", body: ""},
		{name: "bad json", body: `{"prayer":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newAPIHarness(t)

			var errResp models.ErrorResponse
			code := doJSON(t, http.MethodPost, h.url("/athan/play"), tt.body, &errResp)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.NotEmpty(t, errResp.Error)
			if tt.wantFields {
				assert.NotEmpty(t, errResp.Fields)
			}
			assert.Empty(t, h.athan.Plays())
		})
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)
	hist := &fakeHistory{entries: []history.Entry{
		{
			ID:             "b",
			Prayer:         "dhuhr",
			StartedAt:      started.Add(7 * time.Hour),
			StoppedAt:      started.Add(7*time.Hour + 40*time.Second),
			Reason:         "tap",
			ClockSource:    "system",
			ElapsedSeconds: 40,
		},
		{
			ID:          "a",
			Prayer:      "fajr",
			StartedAt:   started,
			StoppedAt:   started.Add(time.Minute),
			Reason:      "timeout",
			ClockSource: "system",
			Muted:       true,
		},
	}}
	h := newAPIHarness(t, withHistory(hist))

	var resp models.HistoryResponse
	code := doJSON(t, http.MethodGet, h.url("/athan/history"), "", &resp)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, history.DefaultLimit, hist.LastLimit())
	assert.Equal(t, "b", resp.Entries[0].ID)
	assert.Equal(t, 40, resp.Entries[0].ElapsedSeconds)
	assert.True(t, resp.Entries[1].Muted)

	code = doJSON(t, http.MethodGet, h.url("/athan/history?limit=1"), "", &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Entries, 1)
	assert.Equal(t, 1, hist.LastLimit())

	var errResp models.ErrorResponse
	code = doJSON(t, http.MethodGet, h.url("/athan/history?limit=lots"), "", &errResp)
	assert.Equal(t, http.StatusBadRequest, code)

	code = doJSON(t, http.MethodGet, h.url("/athan/history?limit=0"), "", &errResp)
	assert.Equal(t, http.StatusOK, code, "zero means the default limit")

	code = doJSON(t, http.MethodGet, h.url("/athan/history?limit=501"), "", &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHistoryUnavailable(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, withHistory(nil))

	var errResp models.ErrorResponse
	code := doJSON(t, http.MethodGet, h.url("/athan/history"), "", &errResp)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHistoryError(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, withHistory(&fakeHistory{err: errHistoryBroken}))

	var errResp models.ErrorResponse
	code := doJSON(t, http.MethodGet, h.url("/athan/history"), "", &errResp)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, errResp.Error, "history broken")
}

func TestDeviceEndpoints(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, withPlatform(func(pl *mocks.MockPlatform) {
		pl.On("RingerMode").Return(platforms.RingerVibrate, nil).Maybe()
		pl.On("SetRingerMode", platforms.RingerSilent).Return(nil).Once()
	}))

	var dev models.DeviceResponse
	code := doJSON(t, http.MethodGet, h.url("/device"), "", &dev)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "vibrate", dev.RingerMode)
	assert.Equal(t, 7, dev.Volume)
	assert.Equal(t, 10, dev.MaxVolume)

	code = doJSON(t, http.MethodPut, h.url("/device/ringer"), `{"mode":"Silent"}`, &dev)
	assert.Equal(t, http.StatusOK, code)
	h.platform.AssertCalled(t, "SetRingerMode", platforms.RingerSilent)

	code = doJSON(t, http.MethodPut, h.url("/device/volume"), `{"volume":4}`, &dev)
	assert.Equal(t, http.StatusOK, code)
	last, ok := h.platform.LastVolume()
	require.True(t, ok)
	assert.Equal(t, 4, last)

	var errResp models.ErrorResponse
	code = doJSON(t, http.MethodPut, h.url("/device/volume"), `{"volume":11}`, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	code = doJSON(t, http.MethodPut, h.url("/device/ringer"), `{"mode":"loud"}`, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	h.platform.AssertNumberOfCalls(t, "SetRingerMode", 1)
}

func TestDeviceReadError(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t, withPlatform(func(pl *mocks.MockPlatform) {
		pl.On("AlarmVolume").Return(0, assert.AnError)
	}))

	var errResp models.ErrorResponse
	code := doJSON(t, http.MethodGet, h.url("/device"), "", &errResp)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	resp, err := http.Get(h.url("/athan/pause"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, h.url("/athan/play"), http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebsocketCall(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	c := client.New(h.addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := c.Call(ctx, models.MethodAthanPlay, models.PlayParams{Prayer: "asr"})
	require.NoError(t, err)
	var session models.SessionResponse
	require.NoError(t, json.Unmarshal(raw, &session))
	assert.Equal(t, "asr", session.Prayer)

	_, err = c.Call(ctx, models.MethodAthanPlay, models.PlayParams{Prayer: "asr"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Code)

	_, err = c.Call(ctx, "athan.rewind", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)

	_, err = c.Call(ctx, models.MethodAthanPlay, models.PlayParams{Prayer: "nap"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.NotEmpty(t, apiErr.Fields)
}

func TestWebsocketNotifications(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)
	c := client.New(h.addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan models.Notification, 1)
	go func() {
		n, err := c.WaitNotification(ctx, models.NotificationDeviceUpdated)
		if err == nil {
			got <- n
		}
	}()

	// The watcher may not be connected yet, so keep sending until
	// one arrives.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case n := <-got:
			assert.Equal(t, models.NotificationDeviceUpdated, n.Method)
			var dev models.DeviceResponse
			require.NoError(t, json.Unmarshal(n.Params, &dev))
			assert.Equal(t, 7, dev.Volume)
			return
		case <-ticker.C:
			notifications.DeviceUpdated(h.server.Notifications(), models.DeviceResponse{
				RingerMode: "normal",
				Volume:     7,
				MaxVolume:  10,
			})
		case <-ctx.Done():
			t.Fatal("no notification received")
		}
	}
}

func TestServeShutsDown(t *testing.T) {
	t.Parallel()
	h := newAPIHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- h.server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + APIPath + "/athan/status")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
	assert.True(t, strings.HasPrefix(ln.Addr().String(), "127.0.0.1:"))
}
