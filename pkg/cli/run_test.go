//go:build linux

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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/minaret-project/minaret/pkg/api/client"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/service/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Running() bool {
	return m.Called().Bool(0)
}

func (m *mockService) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockService) Start() error {
	return m.Called().Error(0)
}

func (m *mockService) Stop() error {
	return m.Called().Error(0)
}

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	args := m.Called(ctx, method, params)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockAPI) Watch(ctx context.Context, fn func(models.Notification)) error {
	args := m.Called(ctx, fn)
	for _, n := range args.Get(0).([]models.Notification) {
		fn(n)
	}
	return args.Error(1)
}

func (m *mockAPI) WaitNotification(ctx context.Context, methods ...string) (models.Notification, error) {
	args := m.Called(ctx, methods)
	return args.Get(0).(models.Notification), args.Error(1)
}

var _ client.APIClient = (*mockAPI)(nil)

type appHarness struct {
	app     *App
	svc     *mockService
	api     *mockAPI
	out     *bytes.Buffer
	played  []string
	playErr error
}

func newAppHarness(t *testing.T) *appHarness {
	t.Helper()
	h := &appHarness{
		svc: &mockService{},
		api: &mockAPI{},
		out: &bytes.Buffer{},
	}
	h.app = &App{
		Service: h.svc,
		API:     h.api,
		Out:     h.out,
		Play: func(_ context.Context, prayer string) error {
			h.played = append(h.played, prayer)
			return h.playErr
		},
	}
	t.Cleanup(func() {
		h.svc.AssertExpectations(t)
		h.api.AssertExpectations(t)
	})
	return h
}

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	f := newFlags(flag.NewFlagSet("minaret", flag.ContinueOnError))
	require.NoError(t, f.set.Parse(args))
	return f
}

func TestRunApp_PlayLocalWhenServiceStopped(t *testing.T) {
	t.Parallel()
	h := newAppHarness(t)
	h.svc.On("Running").Return(false)

	err := h.app.RunApp(context.Background(), parseFlags(t, "-play", "maghrib"))
	require.NoError(t, err)
	assert.Equal(t, []string{"maghrib"}, h.played)
}

func TestRunApp_PlayLocalError(t *testing.T) {
	t.Parallel()
	h := newAppHarness(t)
	h.playErr = errors.New("no audio device")
	h.svc.On("Running").Return(false)

	err := h.app.RunApp(context.Background(), parseFlags(t, "-play", "isha"))
	require.ErrorIs(t, err, h.playErr)
}

func TestRunApp_PlayRemoteWhenServiceRunning(t *testing.T) {
	t.Parallel()
	h := newAppHarness(t)
	h.svc.On("Running").Return(true)
	h.api.On("Call", mock.Anything, models.MethodAthanPlay, models.PlayParams{Prayer: "asr"}).
		Return(json.RawMessage(`{"prayer":"asr"}`), nil)

	err := h.app.RunApp(context.Background(), parseFlags(t, "-play", "asr"))
	require.NoError(t, err)
	assert.Empty(t, h.played)
	assert.Equal(t, "{\"prayer\":\"asr\"}\n", h.out.String())
}

func TestRunApp_PlayRequiresValue(t *testing.T) {
	t.Parallel()
	h := newAppHarness(t)

	err := h.app.RunApp(context.Background(), parseFlags(t, "-play="))
	require.ErrorIs(t, err, ErrMissingValue)
}

func TestRunApp_ServiceControl(t *testing.T) {
	t.Parallel()

	t.Run("foreground", func(t *testing.T) {
		t.Parallel()
		h := newAppHarness(t)
		h.svc.On("Running").Return(false)
		h.svc.On("Run", mock.Anything).Return(nil)
		require.NoError(t, h.app.RunApp(context.Background(), parseFlags(t, "-foreground")))
	})

	t.Run("foreground already running", func(t *testing.T) {
		t.Parallel()
		h := newAppHarness(t)
		h.svc.On("Running").Return(true)
		require.NoError(t, h.app.RunApp(context.Background(), parseFlags(t, "-foreground")))
		h.svc.AssertNotCalled(t, "Run", mock.Anything)
	})

	t.Run("daemon", func(t *testing.T) {
		t.Parallel()
		h := newAppHarness(t)
		h.svc.On("Start").Return(nil)
		require.NoError(t, h.app.RunApp(context.Background(), parseFlags(t, "-daemon")))
		assert.Equal(t, "service started\n", h.out.String())
	})

	t.Run("stop not running", func(t *testing.T) {
		t.Parallel()
		h := newAppHarness(t)
		h.svc.On("Stop").Return(daemon.ErrNotRunning)
		require.NoError(t, h.app.RunApp(context.Background(), parseFlags(t, "-stop")))
		assert.Equal(t, "service not running\n", h.out.String())
	})

	t.Run("stop error", func(t *testing.T) {
		t.Parallel()
		h := newAppHarness(t)
		h.svc.On("Stop").Return(errors.New("permission denied"))
		require.Error(t, h.app.RunApp(context.Background(), parseFlags(t, "-stop")))
	})
}

func TestRunApp_RemoteFlagsNeedService(t *testing.T) {
	t.Parallel()
	h := newAppHarness(t)
	h.svc.On("Running").Return(false)

	require.NoError(t, h.app.RunApp(context.Background(), parseFlags(t, "-status")))
	assert.Contains(t, h.out.String(), "service not running")
}

func TestRunApp_UsageWithoutFlags(t *testing.T) {
	t.Parallel()
	h := newAppHarness(t)
	h.svc.On("Running").Return(true)

	require.NoError(t, h.app.RunApp(context.Background(), parseFlags(t)))
	assert.Contains(t, h.out.String(), "-play")
}

func TestPost_Calls(t *testing.T) {
	t.Parallel()

	volume := 4
	tests := []struct {
		params any
		name   string
		method string
		args   []string
	}{
		{name: "status", args: []string{"-status"}, method: models.MethodAthanStatus},
		{name: "stop athan", args: []string{"-stop-athan"}, method: models.MethodAthanStop},
		{name: "device", args: []string{"-device"}, method: models.MethodDevice},
		{
			name:   "history",
			args:   []string{"-history", "5"},
			method: models.MethodAthanHistory,
			params: models.HistoryParams{Limit: 5},
		},
		{
			name:   "volume",
			args:   []string{"-volume", "4"},
			method: models.MethodDeviceVolume,
			params: models.VolumeParams{Volume: &volume},
		},
		{
			name:   "ringer",
			args:   []string{"-ringer", "silent"},
			method: models.MethodDeviceRinger,
			params: models.RingerParams{Mode: "silent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &mockAPI{}
			api.On("Call", mock.Anything, tt.method, tt.params).
				Return(json.RawMessage(`{"ok":true}`), nil)
			out := &bytes.Buffer{}

			handled, err := parseFlags(t, tt.args...).Post(context.Background(), api, out)
			require.NoError(t, err)
			assert.True(t, handled)
			assert.Equal(t, "{\"ok\":true}\n", out.String())
			api.AssertExpectations(t)
		})
	}
}

func TestPost_CallError(t *testing.T) {
	t.Parallel()
	api := &mockAPI{}
	apiErr := &client.APIError{Message: "no active athan session", Code: 404}
	api.On("Call", mock.Anything, models.MethodAthanStop, nil).Return(nil, apiErr)

	handled, err := parseFlags(t, "-stop-athan").Post(context.Background(), api, &bytes.Buffer{})
	assert.True(t, handled)
	var got *client.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 404, got.Code)
}

func TestPost_HistoryCSV(t *testing.T) {
	t.Parallel()
	api := &mockAPI{}
	api.On("Call", mock.Anything, models.MethodAthanHistory, models.HistoryParams{Limit: 2}).
		Return(json.RawMessage(`{"entries":[
			{"id":"a1","prayer":"fajr","reason":"user","clockSource":"real","elapsedSeconds":42},
			{"id":"b2","prayer":"isha","reason":"complete","clockSource":"real","elapsedSeconds":180,"muted":true}
		]}`), nil)
	out := &bytes.Buffer{}

	handled, err := parseFlags(t, "-history", "2", "-csv").Post(context.Background(), api, out)
	require.NoError(t, err)
	assert.True(t, handled)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"started_at,stopped_at,id,prayer,reason,custom_sound,clock_source,elapsed_seconds,muted",
		lines[0])
	assert.Contains(t, lines[1], ",a1,fajr,user,,real,42,false")
	assert.Contains(t, lines[2], ",b2,isha,complete,,real,180,true")
	api.AssertExpectations(t)
}

func TestPost_RingerRequiresValue(t *testing.T) {
	t.Parallel()

	handled, err := parseFlags(t, "-ringer=").Post(context.Background(), &mockAPI{}, &bytes.Buffer{})
	assert.True(t, handled)
	require.ErrorIs(t, err, ErrMissingValue)
}

func TestPost_Watch(t *testing.T) {
	t.Parallel()
	api := &mockAPI{}
	api.On("Watch", mock.Anything, mock.Anything).Return([]models.Notification{
		{Method: models.NotificationAthanStarted, Params: json.RawMessage(`{"prayer":"fajr"}`)},
		{Method: models.NotificationAthanStopped},
	}, client.ErrRequestCancelled)
	out := &bytes.Buffer{}

	handled, err := parseFlags(t, "-watch").Post(context.Background(), api, out)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "athan.started {\"prayer\":\"fajr\"}\nathan.stopped \n", out.String())
}

func TestPost_NothingToDo(t *testing.T) {
	t.Parallel()

	handled, err := parseFlags(t).Post(context.Background(), &mockAPI{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, handled)
}
