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

package linux

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/minaret-project/minaret/pkg/audio"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlatform(t *testing.T, defaults config.Values) *Platform {
	t.Helper()
	cfg, err := config.NewConfig(t.TempDir(), defaults)
	require.NoError(t, err)
	return NewPlatform(cfg, afero.NewMemMapFs())
}

func TestPlatform_DeviceDefaults(t *testing.T) {
	t.Parallel()

	defaults := config.BaseDefaults
	defaults.Device.AlarmVolume = 3
	defaults.Device.RingerMode = config.RingerModeVibrate
	p := newTestPlatform(t, defaults)

	vol, err := p.AlarmVolume()
	require.NoError(t, err)
	assert.Equal(t, 3, vol)

	mode, err := p.RingerMode()
	require.NoError(t, err)
	assert.Equal(t, platforms.RingerVibrate, mode)
	assert.Equal(t, platforms.PlatformIDLinux, p.ID())
	assert.NotNil(t, p.Audio())
}

func TestPlatform_SetAlarmVolumeClamps(t *testing.T) {
	t.Parallel()

	p := newTestPlatform(t, config.BaseDefaults)

	require.NoError(t, p.SetAlarmVolume(audio.MaxVolume+5))
	vol, err := p.AlarmVolume()
	require.NoError(t, err)
	assert.Equal(t, audio.MaxVolume, vol)

	require.NoError(t, p.SetAlarmVolume(-1))
	vol, err = p.AlarmVolume()
	require.NoError(t, err)
	assert.Equal(t, 0, vol)
}

func TestPlatform_SetRingerMode(t *testing.T) {
	t.Parallel()

	p := newTestPlatform(t, config.BaseDefaults)
	require.NoError(t, p.SetRingerMode(platforms.RingerSilent))

	mode, err := p.RingerMode()
	require.NoError(t, err)
	assert.Equal(t, platforms.RingerSilent, mode)
}

func TestMapModemCallState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state int32
		want  platforms.CallState
	}{
		{name: "unknown", state: mmCallStateUnknown, want: platforms.CallStateIdle},
		{name: "dialing", state: mmCallStateDialing, want: platforms.CallStateOffhook},
		{name: "ringing out", state: mmCallStateRingingOut, want: platforms.CallStateOffhook},
		{name: "ringing in", state: mmCallStateRingingIn, want: platforms.CallStateRinging},
		{name: "active", state: mmCallStateActive, want: platforms.CallStateOffhook},
		{name: "held", state: mmCallStateHeld, want: platforms.CallStateOffhook},
		{name: "waiting", state: mmCallStateWaiting, want: platforms.CallStateRinging},
		{name: "terminated", state: mmCallStateTerminated, want: platforms.CallStateIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mapModemCallState(tt.state))
		})
	}
}

func TestParseCallSignal(t *testing.T) {
	t.Parallel()

	name := modemManagerCall + "." + callStateChanged

	state, ok := parseCallSignal(&dbus.Signal{
		Name: name,
		Path: "/org/freedesktop/ModemManager1/Call/0",
		Body: []any{int32(mmCallStateUnknown), int32(mmCallStateRingingIn), uint32(0)},
	})
	require.True(t, ok)
	assert.Equal(t, platforms.CallStateRinging, state)

	_, ok = parseCallSignal(&dbus.Signal{Name: "org.example.Other", Body: []any{int32(0), int32(3)}})
	assert.False(t, ok)

	_, ok = parseCallSignal(&dbus.Signal{Name: name, Body: []any{int32(0)}})
	assert.False(t, ok)

	_, ok = parseCallSignal(&dbus.Signal{Name: name, Body: []any{int32(0), "3"}})
	assert.False(t, ok)

	_, ok = parseCallSignal(nil)
	assert.False(t, ok)
}
