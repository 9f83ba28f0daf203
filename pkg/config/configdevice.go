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

package config

const (
	DefaultAlarmVolume = 7

	RingerModeNormal  = "normal"
	RingerModeVibrate = "vibrate"
	RingerModeSilent  = "silent"
)

type Device struct {
	RingerMode  string `toml:"ringer_mode"`
	AlarmVolume int    `toml:"alarm_volume"`
}

func validRingerMode(mode string) bool {
	switch mode {
	case RingerModeNormal, RingerModeVibrate, RingerModeSilent:
		return true
	default:
		return false
	}
}

// DeviceAlarmVolume is the alarm channel level the device starts with.
func (c *Instance) DeviceAlarmVolume() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Device.AlarmVolume
}

func (c *Instance) DeviceRingerMode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Device.RingerMode
}
