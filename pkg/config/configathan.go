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

import "path/filepath"

const (
	// DefaultAthanVolume leaves the alarm channel at whatever level the
	// device already has.
	DefaultAthanVolume         = -1
	DefaultExemptPrayer        = "fajr"
	DefaultMuteVolumeThreshold = 1
)

type Athan struct {
	CustomSound         *string `toml:"custom_sound,omitempty"`
	ExemptPrayer        string  `toml:"exempt_prayer"`
	Volume              int     `toml:"volume"`
	MuteVolumeThreshold int     `toml:"mute_volume_threshold"`
	AscendingVolume     bool    `toml:"ascending_volume"`
	DismissLockScreen   bool    `toml:"dismiss_lock_screen"`
}

// AthanVolume returns the alarm channel level to apply while the athan
// plays, or DefaultAthanVolume to leave it alone.
func (c *Instance) AthanVolume() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Athan.Volume
}

func (c *Instance) SetAthanVolume(volume int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Athan.Volume = volume
}

func (c *Instance) AscendingVolume() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Athan.AscendingVolume
}

func (c *Instance) SetAscendingVolume(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Athan.AscendingVolume = enabled
}

// CustomSoundPath returns the resolved path of the user's athan sound, or ""
// when the bundled sound should be used. Relative paths resolve to
// dataDir/sounds/path.
func (c *Instance) CustomSoundPath(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.vals.Athan.CustomSound == nil || *c.vals.Athan.CustomSound == "" {
		return ""
	}

	path := *c.vals.Athan.CustomSound
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dataDir, SoundsDir, path)
}

func (c *Instance) SetCustomSound(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Athan.CustomSound = &path
}

// ExemptPrayer is the prayer that plays even when the device is silenced at
// the lowest alarm volume.
func (c *Instance) ExemptPrayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Athan.ExemptPrayer == "" {
		return DefaultExemptPrayer
	}
	return c.vals.Athan.ExemptPrayer
}

// MuteVolumeThreshold is the alarm channel level treated as "user turned it
// all the way down".
func (c *Instance) MuteVolumeThreshold() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Athan.MuteVolumeThreshold
}

func (c *Instance) DismissLockScreen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Athan.DismissLockScreen
}
