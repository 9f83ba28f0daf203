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

// Package linux implements the platform on desktop and single-board Linux
// systems. Volume and ringer mode are Minaret state; call state and screen
// control go over D-Bus.
package linux

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/minaret-project/minaret/pkg/audio"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Platform struct {
	channel *audio.AlarmChannel
	player  audio.Player
	ringer  platforms.RingerMode
	mu      syncutil.RWMutex
}

// NewPlatform creates the Linux platform. The alarm channel and ringer mode
// start from the device section of cfg.
func NewPlatform(cfg *config.Instance, fs afero.Fs) *Platform {
	ringer, err := platforms.ParseRingerMode(cfg.DeviceRingerMode())
	if err != nil {
		log.Warn().Err(err).Msg("invalid ringer mode in config, using normal")
		ringer = platforms.RingerNormal
	}
	channel := audio.NewAlarmChannel(cfg.DeviceAlarmVolume())
	return &Platform{
		channel: channel,
		player:  audio.NewBeepPlayer(fs, channel),
		ringer:  ringer,
	}
}

func (*Platform) ID() string {
	return platforms.PlatformIDLinux
}

func (*Platform) Settings() platforms.Settings {
	return platforms.Settings{
		DataDir:   filepath.Join(xdg.DataHome, config.AppName),
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		TempDir:   filepath.Join(os.TempDir(), config.AppName),
	}
}

func (p *Platform) AlarmVolume() (int, error) {
	return p.channel.Volume(), nil
}

func (p *Platform) SetAlarmVolume(volume int) error {
	applied := p.channel.SetVolume(volume)
	if applied != volume {
		log.Debug().Int("requested", volume).Int("applied", applied).
			Msg("alarm volume clamped")
	}
	return nil
}

func (p *Platform) RingerMode() (platforms.RingerMode, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ringer, nil
}

func (p *Platform) SetRingerMode(mode platforms.RingerMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ringer = mode
	log.Info().Stringer("mode", mode).Msg("ringer mode changed")
	return nil
}

func (p *Platform) Audio() audio.Player {
	return p.player
}
