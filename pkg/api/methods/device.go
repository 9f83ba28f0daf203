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

package methods

import (
	"fmt"

	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/models/requests"
	"github.com/minaret-project/minaret/pkg/api/notifications"
	"github.com/minaret-project/minaret/pkg/api/validation"
	"github.com/minaret-project/minaret/pkg/audio"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

func deviceState(pl platforms.Platform) (models.DeviceResponse, error) {
	vol, err := pl.AlarmVolume()
	if err != nil {
		return models.DeviceResponse{}, fmt.Errorf("failed to read alarm volume: %w", err)
	}
	mode, err := pl.RingerMode()
	if err != nil {
		return models.DeviceResponse{}, fmt.Errorf("failed to read ringer mode: %w", err)
	}
	return models.DeviceResponse{
		RingerMode: mode.String(),
		Volume:     vol,
		MaxVolume:  audio.MaxVolume,
	}, nil
}

func deviceUpdated(env requests.RequestEnv) (any, error) {
	state, err := deviceState(env.Platform)
	if err != nil {
		return nil, err
	}
	notifications.DeviceUpdated(env.Notifications, state)
	return state, nil
}

func HandleDevice(env requests.RequestEnv) (any, error) {
	return deviceState(env.Platform)
}

func HandleRinger(env requests.RequestEnv) (any, error) {
	var params models.RingerParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid ringer params: %w", err)
	}
	mode, err := platforms.ParseRingerMode(params.Mode)
	if err != nil {
		return nil, fmt.Errorf("invalid ringer params: %w", err)
	}

	if err := env.Platform.SetRingerMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set ringer mode: %w", err)
	}
	log.Info().Str("source", env.Source).Stringer("mode", mode).Msg("ringer mode changed")
	return deviceUpdated(env)
}

func HandleVolume(env requests.RequestEnv) (any, error) {
	var params models.VolumeParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid volume params: %w", err)
	}

	if err := env.Platform.SetAlarmVolume(*params.Volume); err != nil {
		return nil, fmt.Errorf("failed to set alarm volume: %w", err)
	}
	log.Info().Str("source", env.Source).Int("volume", *params.Volume).Msg("alarm volume changed")
	return deviceUpdated(env)
}
