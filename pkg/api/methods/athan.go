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
	"github.com/minaret-project/minaret/pkg/api/validation"
	"github.com/minaret-project/minaret/pkg/service/athan"
	"github.com/rs/zerolog/log"
)

// SessionFromStatus converts a session snapshot for the API.
func SessionFromStatus(st athan.Status) models.SessionResponse {
	resp := models.SessionResponse{
		ID:             st.ID,
		Prayer:         st.Prayer,
		StartedAt:      st.StartedAt,
		Reason:         string(st.Reason),
		CustomSound:    st.CustomSound,
		ElapsedSeconds: st.ElapsedSeconds,
		VolumeStep:     st.VolumeStep,
		Muted:          st.Muted,
		Stopped:        st.Stopped,
	}
	if !st.StoppedAt.IsZero() {
		stoppedAt := st.StoppedAt
		resp.StoppedAt = &stoppedAt
	}
	return resp
}

func HandlePlay(env requests.RequestEnv) (any, error) {
	var params models.PlayParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid play params: %w", err)
	}

	log.Info().Str("source", env.Source).Str("prayer", params.Prayer).Msg("play requested")
	st, err := env.Athan.Play(env.Context, params.Prayer, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to play athan: %w", err)
	}
	return SessionFromStatus(st), nil
}

func HandleStop(env requests.RequestEnv) (any, error) {
	log.Info().Str("source", env.Source).Msg("stop requested")
	st, err := env.Athan.StopActive(env.Context, athan.StopReasonRemote)
	if err != nil {
		return nil, fmt.Errorf("failed to stop athan: %w", err)
	}
	return SessionFromStatus(st), nil
}

func HandleStatus(env requests.RequestEnv) (any, error) {
	st, ok := env.Athan.Active()
	if !ok {
		return models.StatusResponse{Active: false}, nil
	}
	session := SessionFromStatus(st)
	return models.StatusResponse{Active: true, Session: &session}, nil
}
