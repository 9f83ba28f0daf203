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
	"errors"
	"fmt"

	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/models/requests"
	"github.com/minaret-project/minaret/pkg/api/validation"
	"github.com/minaret-project/minaret/pkg/database/history"
)

var ErrHistoryUnavailable = errors.New("history is not available")

func HandleHistory(env requests.RequestEnv) (any, error) {
	var params models.HistoryParams
	if len(env.Params) > 0 {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid history params: %w", err)
		}
	}
	if env.History == nil {
		return nil, ErrHistoryUnavailable
	}

	limit := params.Limit
	if limit == 0 {
		limit = history.DefaultLimit
	}
	entries, err := env.History.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	resp := models.HistoryResponse{
		Entries: make([]models.HistoryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, models.HistoryEntry{
			ID:             e.ID,
			Prayer:         e.Prayer,
			StartedAt:      e.StartedAt,
			StoppedAt:      e.StoppedAt,
			Reason:         e.Reason,
			CustomSound:    e.CustomSound,
			ClockSource:    e.ClockSource,
			ElapsedSeconds: e.ElapsedSeconds,
			Muted:          e.Muted,
		})
	}
	return resp, nil
}
