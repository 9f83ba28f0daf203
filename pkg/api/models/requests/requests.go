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

package requests

import (
	"context"
	"encoding/json"

	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/service/athan"
)

// Athan is the part of the session manager the API drives.
type Athan interface {
	Play(ctx context.Context, prayer string, window platforms.Window) (athan.Status, error)
	StopActive(ctx context.Context, reason athan.StopReason) (athan.Status, error)
	Active() (athan.Status, bool)
}

type History interface {
	Recent(limit int) ([]history.Entry, error)
}

// RequestEnv is everything a method handler needs for one request.
type RequestEnv struct {
	Context       context.Context
	Platform      platforms.Platform
	Config        *config.Instance
	Athan         Athan
	History       History
	// Notifications receives state changes for websocket clients. May be
	// nil.
	Notifications chan<- models.Notification
	Params        json.RawMessage
	// Source names where the request came from, for logs.
	Source string
}
