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

// Package notifications queues events for API websocket clients.
package notifications

import (
	"encoding/json"

	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// send queues a notification without blocking. A full queue drops it.
func send(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}
	params, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
		return
	}
	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification queue full, dropping")
	}
}

func AthanStarted(ns chan<- models.Notification, payload models.SessionResponse) {
	send(ns, models.NotificationAthanStarted, payload)
}

func AthanStopped(ns chan<- models.Notification, payload models.SessionResponse) {
	send(ns, models.NotificationAthanStopped, payload)
}

func DeviceUpdated(ns chan<- models.Notification, payload models.DeviceResponse) {
	send(ns, models.NotificationDeviceUpdated, payload)
}
