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

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	MethodAthanPlay    = "athan.play"
	MethodAthanStop    = "athan.stop"
	MethodAthanStatus  = "athan.status"
	MethodAthanHistory = "athan.history"
	MethodDevice       = "device"
	MethodDeviceRinger = "device.ringer"
	MethodDeviceVolume = "device.volume"
)

const (
	NotificationAthanStarted  = "athan.started"
	NotificationAthanStopped  = "athan.stopped"
	NotificationDeviceUpdated = "device.updated"
)

type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RequestObject is a method call sent over the websocket.
type RequestObject struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
	ID     uuid.UUID       `json:"id"`
}

// ResponseObject answers a RequestObject with the same ID. Exactly one of
// Result and Error is set.
type ResponseObject struct {
	Error  *ErrorObject    `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	ID     uuid.UUID       `json:"id"`
}

// ErrorObject carries an HTTP status code as its Code.
type ErrorObject struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	Code    int      `json:"code"`
}

type PlayParams struct {
	Prayer string `json:"prayer" validate:"required,prayer"`
}

type HistoryParams struct {
	Limit int `json:"limit,omitempty" validate:"omitempty,min=1,max=500"`
}

type RingerParams struct {
	Mode string `json:"mode" validate:"required,ringer"`
}

type VolumeParams struct {
	Volume *int `json:"volume" validate:"required,min=0,max=10"`
}

type SessionResponse struct {
	StartedAt      time.Time  `json:"startedAt"`
	StoppedAt      *time.Time `json:"stoppedAt,omitempty"`
	ID             string     `json:"id"`
	Prayer         string     `json:"prayer"`
	Reason         string     `json:"reason,omitempty"`
	CustomSound    string     `json:"customSound,omitempty"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	VolumeStep     int        `json:"volumeStep"`
	Muted          bool       `json:"muted"`
	Stopped        bool       `json:"stopped"`
}

type StatusResponse struct {
	Session *SessionResponse `json:"session,omitempty"`
	Active  bool             `json:"active"`
}

type HistoryEntry struct {
	StartedAt      time.Time `json:"startedAt" csv:"started_at"`
	StoppedAt      time.Time `json:"stoppedAt" csv:"stopped_at"`
	ID             string    `json:"id" csv:"id"`
	Prayer         string    `json:"prayer" csv:"prayer"`
	Reason         string    `json:"reason" csv:"reason"`
	CustomSound    string    `json:"customSound,omitempty" csv:"custom_sound"`
	ClockSource    string    `json:"clockSource" csv:"clock_source"`
	ElapsedSeconds int       `json:"elapsedSeconds" csv:"elapsed_seconds"`
	Muted          bool      `json:"muted" csv:"muted"`
}

type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

type DeviceResponse struct {
	RingerMode string `json:"ringerMode"`
	Volume     int    `json:"volume"`
	MaxVolume  int    `json:"maxVolume"`
}

type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}
