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

// Package methods implements the API operations. Each handler takes a
// request environment and returns a JSON-serializable result, so the HTTP
// server and the MQTT subscriber share them.
package methods

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/models/requests"
)

var ErrUnknownMethod = errors.New("unknown method")

type Handler func(env requests.RequestEnv) (any, error)

var methodMap = map[string]Handler{
	// athan
	models.MethodAthanPlay:    HandlePlay,
	models.MethodAthanStop:    HandleStop,
	models.MethodAthanStatus:  HandleStatus,
	models.MethodAthanHistory: HandleHistory,
	// device
	models.MethodDevice:       HandleDevice,
	models.MethodDeviceRinger: HandleRinger,
	models.MethodDeviceVolume: HandleVolume,
}

// Lookup returns the handler for a method name.
func Lookup(method string) (Handler, error) {
	fn, ok := methodMap[strings.ToLower(method)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	return fn, nil
}
