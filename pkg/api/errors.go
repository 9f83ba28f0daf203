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

package api

import (
	"errors"
	"net/http"

	"github.com/minaret-project/minaret/pkg/api/methods"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/validation"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/service/athan"
)

// statusCode maps a method error to the HTTP status sent to clients.
func statusCode(err error) int {
	switch {
	case validation.IsValidationError(err),
		errors.Is(err, athan.ErrUnknownPrayer),
		errors.Is(err, platforms.ErrUnknownRingerMode):
		return http.StatusBadRequest
	case errors.Is(err, methods.ErrUnknownMethod),
		errors.Is(err, athan.ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, athan.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, methods.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorObject(err error) *models.ErrorObject {
	obj := &models.ErrorObject{
		Code:    statusCode(err),
		Message: err.Error(),
	}
	var ve *validation.Error
	if errors.As(err, &ve) {
		for _, f := range ve.Fields {
			obj.Fields = append(obj.Fields, f.Message)
		}
	}
	return obj
}
