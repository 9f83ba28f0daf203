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

package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/minaret-project/minaret/pkg/service/athan"
)

// Error lists every field of a request that failed validation.
type Error struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// NewError converts validator output into messages a client can show.
func NewError(errs validator.ValidationErrors) *Error {
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return &Error{Fields: fields}
}

// boundMessages are the comparison tags, keyed to the phrase before the
// tag parameter.
var boundMessages = map[string]string{
	"min": "must be at least",
	"max": "must be at most",
	"gte": "must be at least",
	"lte": "must be at most",
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	if phrase, ok := boundMessages[fe.Tag()]; ok {
		return fmt.Sprintf("%s %s %s", field, phrase, fe.Param())
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "prayer":
		msg := fmt.Sprintf("unknown prayer %q", fe.Value())
		if s := athan.SuggestPrayer(fmt.Sprint(fe.Value())); s != "" {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		return msg
	case "ringer":
		return field + " must be one of: normal vibrate silent"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
