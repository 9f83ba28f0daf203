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

package client

import (
	"context"
	"encoding/json"

	"github.com/minaret-project/minaret/pkg/api/models"
)

// APIClient is the part of Client the CLI uses, so commands can be tested
// without a running service.
type APIClient interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	Watch(ctx context.Context, fn func(models.Notification)) error
	WaitNotification(ctx context.Context, methods ...string) (models.Notification, error)
}

var _ APIClient = (*Client)(nil)
