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

// Package client talks to a running Minaret service over its websocket.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/rs/zerolog/log"
)

// WSPath is where the service accepts websocket clients.
const WSPath = "/api/v1/ws"

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrRequestCancelled = errors.New("request cancelled")
	ErrConnectionClosed = errors.New("connection closed")
)

// APIError is an error returned by the service for a method call.
type APIError struct {
	Message string
	Fields  []string
	Code    int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

type Client struct {
	dialer *websocket.Dialer
	url    string
}

// New returns a client for the service listening on addr (host:port).
func New(addr string) *Client {
	u := url.URL{Scheme: "ws", Host: addr, Path: WSPath}
	return &Client{
		dialer: websocket.DefaultDialer,
		url:    u.String(),
	}
}

// NewLocal returns a client for the service configured in cfg. Wildcard
// listen addresses are dialled on loopback.
func NewLocal(cfg *config.Instance) *Client {
	return New(dialAddr(cfg.APIListen()))
}

func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, func(), error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	closeFn := func() {
		close(stop)
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing websocket")
		}
	}
	return conn, closeFn, nil
}

// ctxErr turns a read failure into a cancellation error when ctx ended.
func ctxErr(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrRequestTimeout
	case ctx.Err() != nil:
		return ErrRequestCancelled
	default:
		return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
	}
}

// Call sends one method call and waits for its response. params may be
// nil or any JSON-marshallable value.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	req := models.RequestObject{
		ID:     uuid.New(),
		Method: method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = raw
	}

	conn, closeFn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, ctxErr(ctx, err)
		}

		var resp models.ResponseObject
		if err := json.Unmarshal(msg, &resp); err != nil || resp.ID != req.ID {
			continue
		}
		if resp.Error != nil {
			return nil, &APIError{
				Code:    resp.Error.Code,
				Message: resp.Error.Message,
				Fields:  resp.Error.Fields,
			}
		}
		return resp.Result, nil
	}
}

// Watch calls fn for every notification until ctx is done or the
// connection drops.
func (c *Client) Watch(ctx context.Context, fn func(models.Notification)) error {
	conn, closeFn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return ctxErr(ctx, err)
		}

		var n models.Notification
		if err := json.Unmarshal(msg, &n); err != nil || n.Method == "" {
			continue
		}
		fn(n)
	}
}

// WaitNotification blocks until a notification with one of the given
// methods arrives. With no methods any notification matches.
func (c *Client) WaitNotification(ctx context.Context, methods ...string) (models.Notification, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var found *models.Notification
	err := c.Watch(ctx, func(n models.Notification) {
		if found != nil {
			return
		}
		if len(methods) == 0 || slices.Contains(methods, strings.ToLower(n.Method)) {
			found = &n
			cancel()
		}
	})
	if found != nil {
		return *found, nil
	}
	return models.Notification{}, err
}
