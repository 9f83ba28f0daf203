//go:build linux

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

package linux

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

const (
	modemManagerCall = "org.freedesktop.ModemManager1.Call"
	callStateChanged = "StateChanged"
)

// ModemManager MMCallState values.
const (
	mmCallStateUnknown    = 0
	mmCallStateDialing    = 1
	mmCallStateRingingOut = 2
	mmCallStateRingingIn  = 3
	mmCallStateActive     = 4
	mmCallStateHeld       = 5
	mmCallStateWaiting    = 6
	mmCallStateTerminated = 7
)

func mapModemCallState(state int32) platforms.CallState {
	switch state {
	case mmCallStateRingingIn, mmCallStateWaiting:
		return platforms.CallStateRinging
	case mmCallStateDialing, mmCallStateRingingOut, mmCallStateActive, mmCallStateHeld:
		return platforms.CallStateOffhook
	default:
		return platforms.CallStateIdle
	}
}

// parseCallSignal extracts the new call state from a ModemManager
// Call.StateChanged signal (old int32, new int32, reason uint32).
func parseCallSignal(signal *dbus.Signal) (platforms.CallState, bool) {
	if signal == nil || signal.Name != modemManagerCall+"."+callStateChanged {
		return platforms.CallStateIdle, false
	}
	if len(signal.Body) < 2 {
		return platforms.CallStateIdle, false
	}
	state, ok := signal.Body[1].(int32)
	if !ok {
		return platforms.CallStateIdle, false
	}
	return mapModemCallState(state), true
}

func connectBus(private func(...dbus.ConnOption) (*dbus.Conn, error)) (*dbus.Conn, error) {
	conn, err := private()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to D-Bus: %w", err)
	}
	if err := conn.Auth(nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to authenticate D-Bus connection: %w", err)
	}
	if err := conn.Hello(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to complete D-Bus handshake: %w", err)
	}
	return conn, nil
}

// ListenCallState watches ModemManager call objects on the system bus. A
// private connection is used so it can be closed when the listener is
// removed.
func (*Platform) ListenCallState(fn func(platforms.CallState)) (func() error, error) {
	conn, err := connectBus(dbus.SystemBusPrivate)
	if err != nil {
		return nil, err
	}

	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(modemManagerCall),
		dbus.WithMatchMember(callStateChanged),
	}
	if err := conn.AddMatchSignal(opts...); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to add match for call state: %w", err)
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			case signal, ok := <-signals:
				if !ok {
					return
				}
				state, ok := parseCallSignal(signal)
				if !ok {
					continue
				}
				log.Debug().Stringer("state", state).
					Str("path", string(signal.Path)).
					Msg("modem call state changed")
				fn(state)
			}
		}
	}()

	var once sync.Once
	var closeErr error
	unlisten := func() error {
		once.Do(func() {
			close(stop)
			wg.Wait()
			if err := conn.RemoveMatchSignal(opts...); err != nil {
				log.Debug().Err(err).Msg("failed to remove call state match")
			}
			conn.RemoveSignal(signals)
			if err := conn.Close(); err != nil {
				closeErr = fmt.Errorf("failed to close D-Bus connection: %w", err)
			}
		})
		return closeErr
	}
	return unlisten, nil
}
