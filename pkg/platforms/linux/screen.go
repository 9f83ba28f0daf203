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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

const (
	screenSaverService = "org.freedesktop.ScreenSaver"
	screenSaverPath    = "/org/freedesktop/ScreenSaver"
	login1Service      = "org.freedesktop.login1"
	login1SessionPath  = "/org/freedesktop/login1/session/auto"
	login1Session      = "org.freedesktop.login1.Session"
	busCallTimeout     = 3 * time.Second
)

func callBus(obj dbus.BusObject, method string, args ...any) *dbus.Call {
	ctx, cancel := context.WithTimeout(context.Background(), busCallTimeout)
	defer cancel()
	return obj.CallWithContext(ctx, method, 0, args...)
}

// WakeScreen deactivates the screen saver and holds an inhibitor until the
// returned release function is called.
func (*Platform) WakeScreen(opts platforms.WakeOptions) (func() error, error) {
	conn, err := connectBus(dbus.SessionBusPrivate)
	if err != nil {
		return nil, err
	}

	saver := conn.Object(screenSaverService, screenSaverPath)
	if call := callBus(saver, screenSaverService+".SetActive", false); call.Err != nil {
		log.Debug().Err(call.Err).Msg("failed to deactivate screen saver")
	}

	var cookie uint32
	if err := callBus(saver, screenSaverService+".Inhibit", config.AppName, opts.Reason).
		Store(&cookie); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to inhibit screen saver: %w", err)
	}

	if opts.DismissLockScreen {
		if err := unlockSession(); err != nil {
			log.Warn().Err(err).Msg("failed to dismiss lock screen")
		}
	}

	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		var errs []error
		if call := callBus(saver, screenSaverService+".UnInhibit", cookie); call.Err != nil {
			errs = append(errs, fmt.Errorf("failed to release screen saver inhibitor: %w", call.Err))
		}
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close D-Bus connection: %w", err))
		}
		return errors.Join(errs...)
	}
	return release, nil
}

func unlockSession() error {
	conn, err := connectBus(dbus.SystemBusPrivate)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	obj := conn.Object(login1Service, login1SessionPath)
	if call := callBus(obj, login1Session+".Unlock"); call.Err != nil {
		return fmt.Errorf("failed to unlock session: %w", call.Err)
	}
	return nil
}
