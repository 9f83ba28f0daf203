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

// Package platforms defines the device capabilities an athan session needs.
package platforms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minaret-project/minaret/pkg/audio"
)

const PlatformIDLinux = "linux"

var ErrUnknownRingerMode = errors.New("unknown ringer mode")

// Settings defines the simple per-platform values such as paths.
type Settings struct {
	// DataDir is where the history database and user sounds are stored.
	DataDir string
	// ConfigDir is where the config file is stored.
	ConfigDir string
	// TempDir holds logs and other files that may be deleted at any time.
	TempDir string
}

// RingerMode is the device ringer setting.
type RingerMode int

const (
	RingerNormal RingerMode = iota
	RingerVibrate
	RingerSilent
)

func (m RingerMode) String() string {
	switch m {
	case RingerNormal:
		return "normal"
	case RingerVibrate:
		return "vibrate"
	case RingerSilent:
		return "silent"
	default:
		return fmt.Sprintf("RingerMode(%d)", int(m))
	}
}

// ParseRingerMode parses a ringer mode name, ignoring case.
func ParseRingerMode(s string) (RingerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return RingerNormal, nil
	case "vibrate":
		return RingerVibrate, nil
	case "silent":
		return RingerSilent, nil
	default:
		return RingerNormal, fmt.Errorf("%w: %q", ErrUnknownRingerMode, s)
	}
}

// CallState is the telephony state reported by the call observer.
type CallState int

const (
	CallStateIdle CallState = iota
	CallStateRinging
	CallStateOffhook
)

func (s CallState) String() string {
	switch s {
	case CallStateIdle:
		return "idle"
	case CallStateRinging:
		return "ringing"
	case CallStateOffhook:
		return "offhook"
	default:
		return fmt.Sprintf("CallState(%d)", int(s))
	}
}

// WakeOptions configure how the screen is woken for an alarm.
type WakeOptions struct {
	// Reason is shown by desktop environments that list inhibitors.
	Reason string
	// DismissLockScreen asks the session manager to unlock the session.
	DismissLockScreen bool
}

// Platform is the interface Minaret uses to talk to the device it runs on.
type Platform interface {
	// ID returns the unique ID of this platform.
	ID() string
	// Settings returns platform paths.
	Settings() Settings
	// AlarmVolume returns the current alarm channel step.
	AlarmVolume() (int, error)
	// SetAlarmVolume sets the alarm channel step.
	SetAlarmVolume(volume int) error
	// RingerMode returns the current ringer mode.
	RingerMode() (RingerMode, error)
	// SetRingerMode changes the ringer mode.
	SetRingerMode(mode RingerMode) error
	// ListenCallState registers fn to be called on every call state change.
	// The returned function unregisters it.
	ListenCallState(fn func(CallState)) (func() error, error)
	// WakeScreen turns the screen on and keeps it on until the returned
	// function is called.
	WakeScreen(opts WakeOptions) (func() error, error)
	// Audio returns the sound player for this platform.
	Audio() audio.Player
}

// WindowController receives user actions from an alarm window.
type WindowController interface {
	OnBackPressed()
	OnWindowFocusChanged(hasFocus bool)
	OnTap()
}

// Window presents the alarm screen. Show must not block; the window calls
// the controller from its own goroutine.
type Window interface {
	Show(title string, c WindowController) error
	SetStatus(text string)
	Finish()
}
