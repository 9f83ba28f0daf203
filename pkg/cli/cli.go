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

// Package cli holds the command line flags shared by every Minaret binary
// and the actions behind them.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/minaret-project/minaret/internal/telemetry"
	"github.com/minaret-project/minaret/pkg/api/client"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/helpers"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	set        *flag.FlagSet
	Play       *string
	Ringer     *string
	History    *int
	CSV        *bool
	Volume     *int
	StopAthan  *bool
	Status     *bool
	Watch      *bool
	Device     *bool
	Daemon     *bool
	Foreground *bool
	Stop       *bool
	Version    *bool
}

// SetupFlags defines all common CLI flags on the process flag set.
func SetupFlags() *Flags {
	return newFlags(flag.CommandLine)
}

func newFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		Play: fs.String(
			"play",
			"",
			"play the athan for a prayer (fajr, dhuhr, asr, maghrib, isha)",
		),
		Ringer: fs.String(
			"ringer",
			"",
			"set the device ringer mode (normal, vibrate, silent)",
		),
		History: fs.Int(
			"history",
			0,
			"print the last N athan sessions",
		),
		CSV: fs.Bool(
			"csv",
			false,
			"print -history as CSV",
		),
		Volume: fs.Int(
			"volume",
			0,
			"set the alarm channel volume",
		),
		StopAthan: fs.Bool(
			"stop-athan",
			false,
			"stop the athan that is playing",
		),
		Status: fs.Bool(
			"status",
			false,
			"print the current athan session",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"print athan and device notifications as they happen",
		),
		Device: fs.Bool(
			"device",
			false,
			"print the alarm volume and ringer mode",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"start the service in the background",
		),
		Foreground: fs.Bool(
			"foreground",
			false,
			"run the service in the foreground",
		),
		Stop: fs.Bool(
			"stop",
			false,
			"stop the background service",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup. Add any custom flags before running this.
func (f *Flags) Pre(pl platforms.Platform, args []string) error {
	if err := f.set.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Printf("Minaret v%s (%s)\n", config.AppVersion, pl.ID())
		os.Exit(0)
	}
	return nil
}

func printResult(out io.Writer, result []byte) {
	_, _ = fmt.Fprintln(out, string(result))
}

// Post actions the flags that talk to a running service. It reports whether
// one of them was handled.
func (f *Flags) Post(ctx context.Context, api client.APIClient, out io.Writer) (bool, error) {
	var (
		method string
		params any
	)

	switch {
	case *f.Status:
		method = models.MethodAthanStatus
	case *f.StopAthan:
		method = models.MethodAthanStop
	case *f.Device:
		method = models.MethodDevice
	case f.isFlagPassed("history"):
		method = models.MethodAthanHistory
		params = models.HistoryParams{Limit: *f.History}
	case f.isFlagPassed("volume"):
		method = models.MethodDeviceVolume
		params = models.VolumeParams{Volume: f.Volume}
	case f.isFlagPassed("ringer"):
		if *f.Ringer == "" {
			return true, fmt.Errorf("ringer: %w", ErrMissingValue)
		}
		method = models.MethodDeviceRinger
		params = models.RingerParams{Mode: *f.Ringer}
	case *f.Watch:
		err := api.Watch(ctx, func(n models.Notification) {
			_, _ = fmt.Fprintf(out, "%s %s\n", n.Method, string(n.Params))
		})
		if errors.Is(err, client.ErrRequestCancelled) {
			return true, nil
		}
		return true, err
	default:
		return false, nil
	}

	resp, err := api.Call(ctx, method, params)
	if err != nil {
		log.Error().Err(err).Str("method", method).Msg("error calling API")
		return true, fmt.Errorf("error calling %s: %w", method, err)
	}
	if method == models.MethodAthanHistory && *f.CSV {
		return true, writeHistoryCSV(out, resp)
	}
	printResult(out, resp)
	return true, nil
}

func writeHistoryCSV(out io.Writer, resp []byte) error {
	var history models.HistoryResponse
	if err := json.Unmarshal(resp, &history); err != nil {
		return fmt.Errorf("error decoding history: %w", err)
	}
	if err := gocsv.Marshal(history.Entries, out); err != nil {
		return fmt.Errorf("error writing history csv: %w", err)
	}
	return nil
}

// Setup initializes the user config, logging and error reporting. Returns a
// user config object.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	pl platforms.Platform,
	defaultConfig config.Values,
	writers []io.Writer,
) (*config.Instance, error) {
	// Ensure directories exist before logging initialization
	if err := helpers.EnsureDirectories(pl); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(pl, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(pl), defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	helpers.SetLogLevel(cfg.DebugLogging())

	// Initialize error reporting (opt-in)
	err = telemetry.Init(telemetry.Options{
		LogWriter: helpers.LogWriter(),
		DSN:       cfg.SentryDSN(),
		DeviceID:  cfg.DeviceID(),
		Version:   config.AppVersion,
		Platform:  pl.ID(),
		Enabled:   cfg.ErrorReporting(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
