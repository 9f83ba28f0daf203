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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minaret-project/minaret/pkg/api/client"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/helpers"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/service"
	"github.com/minaret-project/minaret/pkg/service/athan"
	"github.com/minaret-project/minaret/pkg/service/daemon"
	"github.com/minaret-project/minaret/pkg/ui/tui"
	"github.com/rs/zerolog/log"
)

// Service is the part of the daemon RunApp drives.
type Service interface {
	Running() bool
	Run(ctx context.Context) error
	Start() error
	Stop() error
}

// LocalPlayer plays an athan in this process when no service is running.
type LocalPlayer func(ctx context.Context, prayer string) error

// App bundles what RunApp needs, so tests can swap the service and the
// local player.
type App struct {
	Platform platforms.Platform
	Config   *config.Instance
	Service  Service
	API      client.APIClient
	Play     LocalPlayer
	Out      io.Writer
}

// NewApp wires the real daemon, API client and terminal player.
func NewApp(pl platforms.Platform, cfg *config.Instance, out io.Writer) *App {
	d := daemon.New(pl, func() (func() error, <-chan struct{}, error) {
		return service.Start(pl, cfg, service.Options{})
	})
	return &App{
		Platform: pl,
		Config:   cfg,
		Service:  d,
		API:      client.NewLocal(cfg),
		Play:     terminalPlayer(pl, cfg),
		Out:      out,
	}
}

// terminalPlayer runs a one-off manager with the athan screen on the
// configured terminal. The session is still written to history.
func terminalPlayer(pl platforms.Platform, cfg *config.Instance) LocalPlayer {
	return func(ctx context.Context, prayer string) error {
		var recorder athan.Recorder
		db, err := history.Open(helpers.HistoryPath(pl))
		if err != nil {
			log.Warn().Err(err).Msg("history unavailable, session will not be recorded")
		} else {
			recorder = db
			defer func() {
				if err := db.Close(); err != nil {
					log.Warn().Err(err).Msg("error closing history")
				}
			}()
		}

		if !tui.SetCurrentTheme(cfg.UITheme()) {
			log.Warn().Str("theme", cfg.UITheme()).Msg("unknown theme, using default")
		}

		manager := athan.NewManager(pl, cfg, recorder, nil)
		if _, err := manager.Play(ctx, prayer, tui.NewAthanWindow(cfg.UITTY())); err != nil {
			return fmt.Errorf("error playing athan: %w", err)
		}

		if err := manager.Wait(ctx); err != nil {
			if shutdownErr := manager.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn().Err(shutdownErr).Msg("error stopping athan")
			}
			return err
		}
		return nil
	}
}

// RunApp actions the service and playback flags. Calls to a running service
// go through Flags.Post first.
func (a *App) RunApp(ctx context.Context, f *Flags) error {
	switch {
	case *f.Foreground:
		if a.Service.Running() {
			log.Info().Msg("service already running, exiting")
			return nil
		}
		log.Info().Msg("starting service in foreground")
		return a.Service.Run(ctx)
	case *f.Daemon:
		if err := a.Service.Start(); err != nil {
			return fmt.Errorf("error starting service: %w", err)
		}
		_, _ = fmt.Fprintln(a.Out, "service started")
		return nil
	case *f.Stop:
		if err := a.Service.Stop(); err != nil {
			if errors.Is(err, daemon.ErrNotRunning) {
				_, _ = fmt.Fprintln(a.Out, "service not running")
				return nil
			}
			return fmt.Errorf("error stopping service: %w", err)
		}
		_, _ = fmt.Fprintln(a.Out, "service stopped")
		return nil
	case f.isFlagPassed("play"):
		if *f.Play == "" {
			return fmt.Errorf("play: %w", ErrMissingValue)
		}
		if a.Service.Running() {
			resp, err := a.API.Call(ctx, models.MethodAthanPlay, models.PlayParams{Prayer: *f.Play})
			if err != nil {
				return fmt.Errorf("error playing athan: %w", err)
			}
			printResult(a.Out, resp)
			return nil
		}
		return a.Play(ctx, *f.Play)
	}

	if !a.Service.Running() {
		_, _ = fmt.Fprintln(a.Out, "service not running, start it with -daemon")
		return nil
	}
	handled, err := f.Post(ctx, a.API, a.Out)
	if err != nil {
		return err
	}
	if !handled {
		f.set.SetOutput(a.Out)
		f.set.Usage()
	}
	return nil
}

var _ Service = (*daemon.Daemon)(nil)

