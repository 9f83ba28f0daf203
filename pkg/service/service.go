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

// Package service runs the Minaret daemon: the athan manager plus the API,
// MQTT, mDNS advertising and config watcher around it.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/minaret-project/minaret/pkg/api"
	"github.com/minaret-project/minaret/pkg/api/methods"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/notifications"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/database/history"
	"github.com/minaret-project/minaret/pkg/helpers"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/remote/mqtt"
	"github.com/minaret-project/minaret/pkg/service/athan"
	"github.com/minaret-project/minaret/pkg/service/broker"
	"github.com/minaret-project/minaret/pkg/service/discovery"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	notificationQueue = 64
	shutdownTimeout   = 5 * time.Second
)

// Options tweak Start for tests. The zero value is the production setup.
type Options struct {
	Clock clockwork.Clock
	// Listener replaces listening on the configured API address.
	Listener net.Listener
	// MQTTFactory replaces the paho client.
	MQTTFactory mqtt.ClientFactory
}

// forwardEvents turns session transitions into API notifications.
func forwardEvents(ns chan<- models.Notification) func(athan.Event) {
	return func(e athan.Event) {
		session := methods.SessionFromStatus(e.Status)
		switch e.Kind {
		case athan.EventStarted:
			notifications.AthanStarted(ns, session)
		case athan.EventStopped:
			notifications.AthanStopped(ns, session)
		}
	}
}

// Start brings the daemon up and returns once the API is listening. stop
// shuts everything down and waits for it; done closes when the service
// has stopped for any reason.
func Start(
	pl platforms.Platform,
	cfg *config.Instance,
	opts Options,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Str("version", config.AppVersion).Msg("starting minaret service")
	log.Info().Str("boot", uuid.New().String()).Msg("boot session")

	if err := helpers.EnsureDirectories(pl); err != nil {
		return nil, nil, err
	}

	db, err := history.Open(helpers.HistoryPath(pl))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}

	ln := opts.Listener
	if ln == nil {
		var lc net.ListenConfig
		ln, err = lc.Listen(context.Background(), "tcp", cfg.APIListen())
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to listen on %s: %w", cfg.APIListen(), err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	nb := broker.New(notificationQueue)
	manager := athan.NewManager(pl, cfg, db, opts.Clock)
	manager.Subscribe(forwardEvents(nb.Source()))

	apiEvents, _ := nb.Subscribe(notificationQueue)

	g.Go(func() error {
		nb.Run(ctx)
		return nil
	})

	server := api.NewServer(api.Options{
		Platform:      pl,
		Config:        cfg,
		Athan:         manager,
		History:       db,
		Clock:         opts.Clock,
		Notifications: nb.Source(),
		Events:        apiEvents,
	})
	g.Go(func() error {
		return server.Serve(ctx, ln)
	})

	if cfg.MQTT().Broker != "" {
		sub := mqtt.NewSubscriber(mqtt.Options{
			Platform:      pl,
			Config:        cfg,
			Athan:         manager,
			History:       db,
			Notifications: nb.Source(),
			Factory:       opts.MQTTFactory,
		})
		mqttEvents, _ := nb.Subscribe(notificationQueue)
		g.Go(func() error {
			if err := sub.Open(ctx); err != nil {
				log.Error().Err(err).Msg("mqtt disabled")
				return nil
			}
			sub.Forward(ctx, mqttEvents)
			sub.Close()
			return nil
		})
	}

	advertiser := discovery.New(discovery.Options{
		Config:     cfg,
		Clock:      opts.Clock,
		PlatformID: pl.ID(),
	})
	g.Go(func() error {
		return advertiser.Run(ctx)
	})

	if err := cfg.Watch(ctx, func() {
		helpers.SetLogLevel(cfg.DebugLogging())
	}); err != nil {
		log.Warn().Err(err).Msg("config changes will not be picked up")
	}

	doneCh := make(chan struct{})
	var runErr error
	go func() {
		<-ctx.Done()
		log.Info().Msg("service stopping")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("error stopping athan session")
		}

		runErr = g.Wait()
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing history")
		}
		log.Info().Msg("service stopped")
		close(doneCh)
	}()

	stop = func() error {
		cancel()
		<-doneCh
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		return nil
	}
	return stop, doneCh, nil
}
