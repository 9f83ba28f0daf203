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

// Package mqtt lets a broker drive the athan. Commands arrive as JSON on the
// configured topic and run through the same handlers as the HTTP API.
// Command results and notifications go to the status topic.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/minaret-project/minaret/pkg/api/methods"
	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/api/models/requests"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

const (
	Source = "mqtt"

	connectTimeout    = 5 * time.Second
	disconnectQuiesce = 250
	qos               = 1
)

var (
	ErrNoBroker       = errors.New("no mqtt broker configured")
	ErrConnectTimeout = errors.New("mqtt connect timed out")
)

// ClientFactory creates the paho client. Tests swap it for a fake.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

var DefaultClientFactory ClientFactory = mqtt.NewClient

// Command is the payload accepted on the command topic. A payload that is
// not a JSON object is read as a bare method name, e.g. "athan.stop".
type Command struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Result is published to the status topic after each command. Notifications
// share the topic and are told apart by having no "result" or "error".
type Result struct {
	Result any    `json:"result,omitempty"`
	Method string `json:"method"`
	Error  string `json:"error,omitempty"`
}

type Options struct {
	Platform      platforms.Platform
	Config        *config.Instance
	Athan         requests.Athan
	History       requests.History
	Notifications chan<- models.Notification
	Factory       ClientFactory
}

type Subscriber struct {
	ctx    context.Context
	opts   Options
	client mqtt.Client
	mqtt   config.MQTT
}

func NewSubscriber(opts Options) *Subscriber {
	if opts.Factory == nil {
		opts.Factory = DefaultClientFactory
	}
	return &Subscriber{
		opts: opts,
		ctx:  context.Background(),
	}
}

// Open connects to the broker and subscribes to the command topic. Commands
// run with contexts derived from ctx.
func (s *Subscriber) Open(ctx context.Context) error {
	s.mqtt = s.opts.Config.MQTT()
	if s.mqtt.Broker == "" {
		return ErrNoBroker
	}
	s.ctx = ctx

	opts := NewClientOptions(s.mqtt)
	topic := s.mqtt.Topic
	opts.OnConnect = func(c mqtt.Client) {
		token := c.Subscribe(topic, qos, s.handleMessage)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", topic).Msg("mqtt: failed to subscribe")
			return
		}
		log.Info().Str("topic", topic).Msg("mqtt: subscribed")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt: connection lost")
	}

	s.client = s.opts.Factory(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		s.client.Disconnect(0)
		s.client = nil
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		s.client.Disconnect(0)
		s.client = nil
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	log.Info().Str("broker", describeBroker(s.mqtt)).Msg("mqtt: connected")
	return nil
}

func (s *Subscriber) Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
	}
}

// Run opens the subscriber and keeps it open until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Close()
	return nil
}

func parseCommand(payload []byte) (Command, error) {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return Command{}, errors.New("empty command")
	}
	if !strings.HasPrefix(text, "{") {
		return Command{Method: text}, nil
	}

	var cmd Command
	if err := json.Unmarshal([]byte(text), &cmd); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	if cmd.Method == "" {
		return Command{}, errors.New("command has no method")
	}
	return cmd, nil
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := parseCommand(msg.Payload())
	if err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("mqtt: ignoring message")
		return
	}
	log.Debug().Str("method", cmd.Method).Msg("mqtt: received command")
	s.publish(s.dispatch(cmd))
}

func (s *Subscriber) dispatch(cmd Command) Result {
	res := Result{Method: cmd.Method}

	fn, err := methods.Lookup(cmd.Method)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	ctx, cancel := context.WithTimeout(s.ctx, config.APIRequestTimeout)
	defer cancel()
	result, err := fn(requests.RequestEnv{
		Context:       ctx,
		Platform:      s.opts.Platform,
		Config:        s.opts.Config,
		Athan:         s.opts.Athan,
		History:       s.opts.History,
		Notifications: s.opts.Notifications,
		Params:        cmd.Params,
		Source:        Source,
	})
	if err != nil {
		log.Warn().Err(err).Str("method", cmd.Method).Msg("mqtt: command failed")
		res.Error = err.Error()
		return res
	}
	res.Result = result
	return res
}

func (s *Subscriber) publish(v any) {
	if s.client == nil || !s.client.IsConnected() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("mqtt: failed to marshal status")
		return
	}
	token := s.client.Publish(s.mqtt.StatusTopic, qos, false, data)
	if !token.WaitTimeout(connectTimeout) {
		log.Warn().Str("topic", s.mqtt.StatusTopic).Msg("mqtt: publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Warn().Err(err).Str("topic", s.mqtt.StatusTopic).Msg("mqtt: publish failed")
	}
}

// Forward publishes every notification from ns to the status topic until
// ctx is done or ns closes.
func (s *Subscriber) Forward(ctx context.Context, ns <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ns:
			if !ok {
				return
			}
			s.publish(n)
		}
	}
}
