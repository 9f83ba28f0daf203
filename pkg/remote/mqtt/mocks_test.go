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

package mqtt

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/minaret-project/minaret/pkg/service/athan"
)

type published struct {
	topic   string
	payload []byte
}

// fakeClient is an in-memory mqtt.Client. Connect runs the OnConnect
// handler the same way paho does.
type fakeClient struct {
	connectErr   error
	subscribeErr error
	opts         *mqtt.ClientOptions
	handler      mqtt.MessageHandler
	subscribed   string
	published    []published
	disconnects  int
	connected    bool
	hang         bool
	mu           syncutil.Mutex
}

func (c *fakeClient) factory(opts *mqtt.ClientOptions) mqtt.Client {
	c.opts = opts
	return c
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() mqtt.Token {
	if c.hang {
		return &fakeToken{}
	}
	if c.connectErr != nil {
		return &fakeToken{done: true, err: c.connectErr}
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	if c.opts != nil && c.opts.OnConnect != nil {
		c.opts.OnConnect(c)
	}
	return &fakeToken{done: true}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnects++
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, _ := payload.([]byte)
	c.published = append(c.published, published{topic: topic, payload: data})
	return &fakeToken{done: true}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	if c.subscribeErr != nil {
		return &fakeToken{done: true, err: c.subscribeErr}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = topic
	c.handler = cb
	return &fakeToken{done: true}
}

func (*fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{done: true}
}

func (*fakeClient) Unsubscribe(...string) mqtt.Token { return &fakeToken{done: true} }

func (*fakeClient) AddRoute(string, mqtt.MessageHandler) {}

func (*fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

// deliver hands payload to the subscribed handler.
func (c *fakeClient) deliver(payload string) {
	c.mu.Lock()
	h, topic := c.handler, c.subscribed
	c.mu.Unlock()
	h(c, &fakeMessage{topic: topic, payload: []byte(payload)})
}

func (c *fakeClient) Published() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.published...)
}

func (c *fakeClient) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

type fakeToken struct {
	err  error
	done bool
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.done {
		close(ch)
	}
	return ch
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (*fakeMessage) Duplicate() bool   { return false }
func (*fakeMessage) Qos() byte         { return qos }
func (*fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string   { return m.topic }
func (*fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte { return m.payload }
func (*fakeMessage) Ack()              {}

type fakeAthan struct {
	active *athan.Status
	mu     syncutil.Mutex
}

func (f *fakeAthan) Play(_ context.Context, prayer string, _ platforms.Window) (athan.Status, error) {
	p, err := athan.ParsePrayer(prayer)
	if err != nil {
		return athan.Status{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active != nil {
		return athan.Status{}, athan.ErrSessionActive
	}
	f.active = &athan.Status{ID: "s1", Prayer: p}
	return *f.active, nil
}

func (f *fakeAthan) StopActive(_ context.Context, reason athan.StopReason) (athan.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return athan.Status{}, athan.ErrNoActiveSession
	}
	st := *f.active
	st.Stopped, st.Reason = true, reason
	f.active = nil
	return st, nil
}

func (f *fakeAthan) Active() (athan.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return athan.Status{}, false
	}
	return *f.active, true
}
