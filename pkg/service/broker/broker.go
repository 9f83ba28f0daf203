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

// Package broker fans notifications out to every consumer that needs them:
// websocket clients and the MQTT status topic.
package broker

import (
	"context"

	"github.com/minaret-project/minaret/pkg/api/models"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Broker copies each notification from its source to every subscriber. A
// subscriber whose buffer is full misses that notification.
type Broker struct {
	source chan models.Notification
	subs   map[uint64]chan models.Notification
	closed bool
	next   uint64
	mu     syncutil.RWMutex
}

func New(queueSize int) *Broker {
	return &Broker{
		source: make(chan models.Notification, queueSize),
		subs:   make(map[uint64]chan models.Notification),
	}
}

// Source is where producers send notifications.
func (b *Broker) Source() chan<- models.Notification {
	return b.source
}

// Subscribe returns a channel of notifications and a function that ends the
// subscription. The channel is closed when the subscription ends or the
// broker stops.
func (b *Broker) Subscribe(bufferSize int) (<-chan models.Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Notification, bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch
	return ch, func() { b.unsubscribe(id) }
}

func (b *Broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Run broadcasts until ctx is done, then closes every subscriber.
func (b *Broker) Run(ctx context.Context) {
	defer b.stop()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-b.source:
			b.broadcast(n)
		}
	}
}

func (b *Broker) broadcast(n models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			log.Warn().
				Uint64("subscriber", id).
				Str("method", n.Method).
				Msg("subscriber queue full, dropping notification")
		}
	}
}

func (b *Broker) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	b.closed = true
}
