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

package athan

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

type pendingCallback struct {
	timer clockwork.Timer
	gen   uint64
}

// eventLoop runs callbacks one at a time on a single goroutine, in the order
// they were posted. Delayed callbacks are keyed; removing a key before its
// callback runs guarantees it never runs, even if its timer already fired.
type eventLoop struct {
	clock   clockwork.Clock
	pending map[string]*pendingCallback
	wake    chan struct{}
	quitCh  chan struct{}
	done    chan struct{}
	queue   []func()
	gen     uint64
	mu      syncutil.Mutex
	closed  bool
}

func newEventLoop(clock clockwork.Clock) *eventLoop {
	l := &eventLoop{
		clock:   clock,
		pending: make(map[string]*pendingCallback),
		wake:    make(chan struct{}, 1),
		quitCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *eventLoop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		queue := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, fn := range queue {
			select {
			case <-l.quitCh:
				return
			default:
			}
			l.runCallback(fn)
		}
		if len(queue) > 0 {
			continue
		}

		select {
		case <-l.wake:
		case <-l.quitCh:
			return
		}
	}
}

func (*eventLoop) runCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("athan: recovered panic in event loop callback")
		}
	}()
	fn()
}

// post queues fn to run on the loop. It returns false once the loop has
// quit.
func (l *eventLoop) post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// postDelayed runs fn on the loop after d, replacing any callback still
// pending under key. A non-positive d queues fn immediately.
func (l *eventLoop) postDelayed(key string, d time.Duration, fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	if p, ok := l.pending[key]; ok && p.timer != nil {
		p.timer.Stop()
	}
	l.gen++
	gen := l.gen
	p := &pendingCallback{gen: gen}
	l.pending[key] = p

	guarded := func() {
		l.mu.Lock()
		cur, ok := l.pending[key]
		if !ok || cur.gen != gen {
			l.mu.Unlock()
			return
		}
		delete(l.pending, key)
		l.mu.Unlock()
		fn()
	}

	if d <= 0 {
		l.mu.Unlock()
		l.post(guarded)
		return
	}
	p.timer = l.clock.AfterFunc(d, func() {
		l.post(guarded)
	})
	l.mu.Unlock()
}

// removeCallbacks cancels the callback pending under key, if any.
func (l *eventLoop) removeCallbacks(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.pending[key]; ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(l.pending, key)
	}
}

// hasCallbacks reports whether a callback is pending under key.
func (l *eventLoop) hasCallbacks(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.pending[key]
	return ok
}

// invoke runs fn on the loop and waits for it to return. It must not be
// called from the loop goroutine.
func (l *eventLoop) invoke(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.post(func() {
		defer close(finished)
		fn()
	}) {
		return errLoopClosed
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return errLoopClosed
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // caller context error
	}
}

// quit stops the loop, drops queued callbacks and cancels every pending
// timer. It waits for the callback in flight to return and must not be
// called from the loop goroutine.
func (l *eventLoop) quit() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	for key, p := range l.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(l.pending, key)
	}
	l.queue = nil
	l.mu.Unlock()

	close(l.quitCh)
	<-l.done
}
