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

package audio

import (
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
)

// MaxVolume is the top step of the alarm channel scale.
const MaxVolume = 10

// AlarmChannel is the software volume stage shared by all alarm sounds. Its
// level is a step between 0 and MaxVolume and changes apply to sounds that
// are already playing.
type AlarmChannel struct {
	level int
	mu    syncutil.RWMutex
}

func NewAlarmChannel(initial int) *AlarmChannel {
	return &AlarmChannel{level: clampVolume(initial)}
}

func clampVolume(v int) int {
	return max(0, min(v, MaxVolume))
}

func (c *AlarmChannel) Volume() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// SetVolume clamps v to the channel scale and returns the applied step.
func (c *AlarmChannel) SetVolume(v int) int {
	v = clampVolume(v)
	c.mu.Lock()
	c.level = v
	c.mu.Unlock()
	return v
}

// Wrap returns a streamer whose gain follows the channel level.
func (c *AlarmChannel) Wrap(s beep.Streamer) beep.Streamer {
	return &gainStreamer{
		channel: c,
		volume:  &effects.Volume{Streamer: s, Base: 2},
	}
}

type gainStreamer struct {
	channel *AlarmChannel
	volume  *effects.Volume
}

func (g *gainStreamer) Stream(samples [][2]float64) (int, bool) {
	level := g.channel.Volume()
	if level <= 0 {
		g.volume.Silent = true
	} else {
		g.volume.Silent = false
		g.volume.Volume = math.Log2(float64(level) / MaxVolume)
	}
	return g.volume.Stream(samples)
}

func (g *gainStreamer) Err() error {
	//nolint:wrapcheck // pass-through of the wrapped streamer error
	return g.volume.Err()
}
