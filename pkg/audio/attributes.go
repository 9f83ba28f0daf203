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

// Usage says which output path a sound belongs to.
type Usage int

const (
	// UsageMedia plays at unity gain.
	UsageMedia Usage = iota
	// UsageAlarm routes the sound through the alarm channel.
	UsageAlarm
)

func (u Usage) String() string {
	switch u {
	case UsageAlarm:
		return "alarm"
	case UsageMedia:
		return "media"
	default:
		return "unknown"
	}
}

// ContentType describes what a sound contains. It is informational only.
type ContentType int

const (
	ContentTypeUnknown ContentType = iota
	ContentTypeSpeech
	ContentTypeMusic
	ContentTypeSonification
)

// Attributes are applied to a Sound before it starts.
type Attributes struct {
	Usage       Usage
	ContentType ContentType
}

// AlarmAttributes are used for every athan sound.
var AlarmAttributes = Attributes{
	Usage:       UsageAlarm,
	ContentType: ContentTypeMusic,
}
