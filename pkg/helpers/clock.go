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

package helpers

import "time"

// MinReliableYear is the earliest year considered valid for the system
// clock. Boards without an RTC boot at the epoch until NTP syncs.
const MinReliableYear = 2026

const (
	ClockSourceSystem = "system"
	ClockSourceEpoch  = "epoch"
)

// IsClockReliable reports whether t looks like it came from a set clock.
func IsClockReliable(t time.Time) bool {
	return t.Year() >= MinReliableYear
}

// ClockSource labels a timestamp for storage.
func ClockSource(t time.Time) string {
	if IsClockReliable(t) {
		return ClockSourceSystem
	}
	return ClockSourceEpoch
}
