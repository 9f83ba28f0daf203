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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

const (
	PrayerFajr    = "fajr"
	PrayerSunrise = "sunrise"
	PrayerDhuhr   = "dhuhr"
	PrayerAsr     = "asr"
	PrayerMaghrib = "maghrib"
	PrayerIsha    = "isha"
)

var ErrUnknownPrayer = errors.New("unknown prayer")

// minSuggestSimilarity keeps suggestions to plausible typos.
const minSuggestSimilarity = 0.8

// Prayers lists every prayer an athan can be played for, in daily order.
var Prayers = []string{
	PrayerFajr,
	PrayerSunrise,
	PrayerDhuhr,
	PrayerAsr,
	PrayerMaghrib,
	PrayerIsha,
}

// ParsePrayer normalizes a prayer name to its lower case identifier.
// Full-width input from CJK keyboards folds to ASCII first.
func ParsePrayer(name string) (string, error) {
	p := cases.Fold().String(width.Fold.String(strings.TrimSpace(name)))
	if !slices.Contains(Prayers, p) {
		if s := SuggestPrayer(p); s != "" {
			return "", fmt.Errorf("%w: %q, did you mean %q?", ErrUnknownPrayer, name, s)
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownPrayer, name)
	}
	return p, nil
}

// SuggestPrayer returns the prayer closest to a misspelled name, or "" when
// nothing is close.
func SuggestPrayer(name string) string {
	q := strings.ToLower(strings.TrimSpace(name))
	best, bestSim := "", float32(0)
	for _, p := range Prayers {
		sim := edlib.JaroWinklerSimilarity(q, p)
		if sim >= minSuggestSimilarity && sim > bestSim {
			best, bestSim = p, sim
		}
	}
	return best
}

// PrayerTitle returns the display name of a prayer identifier.
func PrayerTitle(prayer string) string {
	return cases.Title(language.English).String(prayer)
}
