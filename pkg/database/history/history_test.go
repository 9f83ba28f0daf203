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

package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	base := time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)

	for i, prayer := range []string{"fajr", "dhuhr", "asr"} {
		require.NoError(t, db.Record(Entry{
			ID:        fmt.Sprintf("id-%d", i),
			Prayer:    prayer,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			StoppedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Reason:    "tap",
		}))
	}

	entries, err := db.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "asr", entries[0].Prayer)
	assert.Equal(t, "dhuhr", entries[1].Prayer)
	assert.True(t, entries[0].StartedAt.Equal(base.Add(2*time.Hour)))

	entries, err = db.Recent(0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecord_SameStartTime(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.Record(Entry{ID: "a", Prayer: "dhuhr", StartedAt: start}))
	require.NoError(t, db.Record(Entry{ID: "b", Prayer: "dhuhr", StartedAt: start}))

	entries, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "a", entries[1].ID)
}

func TestRecord_Invalid(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	require.ErrorIs(t, db.Record(Entry{Prayer: "asr", StartedAt: time.Now()}), ErrInvalidEntry)
	require.ErrorIs(t, db.Record(Entry{ID: "x", Prayer: "asr"}), ErrInvalidEntry)
}

func TestReopenKeepsEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Record(Entry{ID: "x", Prayer: "isha", StartedAt: time.Now(), Muted: true}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, db.Close()) }()

	entries, err := db.Recent(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Muted)
}
