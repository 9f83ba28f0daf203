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

// Package history stores a record of every athan session in a bbolt
// database.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	BucketSessions = "sessions"
	DefaultLimit   = 20
	MaxLimit       = 500
	openTimeout    = time.Second
)

var ErrInvalidEntry = errors.New("invalid history entry")

type Entry struct {
	StartedAt      time.Time `json:"started_at"`
	StoppedAt      time.Time `json:"stopped_at"`
	ID             string    `json:"id"`
	Prayer         string    `json:"prayer"`
	Reason         string    `json:"reason"`
	CustomSound    string    `json:"custom_sound,omitempty"`
	ClockSource    string    `json:"clock_source"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Muted          bool      `json:"muted"`
}

type Database struct {
	bdb *bolt.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketSessions))
		if err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", BucketSessions, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	return &Database{bdb: db}, nil
}

func (d *Database) Close() error {
	if err := d.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

// entryKey orders entries by start time, with the session ID breaking ties.
func entryKey(e Entry) []byte {
	k := make([]byte, 8, 8+len(e.ID))
	binary.BigEndian.PutUint64(k, uint64(e.StartedAt.UnixNano())) //nolint:gosec // pre-1970 times sort first
	return append(k, e.ID...)
}

func (d *Database) Record(e Entry) error {
	if e.ID == "" || e.StartedAt.IsZero() {
		return fmt.Errorf("%w: id and start time are required", ErrInvalidEntry)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	err = d.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSessions))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", BucketSessions)
		}
		return b.Put(entryKey(e), data)
	})
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit outside
// 1..MaxLimit falls back to DefaultLimit or MaxLimit.
func (d *Database) Recent(limit int) ([]Entry, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	entries := make([]Entry, 0, min(limit, DefaultLimit))
	err := d.bdb.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketSessions))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", BucketSessions)
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal history entry: %w", err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return entries, fmt.Errorf("failed to view bolt database: %w", err)
	}
	return entries, nil
}
