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

// Package audio plays alarm sounds through beep decoders and a malgo output
// device.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// OutputSampleRate is the rate every stream is resampled to before output.
const OutputSampleRate = beep.SampleRate(48000)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrReleased          = errors.New("sound has been released")
)

// Sound is a playable handle.
type Sound interface {
	SetAttributes(attrs Attributes)
	Play() error
	Stop()
	IsPlaying() bool
}

// Media is a Sound that holds decoded resources until released.
type Media interface {
	Sound
	Release() error
}

// Player opens sounds for playback.
type Player interface {
	// OpenRingtone opens a sound file by path.
	OpenRingtone(path string) (Sound, error)
	// OpenMedia opens an in-memory sound, detecting the format from its
	// contents.
	OpenMedia(data []byte) (Media, error)
	// ProbeDuration returns the length of the sound file at path.
	ProbeDuration(path string) (time.Duration, error)
}

// Output consumes a streamer until it is drained or ctx is cancelled.
type Output func(ctx context.Context, s beep.Streamer) error

// BeepPlayer implements Player with beep decoders. Files are read through
// an afero filesystem.
type BeepPlayer struct {
	fs      afero.Fs
	channel *AlarmChannel
	output  Output
}

// NewBeepPlayer creates a player that routes alarm sounds through channel
// and plays them on the default malgo device.
func NewBeepPlayer(fs afero.Fs, channel *AlarmChannel) *BeepPlayer {
	return &BeepPlayer{
		fs:      fs,
		channel: channel,
		output:  PlayMalgo,
	}
}

// readSeekNopCloser keeps the reader seekable for decoders that take an
// io.ReadCloser.
type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

func formatFromExt(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".mp3", ".ogg", ".flac":
		return ext, nil
	default:
		return "", fmt.Errorf(
			"%w: %s (supported: .wav, .mp3, .ogg, .flac)",
			ErrUnsupportedFormat, ext,
		)
	}
}

func formatFromData(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return ".wav"
	case bytes.HasPrefix(data, []byte("OggS")):
		return ".ogg"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return ".flac"
	default:
		return ".mp3"
	}
}

func decode(data []byte, ext string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	r := readSeekNopCloser{bytes.NewReader(data)}
	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(r)
	case ".mp3":
		streamer, format, err = mp3.Decode(r)
	case ".ogg":
		streamer, format, err = vorbis.Decode(r)
	case ".flac":
		streamer, format, err = flac.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode audio: %w", err)
	}
	return streamer, format, nil
}

func (p *BeepPlayer) readFile(path string) (data []byte, ext string, err error) {
	ext, err = formatFromExt(path)
	if err != nil {
		return nil, "", err
	}
	data, err = afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio file: %w", err)
	}
	return data, ext, nil
}

func (p *BeepPlayer) open(name string, data []byte, ext string) (*track, error) {
	// decode once up front so broken files fail at open time
	streamer, _, err := decode(data, ext)
	if err != nil {
		return nil, err
	}
	if err := streamer.Close(); err != nil {
		log.Debug().Err(err).Msg("failed to close probe streamer")
	}
	return &track{
		player: p,
		name:   name,
		data:   data,
		ext:    ext,
	}, nil
}

func (p *BeepPlayer) OpenRingtone(path string) (Sound, error) {
	data, ext, err := p.readFile(path)
	if err != nil {
		return nil, err
	}
	t, err := p.open(path, data, ext)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *BeepPlayer) OpenMedia(data []byte) (Media, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty media", ErrUnsupportedFormat)
	}
	t, err := p.open("media", data, formatFromData(data))
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *BeepPlayer) ProbeDuration(path string) (time.Duration, error) {
	data, ext, err := p.readFile(path)
	if err != nil {
		return 0, err
	}
	streamer, format, err := decode(data, ext)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := streamer.Close(); err != nil {
			log.Debug().Err(err).Msg("failed to close probe streamer")
		}
	}()
	return format.SampleRate.D(streamer.Len()), nil
}

// track is a decoded sound. Each Play decodes a fresh stream from the
// source bytes.
type track struct {
	player   *BeepPlayer
	cancel   context.CancelFunc
	done     chan struct{}
	name     string
	ext      string
	data     []byte
	attrs    Attributes
	mu       syncutil.Mutex
	playing  bool
	released bool
}

func (t *track) SetAttributes(attrs Attributes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attrs = attrs
}

func (t *track) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return ErrReleased
	}
	if t.playing {
		return nil
	}

	streamer, format, err := decode(t.data, t.ext)
	if err != nil {
		return err
	}

	var s beep.Streamer = beep.Resample(4, format.SampleRate, OutputSampleRate, streamer)
	if t.attrs.Usage == UsageAlarm && t.player.channel != nil {
		s = t.player.channel.Wrap(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.playing = true

	go func() {
		defer close(done)
		defer func() {
			if err := streamer.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close audio streamer")
			}
			t.mu.Lock()
			if t.done == done {
				t.playing = false
				t.cancel = nil
			}
			t.mu.Unlock()
			cancel()
		}()

		if err := t.player.output(ctx, s); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Str("sound", t.name).Msg("failed to play audio")
			}
			return
		}

		log.Debug().Str("sound", t.name).Msg("completed audio playback")
	}()

	return nil
}

// Stop cancels playback and waits for the output to finish.
func (t *track) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.playing = false
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *track) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *track) Release() error {
	t.Stop()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrReleased
	}
	t.released = true
	t.data = nil
	return nil
}
