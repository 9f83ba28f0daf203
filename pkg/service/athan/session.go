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

// Package athan plays the call to prayer as an alarm and decides when it
// stops.
package athan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/minaret-project/minaret/pkg/audio"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/helpers"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/rs/zerolog/log"
)

const (
	watchdogKey  = "watchdog"
	ascensionKey = "ascension"

	watchdogInitialDelay = 10 * time.Second
	watchdogInterval     = 5 * time.Second
	watchdogTickSeconds  = 5
	maxElapsedSeconds    = 360

	// custom sounds shorter than this are probably looping and are cut
	// off after shortSoundElapsedLimit seconds
	shortSoundDuration     = 30 * time.Second
	shortSoundElapsedLimit = 30

	ascensionInterval = 6 * time.Second
	maxVolumeSteps    = 10

	volumeNotCaptured = -1
)

// StopReason records which trigger ended a session.
type StopReason string

const (
	StopReasonNoSound          StopReason = "no_sound"
	StopReasonPlaybackFinished StopReason = "playback_finished"
	StopReasonTimeout          StopReason = "timeout"
	StopReasonShortSound       StopReason = "short_sound_timeout"
	StopReasonWatchdogFailure  StopReason = "watchdog_failure"
	StopReasonPhoneCall        StopReason = "phone_call"
	StopReasonBack             StopReason = "back"
	StopReasonFocusLost        StopReason = "focus_lost"
	StopReasonTap              StopReason = "tap"
	StopReasonRemote           StopReason = "remote"
	StopReasonDestroyed        StopReason = "destroyed"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	errLoopClosed     = errors.New("session event loop closed")
)

type SessionOptions struct {
	// Clock drives the watchdog and ascension timers. Defaults to the real
	// clock.
	Clock    clockwork.Clock
	Platform platforms.Platform
	Config   *config.Instance
	// Window presents the alarm. Defaults to a HeadlessWindow.
	Window platforms.Window
	// DefaultSound is played when no custom sound is configured.
	DefaultSound []byte
	Prayer       string
}

// Status is a point-in-time snapshot of a session.
type Status struct {
	StartedAt      time.Time
	StoppedAt      time.Time
	ID             string
	Prayer         string
	Reason         StopReason
	CustomSound    string
	ElapsedSeconds int
	VolumeStep     int
	OriginalVolume int
	Muted          bool
	Stopped        bool
	ShortSound     bool
}

// Session is one activation of the athan screen. All state changes happen
// on the session's event loop; triggers may be called from any goroutine.
type Session struct {
	startedAt        time.Time
	stoppedAt        time.Time
	clock            clockwork.Clock
	pl               platforms.Platform
	cfg              *config.Instance
	window           platforms.Window
	loop             *eventLoop
	ringtone         audio.Sound
	media            audio.Media
	unlistenCall     func() error
	releaseScreen    func() error
	done             chan struct{}
	id               string
	prayer           string
	customSound      string
	reason           StopReason
	defaultSound     []byte
	volumeSteps      int
	elapsedSeconds   int
	originalVolume   int
	destroyOnce      sync.Once
	mu               syncutil.RWMutex
	started          bool
	stopped          bool
	muted            bool
	ascending        bool
	mediaReleased    bool
	stopAtHalfMinute bool
}

func NewSession(opts SessionOptions) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	window := opts.Window
	if window == nil {
		window = NewHeadlessWindow()
	}
	return &Session{
		id:             uuid.New().String(),
		prayer:         opts.Prayer,
		clock:          clock,
		pl:             opts.Platform,
		cfg:            opts.Config,
		window:         window,
		defaultSound:   opts.DefaultSound,
		loop:           newEventLoop(clock),
		done:           make(chan struct{}),
		volumeSteps:    1,
		originalVolume: volumeNotCaptured,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Prayer() string {
	return s.prayer
}

// Done is closed once teardown has run.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		ID:             s.id,
		Prayer:         s.prayer,
		StartedAt:      s.startedAt,
		StoppedAt:      s.stoppedAt,
		Reason:         s.reason,
		CustomSound:    s.customSound,
		ElapsedSeconds: s.elapsedSeconds,
		VolumeStep:     s.volumeSteps,
		OriginalVolume: s.originalVolume,
		Muted:          s.muted,
		Stopped:        s.stopped,
		ShortSound:     s.stopAtHalfMinute,
	}
}

// Start runs session setup on the event loop and waits for it to finish.
// Setup failures are logged, not returned; an error means the session
// could not be started at all.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if err := s.loop.invoke(ctx, s.initialize); err != nil {
		return fmt.Errorf("failed to start athan session: %w", err)
	}
	return nil
}

func (s *Session) initialize() {
	s.mu.Lock()
	s.startedAt = s.clock.Now()
	s.mu.Unlock()

	log.Info().Str("session", s.id).Str("prayer", s.prayer).Msg("athan: session starting")

	s.captureVolume()

	muted := s.shouldMute()
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
	if muted {
		log.Info().Str("session", s.id).
			Msg("athan: alarm volume at minimum and ringer not normal, muting")
	} else {
		s.startSound()
	}

	s.presentScreen()

	s.loop.postDelayed(watchdogKey, watchdogInitialDelay, s.watchdogTick)

	s.ascending = s.cfg.AscendingVolume()
	if s.ascending {
		s.loop.postDelayed(ascensionKey, 0, s.ascensionTick)
	}

	unlisten, err := s.pl.ListenCallState(s.onCallState)
	if err != nil {
		log.Warn().Err(err).Msg("athan: failed to register call state listener")
	} else {
		s.unlistenCall = unlisten
	}
}

func (s *Session) captureVolume() {
	vol, err := s.pl.AlarmVolume()
	if err != nil {
		log.Warn().Err(err).Msg("athan: failed to read alarm volume")
	} else {
		s.mu.Lock()
		s.originalVolume = vol
		s.mu.Unlock()
	}

	if target := s.cfg.AthanVolume(); target != config.DefaultAthanVolume {
		if err := s.pl.SetAlarmVolume(target); err != nil {
			log.Warn().Err(err).Int("volume", target).Msg("athan: failed to set alarm volume")
		}
	}
}

// shouldMute is true when the alarm channel was left at its lowest step and
// the ringer is silenced, except for the exempt prayer.
func (s *Session) shouldMute() bool {
	if s.originalVolume == volumeNotCaptured ||
		s.originalVolume != s.cfg.MuteVolumeThreshold() ||
		s.prayer == s.cfg.ExemptPrayer() {
		return false
	}
	mode, err := s.pl.RingerMode()
	if err != nil {
		log.Warn().Err(err).Msg("athan: failed to read ringer mode")
		return false
	}
	return mode != platforms.RingerNormal
}

func (s *Session) startSound() {
	player := s.pl.Audio()
	if player == nil {
		log.Warn().Msg("athan: platform has no audio player")
		return
	}
	if path := s.cfg.CustomSoundPath(helpers.DataDir(s.pl)); path != "" {
		s.startRingtone(player, path)
		return
	}
	s.startMedia(player)
}

func (s *Session) startRingtone(player audio.Player, path string) {
	d, err := player.ProbeDuration(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("athan: failed to probe custom sound")
	} else if d < shortSoundDuration {
		log.Debug().Dur("duration", d).Msg("athan: short custom sound, stopping at half a minute")
		s.mu.Lock()
		s.stopAtHalfMinute = true
		s.mu.Unlock()
	}

	snd, err := player.OpenRingtone(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("athan: failed to open custom sound")
		return
	}
	snd.SetAttributes(audio.AlarmAttributes)
	if err := snd.Play(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("athan: failed to play custom sound")
		return
	}

	s.mu.Lock()
	s.ringtone = snd
	s.customSound = path
	s.mu.Unlock()
}

func (s *Session) startMedia(player audio.Player) {
	m, err := player.OpenMedia(s.defaultSound)
	if err != nil {
		log.Warn().Err(err).Msg("athan: failed to open bundled athan")
		return
	}
	m.SetAttributes(audio.AlarmAttributes)
	if err := m.Play(); err != nil {
		log.Warn().Err(err).Msg("athan: failed to play bundled athan")
		if err := m.Release(); err != nil {
			log.Warn().Err(err).Msg("athan: failed to release bundled athan")
		}
		return
	}

	s.mu.Lock()
	s.media = m
	s.mu.Unlock()
}

func (s *Session) presentScreen() {
	title := PrayerTitle(s.prayer)
	if err := s.window.Show(title, s); err != nil {
		log.Warn().Err(err).Msg("athan: failed to show window")
	}
	if s.muted {
		s.window.SetStatus("Muted")
	} else {
		s.window.SetStatus("Playing")
	}

	release, err := s.pl.WakeScreen(platforms.WakeOptions{
		Reason:            "Athan: " + title,
		DismissLockScreen: s.cfg.DismissLockScreen(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("athan: failed to wake screen")
		return
	}
	s.releaseScreen = release
}

func (s *Session) watchdogTick() {
	if reason, stop := s.checkWatchdog(); stop {
		s.stop(reason)
		return
	}
	s.loop.postDelayed(watchdogKey, watchdogInterval, s.watchdogTick)
}

// checkWatchdog advances the elapsed counter and decides whether the session
// must end. A panic during the check forces teardown.
func (s *Session) checkWatchdog() (reason StopReason, stop bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session", s.id).Msg("athan: watchdog check failed")
			reason, stop = StopReasonWatchdogFailure, true
		}
	}()

	s.mu.Lock()
	s.elapsedSeconds += watchdogTickSeconds
	elapsed := s.elapsedSeconds
	s.mu.Unlock()

	switch {
	case s.ringtone == nil && s.media == nil:
		return StopReasonNoSound, true
	case s.ringtone != nil && !s.ringtone.IsPlaying():
		return StopReasonPlaybackFinished, true
	case s.media != nil && !s.media.IsPlaying():
		return StopReasonPlaybackFinished, true
	case elapsed > maxElapsedSeconds:
		return StopReasonTimeout, true
	case s.stopAtHalfMinute && elapsed > shortSoundElapsedLimit:
		return StopReasonShortSound, true
	}
	return "", false
}

func (s *Session) ascensionTick() {
	s.mu.Lock()
	s.volumeSteps++
	step := s.volumeSteps
	s.mu.Unlock()

	if err := s.pl.SetAlarmVolume(step); err != nil {
		log.Warn().Err(err).Int("step", step).Msg("athan: failed to raise alarm volume")
	}
	if step >= maxVolumeSteps {
		return
	}
	s.loop.postDelayed(ascensionKey, ascensionInterval, s.ascensionTick)
}

func (s *Session) onCallState(state platforms.CallState) {
	if state != platforms.CallStateRinging && state != platforms.CallStateOffhook {
		return
	}
	log.Info().Stringer("state", state).Msg("athan: phone call detected")
	s.trigger(StopReasonPhoneCall)
}

func (s *Session) trigger(reason StopReason) {
	s.loop.post(func() {
		s.stop(reason)
	})
}

// OnBackPressed handles the back action.
func (s *Session) OnBackPressed() {
	s.trigger(StopReasonBack)
}

// OnWindowFocusChanged stops the session when the window loses focus.
func (s *Session) OnWindowFocusChanged(hasFocus bool) {
	if !hasFocus {
		s.trigger(StopReasonFocusLost)
	}
}

// OnTap handles a tap or click on the window.
func (s *Session) OnTap() {
	s.trigger(StopReasonTap)
}

// Cancel stops the session from outside the window, such as the API.
func (s *Session) Cancel(reason StopReason) {
	if reason == "" {
		reason = StopReasonRemote
	}
	s.trigger(reason)
}

// teardownStep runs one part of teardown so that a failure or panic in it
// does not skip the rest.
func (s *Session) teardownStep(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("step", name).
				Str("session", s.id).Msg("athan: teardown step panicked")
		}
	}()
	if err := fn(); err != nil {
		log.Error().Err(err).Str("step", name).Str("session", s.id).
			Msg("athan: teardown step failed")
	}
}

// stop tears the session down. Only the first call has any effect.
func (s *Session) stop(reason StopReason) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.reason = reason
	s.mu.Unlock()

	log.Info().Str("session", s.id).Str("reason", string(reason)).Msg("athan: stopping")

	s.teardownStep("unlisten_call_state", func() error {
		if s.unlistenCall == nil {
			return nil
		}
		unlisten := s.unlistenCall
		s.unlistenCall = nil
		return unlisten()
	})
	s.teardownStep("stop_ringtone", func() error {
		if s.ringtone != nil {
			s.ringtone.Stop()
		}
		return nil
	})
	s.teardownStep("stop_media", func() error {
		if s.media == nil || !s.media.IsPlaying() {
			return nil
		}
		s.media.Stop()
		s.mediaReleased = true
		return s.media.Release()
	})
	s.teardownStep("release_screen", func() error {
		if s.releaseScreen == nil {
			return nil
		}
		release := s.releaseScreen
		s.releaseScreen = nil
		return release()
	})
	s.teardownStep("cancel_timers", func() error {
		s.loop.removeCallbacks(watchdogKey)
		s.loop.removeCallbacks(ascensionKey)
		return nil
	})
	s.teardownStep("finish_window", func() error {
		s.window.Finish()
		return nil
	})

	s.mu.Lock()
	s.stoppedAt = s.clock.Now()
	s.mu.Unlock()
	close(s.done)
}

// Destroy tears the session down if it is still running, restores the
// alarm volume captured at start and stops the event loop. It is safe to
// call more than once.
func (s *Session) Destroy() {
	s.destroyOnce.Do(func() {
		err := s.loop.invoke(context.Background(), func() {
			s.stop(StopReasonDestroyed)
			s.teardownStep("release_media", func() error {
				if s.media == nil || s.mediaReleased {
					return nil
				}
				s.mediaReleased = true
				return s.media.Release()
			})
			s.restoreVolume()
		})
		if err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("athan: failed to destroy session")
		}
		s.loop.quit()
	})
}

func (s *Session) restoreVolume() {
	if s.originalVolume == volumeNotCaptured {
		return
	}
	if err := s.pl.SetAlarmVolume(s.originalVolume); err != nil {
		log.Warn().Err(err).Int("volume", s.originalVolume).
			Msg("athan: failed to restore alarm volume")
	}
}
