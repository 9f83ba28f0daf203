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

package mocks

import (
	"fmt"
	"time"

	"github.com/minaret-project/minaret/pkg/audio"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/stretchr/testify/mock"
)

// MockPlayer is a mock implementation of audio.Player.
type MockPlayer struct {
	mock.Mock
}

func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

func (m *MockPlayer) OpenRingtone(path string) (audio.Sound, error) {
	args := m.Called(path)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock player open ringtone failed: %w", err)
	}
	if s, ok := args.Get(0).(audio.Sound); ok {
		return s, nil
	}
	return nil, nil
}

func (m *MockPlayer) OpenMedia(data []byte) (audio.Media, error) {
	args := m.Called(data)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock player open media failed: %w", err)
	}
	if s, ok := args.Get(0).(audio.Media); ok {
		return s, nil
	}
	return nil, nil
}

func (m *MockPlayer) ProbeDuration(path string) (time.Duration, error) {
	args := m.Called(path)
	if err := args.Error(1); err != nil {
		return 0, fmt.Errorf("mock player probe duration failed: %w", err)
	}
	if d, ok := args.Get(0).(time.Duration); ok {
		return d, nil
	}
	return 0, nil
}

// MockSound is a stateful audio.Sound. Play errors come from the mock
// expectation; everything else is tracked directly so tests do not need
// to stub every IsPlaying poll.
type MockSound struct {
	mock.Mock
	attrs     audio.Attributes
	playCalls int
	stopCalls int
	mu        syncutil.Mutex
	playing   bool
	panicStop bool
}

func NewMockSound() *MockSound {
	return &MockSound{}
}

func (m *MockSound) SetAttributes(attrs audio.Attributes) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs = attrs
}

func (m *MockSound) Attributes() audio.Attributes {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrs
}

func (m *MockSound) Play() error {
	args := m.Called()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock sound play failed: %w", err)
	}
	m.playing = true
	return nil
}

func (m *MockSound) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.playing = false
	if m.panicStop {
		panic("mock sound stop panic")
	}
}

func (m *MockSound) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// SetPlaying simulates the sound ending or restarting on its own.
func (m *MockSound) SetPlaying(playing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = playing
}

// PanicOnStop makes Stop panic after recording the call.
func (m *MockSound) PanicOnStop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicStop = true
}

func (m *MockSound) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *MockSound) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// MockMedia is a MockSound that can be released.
type MockMedia struct {
	MockSound
	releaseCalls int
}

func NewMockMedia() *MockMedia {
	return &MockMedia{}
}

func (m *MockMedia) Release() error {
	m.mu.Lock()
	m.releaseCalls++
	m.playing = false
	m.mu.Unlock()
	return nil
}

func (m *MockMedia) ReleaseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseCalls
}
