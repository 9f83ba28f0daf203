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

	"github.com/minaret-project/minaret/pkg/audio"
	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/stretchr/testify/mock"
)

// MockPlatform is a mock implementation of the Platform interface using
// testify/mock. Volume changes, call listeners and screen locks are also
// tracked for verification.
type MockPlatform struct {
	mock.Mock
	callListener  func(platforms.CallState)
	volumeSets    []int
	unlistenCalls int
	releaseCalls  int
	mu            syncutil.Mutex
}

func NewMockPlatform() *MockPlatform {
	return &MockPlatform{
		volumeSets: make([]int, 0),
	}
}

// SetupBasicMock configures the mock with typical default values: volume 7,
// normal ringer, and working call and screen hooks.
func (m *MockPlatform) SetupBasicMock(player audio.Player) {
	m.On("ID").Return("mock-platform").Maybe()
	m.On("Settings").Return(platforms.Settings{}).Maybe()
	m.On("AlarmVolume").Return(7, nil).Maybe()
	m.On("SetAlarmVolume", mock.AnythingOfType("int")).Return(nil).Maybe()
	m.On("RingerMode").Return(platforms.RingerNormal, nil).Maybe()
	m.On("SetRingerMode", mock.Anything).Return(nil).Maybe()
	m.On("ListenCallState", mock.Anything).Return(nil, nil).Maybe()
	m.On("WakeScreen", mock.Anything).Return(nil, nil).Maybe()
	m.On("Audio").Return(player).Maybe()
}

func (m *MockPlatform) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlatform) Settings() platforms.Settings {
	args := m.Called()
	if settings, ok := args.Get(0).(platforms.Settings); ok {
		return settings
	}
	return platforms.Settings{}
}

func (m *MockPlatform) AlarmVolume() (int, error) {
	args := m.Called()
	if err := args.Error(1); err != nil {
		return 0, fmt.Errorf("mock platform alarm volume failed: %w", err)
	}
	return args.Int(0), nil
}

func (m *MockPlatform) SetAlarmVolume(volume int) error {
	m.mu.Lock()
	m.volumeSets = append(m.volumeSets, volume)
	m.mu.Unlock()

	args := m.Called(volume)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock platform set alarm volume failed: %w", err)
	}
	return nil
}

// VolumeSets returns every volume passed to SetAlarmVolume, in order.
func (m *MockPlatform) VolumeSets() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.volumeSets...)
}

// LastVolume returns the most recent SetAlarmVolume value.
func (m *MockPlatform) LastVolume() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.volumeSets) == 0 {
		return 0, false
	}
	return m.volumeSets[len(m.volumeSets)-1], true
}

func (m *MockPlatform) RingerMode() (platforms.RingerMode, error) {
	args := m.Called()
	if err := args.Error(1); err != nil {
		return platforms.RingerNormal, fmt.Errorf("mock platform ringer mode failed: %w", err)
	}
	if mode, ok := args.Get(0).(platforms.RingerMode); ok {
		return mode, nil
	}
	return platforms.RingerNormal, nil
}

func (m *MockPlatform) SetRingerMode(mode platforms.RingerMode) error {
	args := m.Called(mode)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock platform set ringer mode failed: %w", err)
	}
	return nil
}

// ListenCallState stores fn so tests can deliver call states with
// EmitCallState. A func() error returned by the expectation is called when
// the listener is removed.
func (m *MockPlatform) ListenCallState(fn func(platforms.CallState)) (func() error, error) {
	args := m.Called(fn)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock platform listen call state failed: %w", err)
	}

	m.mu.Lock()
	m.callListener = fn
	m.mu.Unlock()

	inner, _ := args.Get(0).(func() error)
	return func() error {
		m.mu.Lock()
		m.callListener = nil
		m.unlistenCalls++
		m.mu.Unlock()
		if inner != nil {
			return inner()
		}
		return nil
	}, nil
}

// EmitCallState delivers state to the registered listener. It reports false
// when no listener is registered.
func (m *MockPlatform) EmitCallState(state platforms.CallState) bool {
	m.mu.Lock()
	fn := m.callListener
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(state)
	return true
}

func (m *MockPlatform) UnlistenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unlistenCalls
}

func (m *MockPlatform) WakeScreen(opts platforms.WakeOptions) (func() error, error) {
	args := m.Called(opts)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock platform wake screen failed: %w", err)
	}
	inner, _ := args.Get(0).(func() error)
	return func() error {
		m.mu.Lock()
		m.releaseCalls++
		m.mu.Unlock()
		if inner != nil {
			return inner()
		}
		return nil
	}, nil
}

func (m *MockPlatform) ReleaseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseCalls
}

func (m *MockPlatform) Audio() audio.Player {
	args := m.Called()
	if player, ok := args.Get(0).(audio.Player); ok {
		return player
	}
	return nil
}
