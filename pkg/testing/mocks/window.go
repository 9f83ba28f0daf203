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

	"github.com/minaret-project/minaret/pkg/helpers/syncutil"
	"github.com/minaret-project/minaret/pkg/platforms"
	"github.com/stretchr/testify/mock"
)

// MockWindow is a mock implementation of platforms.Window. Show goes through
// the mock expectations; status updates and Finish calls are recorded.
type MockWindow struct {
	mock.Mock
	controller  platforms.WindowController
	finished    chan struct{}
	statuses    []string
	finishCalls int
	mu          syncutil.Mutex
}

func NewMockWindow() *MockWindow {
	return &MockWindow{finished: make(chan struct{})}
}

func (m *MockWindow) Show(title string, c platforms.WindowController) error {
	args := m.Called(title, c)
	m.mu.Lock()
	m.controller = c
	m.mu.Unlock()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock window show failed: %w", err)
	}
	return nil
}

func (m *MockWindow) SetStatus(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, text)
}

func (m *MockWindow) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishCalls++
	if m.finishCalls == 1 {
		close(m.finished)
	}
}

// Controller returns the controller passed to Show.
func (m *MockWindow) Controller() platforms.WindowController {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controller
}

func (m *MockWindow) Statuses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statuses...)
}

func (m *MockWindow) FinishCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finishCalls
}

// Finished is closed on the first Finish call.
func (m *MockWindow) Finished() <-chan struct{} {
	return m.finished
}
