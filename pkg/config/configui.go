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

package config

const DefaultTheme = "default"

type UI struct {
	Theme string `toml:"theme,omitempty"`
	// TTY is a terminal device to draw on when the process has no
	// controlling terminal, such as a kiosk console.
	TTY string `toml:"tty,omitempty"`
}

func (c *Instance) UITheme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.UI.Theme == "" {
		return DefaultTheme
	}
	return c.vals.UI.Theme
}

func (c *Instance) SetUITheme(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.UI.Theme = name
}

func (c *Instance) UITTY() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.UI.TTY
}
