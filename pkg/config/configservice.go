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

import "strconv"

const (
	DefaultAPIPort         = 7498
	DefaultMQTTTopic       = "minaret/command"
	DefaultMQTTStatusTopic = "minaret/status"
)

type Service struct {
	APIPort        *int     `toml:"api_port,omitempty"`
	MQTT           MQTT     `toml:"mqtt,omitempty"`
	DeviceID       string   `toml:"device_id"`
	APIListen      string   `toml:"api_listen,omitempty"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
	AllowedIPs     []string `toml:"allowed_ips,omitempty"`
	Discovery      bool     `toml:"discovery,omitempty"`
}

type MQTT struct {
	Broker      string `toml:"broker,omitempty"`
	Topic       string `toml:"topic,omitempty"`
	StatusTopic string `toml:"status_topic,omitempty"`
	ClientID    string `toml:"client_id,omitempty"`
	Username    string `toml:"username,omitempty"`
	Password    string `toml:"password,omitempty"`
}

func (c *Instance) APIPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiPortLocked()
}

// apiPortLocked returns the API port. Caller must hold mu (read or write).
func (c *Instance) apiPortLocked() int {
	if c.vals.Service.APIPort == nil {
		return DefaultAPIPort
	}
	return *c.vals.Service.APIPort
}

func (c *Instance) SetAPIPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.APIPort = &port
}

func (c *Instance) APIListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Service.APIListen == "" {
		return "127.0.0.1:" + strconv.Itoa(c.apiPortLocked())
	}
	return c.vals.Service.APIListen
}

func (c *Instance) AllowedOrigins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedOrigins
}

// AllowedIPs lists the addresses and CIDRs that may use the API. Empty
// allows everyone who can reach the listen address.
func (c *Instance) AllowedIPs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.AllowedIPs
}

// DiscoveryEnabled reports whether the API is advertised over mDNS. It only
// has an effect when the API listens on a non-loopback address.
func (c *Instance) DiscoveryEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.Discovery
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.DeviceID
}

// MQTT returns the command subscriber settings. An empty Broker disables it.
func (c *Instance) MQTT() MQTT {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.vals.Service.MQTT
	if m.Topic == "" {
		m.Topic = DefaultMQTTTopic
	}
	if m.StatusTopic == "" {
		m.StatusTopic = DefaultMQTTStatusTopic
	}
	return m
}
