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

package mqtt

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/rs/zerolog/log"
)

const clientIDPrefix = "minaret-"

// brokerURL normalizes a configured broker to the scheme paho expects.
// mqtt:// and bare host:port become tcp://, mqtts:// becomes ssl://.
func brokerURL(broker string) (url string, useTLS bool) {
	scheme, rest, found := strings.Cut(broker, "://")
	if !found {
		return "tcp://" + broker, false
	}
	switch scheme {
	case "mqtts", "ssl", "tls":
		return "ssl://" + rest, true
	case "ws", "wss":
		return broker, scheme == "wss"
	default:
		return "tcp://" + rest, false
	}
}

// NewClientOptions builds paho options from the [service.mqtt] settings.
func NewClientOptions(m config.MQTT) *mqtt.ClientOptions {
	url, useTLS := brokerURL(m.Broker)

	clientID := m.ClientID
	if clientID == "" {
		clientID = clientIDPrefix + uuid.New().String()[:8]
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(url)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOrderMatters(false)

	if m.Username != "" {
		opts.SetUsername(m.Username)
		opts.SetPassword(m.Password)
	}
	if useTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	log.Debug().
		Str("broker", url).
		Str("client_id", clientID).
		Bool("tls", useTLS).
		Msg("mqtt: client options")
	return opts
}

func describeBroker(m config.MQTT) string {
	url, _ := brokerURL(m.Broker)
	return fmt.Sprintf("%s (%s)", url, m.Topic)
}
