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

// Package discovery advertises the API over mDNS so home-automation hubs on
// the LAN can find a Minaret device without a fixed address.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/rs/zerolog/log"
)

// ServiceType is the DNS-SD service type for Minaret.
const ServiceType = "_minaret._tcp"

const (
	domain = "local."
	// network may come up after the service on boot
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
)

var ErrNoInterfaces = errors.New("no network interface suitable for mDNS")

var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

// Server is a running registration.
type Server interface {
	Shutdown()
}

type RegisterFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (Server, error)

func zeroconfRegister(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (Server, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces)
}

type Options struct {
	Config     *config.Instance
	Clock      clockwork.Clock
	Register   RegisterFunc
	Interfaces func() ([]net.Interface, error)
	PlatformID string
}

type Advertiser struct {
	opts Options
}

func New(opts Options) *Advertiser {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Register == nil {
		opts.Register = zeroconfRegister
	}
	if opts.Interfaces == nil {
		opts.Interfaces = net.Interfaces
	}
	return &Advertiser{opts: opts}
}

func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}
		preferred = append(preferred, iface)
	}
	return preferred
}

func isVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// advertisedPort returns the API port, or false when the API only listens
// on loopback and there is nothing to advertise.
func advertisedPort(listen string) (int, bool, error) {
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return 0, false, fmt.Errorf("invalid api listen address %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, false, fmt.Errorf("invalid api port %q: %w", portStr, err)
	}
	if host == "localhost" {
		return port, false, nil
	}
	if addr, err := netip.ParseAddr(host); err == nil && addr.IsLoopback() {
		return port, false, nil
	}
	return port, true, nil
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "Minaret"
	}
	return "Minaret on " + host
}

func (a *Advertiser) register(port int) (Server, error) {
	all, err := a.opts.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}
	ifaces := filterInterfaces(all)
	if len(ifaces) == 0 {
		return nil, ErrNoInterfaces
	}

	text := []string{
		"id=" + a.opts.Config.DeviceID(),
		"version=" + config.AppVersion,
		"platform=" + a.opts.PlatformID,
	}
	srv, err := a.opts.Register(instanceName(), ServiceType, domain, port, text, ifaces)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	return srv, nil
}

// Run advertises the API until ctx is done. Registration is retried while
// the network is not up yet, then given up on quietly.
func (a *Advertiser) Run(ctx context.Context) error {
	cfg := a.opts.Config
	if !cfg.DiscoveryEnabled() {
		log.Debug().Msg("mDNS discovery disabled")
		return nil
	}

	port, ok, err := advertisedPort(cfg.APIListen())
	if err != nil {
		return err
	}
	if !ok {
		log.Info().Str("listen", cfg.APIListen()).
			Msg("api only listens on loopback, not advertising")
		return nil
	}

	ticker := a.opts.Clock.NewTicker(retryInterval)
	defer ticker.Stop()
	deadline := a.opts.Clock.Now().Add(maxRetryDuration)

	for {
		srv, err := a.register(port)
		if err == nil {
			log.Info().Int("port", port).Str("type", ServiceType).Msg("advertising api over mDNS")
			<-ctx.Done()
			srv.Shutdown()
			return nil
		}
		log.Debug().Err(err).Msg("mDNS registration failed")

		if !a.opts.Clock.Now().Before(deadline) {
			log.Warn().Err(err).Msg("giving up on mDNS registration")
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}
