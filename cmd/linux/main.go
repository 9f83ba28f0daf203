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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/minaret-project/minaret/internal/telemetry"
	"github.com/minaret-project/minaret/pkg/cli"
	"github.com/minaret-project/minaret/pkg/config"
	"github.com/minaret-project/minaret/pkg/platforms/linux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnErr error) {
	flags := cli.SetupFlags()
	if err := flags.Pre(&linux.Platform{}, os.Args[1:]); err != nil {
		return err
	}

	if os.Geteuid() == 0 {
		return errors.New("minaret cannot be run as root")
	}

	var logWriters []io.Writer
	if *flags.Foreground {
		logWriters = []io.Writer{os.Stderr}
	}

	// directories only depend on the platform type, so settings can be read
	// before the config exists
	cfg, err := cli.Setup(&linux.Platform{}, config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pl := linux.NewPlatform(cfg, afero.NewOsFs())
	return cli.NewApp(pl, cfg, os.Stdout).RunApp(ctx, flags)
}
