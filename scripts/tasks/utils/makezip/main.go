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

// Command makezip packages a Minaret build into a release zip with the
// license, a README and an example config generated from the defaults.
package main

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minaret-project/minaret/pkg/config"
	"github.com/pelletier/go-toml/v2"
)

const exampleConfig = "config.example.toml"

const readme = `Minaret %s

Plays the athan as an alarm and manages the alarm volume while it plays.

  %[2]s -daemon              start the background service
  %[2]s -play fajr           play the athan for a prayer
  %[2]s -status              show the current session
  %[2]s -stop                stop the background service

Copy config.example.toml to ~/.config/minaret/config.toml to change the
defaults.
`

type archiveFile struct {
	path    string
	arcname string
}

func main() {
	if len(os.Args) < 4 {
		_, _ = fmt.Println("Usage: go run ./scripts/tasks/utils/makezip <build_dir> <app_bin> <zip_name>")
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2], os.Args[3], "LICENSE"); err != nil {
		_, _ = fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(buildDir, appBin, zipName, license string) error {
	if _, err := os.Stat(buildDir); err != nil {
		return fmt.Errorf("build directory: %w", err)
	}

	appPath := filepath.Join(buildDir, appBin)
	if _, err := os.Stat(appPath); err != nil {
		return fmt.Errorf("app binary: %w", err)
	}

	licensePath := filepath.Join(buildDir, "LICENSE.txt")
	if err := copyFile(license, licensePath); err != nil {
		return fmt.Errorf("error copying license: %w", err)
	}

	readmePath := filepath.Join(buildDir, "README.txt")
	text := fmt.Sprintf(readme, config.AppVersion, appBin)
	if err := os.WriteFile(readmePath, []byte(text), 0o644); err != nil { //nolint:gosec // release file
		return fmt.Errorf("error writing readme: %w", err)
	}

	cfgPath := filepath.Join(buildDir, exampleConfig)
	if err := writeExampleConfig(cfgPath); err != nil {
		return err
	}

	zipPath := filepath.Join(buildDir, zipName)
	if err := os.Remove(zipPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing old zip: %w", err)
	}

	return createZipFile(zipPath, []archiveFile{
		{appPath, appBin},
		{licensePath, "LICENSE.txt"},
		{readmePath, "README.txt"},
		{cfgPath, exampleConfig},
	})
}

func writeExampleConfig(path string) error {
	data, err := toml.Marshal(config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("error encoding example config: %w", err)
	}
	header := "# Minaret example configuration. Values shown are the defaults.\n\n"
	//nolint:gosec // release file
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("error writing example config: %w", err)
	}
	return nil
}

func createZipFile(zipPath string, files []archiveFile) (err error) {
	zipFile, err := os.Create(zipPath) //nolint:gosec // path from build script
	if err != nil {
		return fmt.Errorf("error creating zip file: %w", err)
	}
	defer func() {
		if closeErr := zipFile.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	zipWriter := zip.NewWriter(zipFile)
	for _, f := range files {
		if err := addFileToZip(zipWriter, f.path, f.arcname); err != nil {
			return fmt.Errorf("error adding %s to zip: %w", f.arcname, err)
		}
	}
	return zipWriter.Close()
}

func addFileToZip(zipWriter *zip.Writer, filePath, arcname string) error {
	file, err := os.Open(filePath) //nolint:gosec // path from build script
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = strings.TrimPrefix(arcname, "/")
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src) //nolint:gosec // path from build script
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0o644) //nolint:gosec // release file
}
