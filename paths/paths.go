// This file is part of Playcap.
//
// Playcap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Playcap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Playcap.  If not, see <https://www.gnu.org/licenses/>.

// Package paths decides where session data lives on disk. The base
// path can be overridden with the PLAYCAP_DATA_ROOT environment
// variable. Without the override, a ".playcap" directory in the working
// directory is preferred if it exists, falling back to the user's data
// directory.
package paths

import (
	"os"
	"path/filepath"
)

// DataRootEnv is the environment variable that overrides the base path
// for all session data.
const DataRootEnv = "PLAYCAP_DATA_ROOT"

// the base path for all data when no override is present. note that we
// don't use this value directly except in the dataRoot() function.
const baseDataPath = ".playcap"

func dataRoot() string {
	if p := os.Getenv(DataRootEnv); p != "" {
		return p
	}

	// a local data directory takes precedence over the user directory.
	// useful during development and for portable installs
	if _, err := os.Stat(baseDataPath); err == nil {
		return baseDataPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return baseDataPath
	}
	return filepath.Join(home, ".local", "share", "playcap")
}

// JoinPath prepends the supplied path elements with the data root and
// creates all folders necessary to reach the end of the path. It does
// not otherwise touch or create the file.
func JoinPath(elem ...string) (string, error) {
	p := filepath.Join(append([]string{dataRoot()}, elem...)...)

	if _, err := os.Stat(p); err == nil {
		return p, nil
	}

	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}

	return p, nil
}

// SessionDir returns the directory for the named session, creating it
// if necessary. Sessions live under <data root>/raw/sessions.
func SessionDir(name string) (string, error) {
	return JoinPath("raw", "sessions", name)
}
