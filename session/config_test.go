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

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/test"
)

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Name = "test"
	test.ExpectedSuccess(t, cfg.Validate())

	// a session must be named
	cfg.Name = ""
	err := cfg.Validate()
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, ConfigurationError), true)
}

func TestValidatePartialRegion(t *testing.T) {
	cfg := Default()
	cfg.Name = "test"

	// a region with only some bounds set is rejected
	left, top := 0, 0
	cfg.Screen.Region.Left = &left
	cfg.Screen.Region.Top = &top
	err := cfg.Validate()
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, ConfigurationError), true)

	// all four bounds is fine
	right, bottom := 640, 480
	cfg.Screen.Region.Right = &right
	cfg.Screen.Region.Bottom = &bottom
	test.ExpectedSuccess(t, cfg.Validate())

	region := cfg.Screen.Region.Region()
	test.Equate(t, region.Right, 640)
	test.Equate(t, region.Bottom, 480)

	// a degenerate region is rejected even when complete
	bottom = 0
	test.ExpectedFailure(t, cfg.Validate())
}

func TestValidateNegativeRates(t *testing.T) {
	cfg := Default()
	cfg.Name = "test"
	cfg.Audio.Rate = -1
	test.ExpectedFailure(t, cfg.Validate())

	cfg = Default()
	cfg.Name = "test"
	cfg.Screen.FPS = -1
	test.ExpectedFailure(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	// no file returns the defaults
	cfg, err := LoadConfig("")
	test.ExpectedSuccess(t, err)
	test.Equate(t, cfg.Screen.FPS, 30)
	test.Equate(t, cfg.Audio.Rate, 48000)
	test.Equate(t, cfg.Input.StopKey, "q")

	// a file overlays the defaults, leaving unnamed options alone
	path := filepath.Join(t.TempDir(), "playcap.yaml")
	doc := "name: bossfight\nscreen:\n  enabled: true\n  fps: 60\naudio:\n  enabled: false\n"
	test.ExpectedSuccess(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err = LoadConfig(path)
	test.ExpectedSuccess(t, err)
	test.Equate(t, cfg.Name, "bossfight")
	test.Equate(t, cfg.Screen.FPS, 60)
	test.Equate(t, cfg.Audio.Enabled, false)
	test.Equate(t, cfg.Audio.Rate, 48000)

	// a missing file is a configuration error
	_, err = LoadConfig(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, ConfigurationError), true)

	// so is malformed yaml
	test.ExpectedSuccess(t, os.WriteFile(path, []byte("{{{"), 0o600))
	_, err = LoadConfig(path)
	test.ExpectedFailure(t, err)
}
