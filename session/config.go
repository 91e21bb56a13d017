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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/screen"
)

// ConfigurationError indicates an invalid combination of options.
// Raised before any resource is acquired.
const ConfigurationError = "session: configuration: %v"

// Config describes one recording session. Constructed once, validated
// at Start() and never mutated afterwards.
type Config struct {
	Name  string `yaml:"name"`
	Game  string `yaml:"game"`
	Notes string `yaml:"notes"`

	Screen  ScreenConfig  `yaml:"screen"`
	Audio   AudioConfig   `yaml:"audio"`
	Gamepad GamepadConfig `yaml:"gamepad"`
	System  SystemConfig  `yaml:"system"`
	Input   InputConfig   `yaml:"input"`

	// address for the prometheus metrics listener. empty disables it
	MetricsAddr string `yaml:"metrics_addr"`

	// sink flush interval in records. zero means the sink default
	FlushEvery int `yaml:"flush_every"`
}

type ScreenConfig struct {
	Enabled bool         `yaml:"enabled"`
	FPS     int          `yaml:"fps"`
	Display int          `yaml:"display"`
	Region  RegionConfig `yaml:"region"`
}

type AudioConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Device        string  `yaml:"device"`
	Rate          int     `yaml:"rate"`
	Channels      int     `yaml:"channels"`
	Blocksize     int     `yaml:"blocksize"`
	ChunkDuration float64 `yaml:"chunk_duration"`
}

type GamepadConfig struct {
	Enabled  bool `yaml:"enabled"`
	PollRate int  `yaml:"poll_rate"`
}

type SystemConfig struct {
	Enabled       bool    `yaml:"enabled"`
	PeriodSeconds float64 `yaml:"period_seconds"`
	PerCore       bool    `yaml:"per_core"`
}

type InputConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RetargetKey string `yaml:"retarget_key"`
	StopKey     string `yaml:"stop_key"`
}

// RegionConfig is the YAML form of an optional capture region. Either
// all four bounds are given or none.
type RegionConfig struct {
	Left   *int `yaml:"left"`
	Top    *int `yaml:"top"`
	Right  *int `yaml:"right"`
	Bottom *int `yaml:"bottom"`
}

// Region converts the configured bounds to a screen region. Returns nil
// when no bounds are set.
func (r RegionConfig) Region() *screen.Region {
	if r.Left == nil {
		return nil
	}
	return &screen.Region{
		Left:   *r.Left,
		Top:    *r.Top,
		Right:  *r.Right,
		Bottom: *r.Bottom,
	}
}

func (r RegionConfig) count() int {
	n := 0
	for _, b := range []*int{r.Left, r.Top, r.Right, r.Bottom} {
		if b != nil {
			n++
		}
	}
	return n
}

// Default returns the configuration used when no file or flag says
// otherwise. Every producer is enabled; absence of a backend at start
// still omits it without error.
func Default() Config {
	return Config{
		Screen:  ScreenConfig{Enabled: true, FPS: 30},
		Audio:   AudioConfig{Enabled: true, Rate: 48000, Blocksize: 2048, ChunkDuration: 1.0},
		Gamepad: GamepadConfig{Enabled: true, PollRate: 125},
		System:  SystemConfig{Enabled: true, PeriodSeconds: 2.0},
		Input:   InputConfig{Enabled: true, RetargetKey: "r", StopKey: "q"},
	}
}

// LoadConfig reads a YAML configuration file over the defaults. An
// empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	d, err := os.ReadFile(path)
	if err != nil {
		return cfg, curated.Errorf(ConfigurationError, err)
	}
	if err := yaml.Unmarshal(d, &cfg); err != nil {
		return cfg, curated.Errorf(ConfigurationError, err)
	}

	return cfg, nil
}

// Validate rejects invalid option combinations. Called by the
// orchestrator before any resource is acquired.
func (c Config) Validate() error {
	if c.Name == "" {
		return curated.Errorf(ConfigurationError, "session name is required")
	}

	switch n := c.Screen.Region.count(); n {
	case 0, 4:
	default:
		return curated.Errorf(ConfigurationError,
			fmt.Sprintf("capture region needs all four bounds (%d given)", n))
	}
	if region := c.Screen.Region.Region(); region != nil && !region.Valid() {
		return curated.Errorf(ConfigurationError,
			fmt.Sprintf("capture region %v has no area", *region))
	}

	if c.Screen.FPS < 0 {
		return curated.Errorf(ConfigurationError, "fps cannot be negative")
	}
	if c.Audio.Rate < 0 {
		return curated.Errorf(ConfigurationError, "sample rate cannot be negative")
	}
	if c.Audio.Channels < 0 {
		return curated.Errorf(ConfigurationError, "channel count cannot be negative")
	}
	if c.Audio.ChunkDuration < 0 {
		return curated.Errorf(ConfigurationError, "chunk duration cannot be negative")
	}
	if c.Gamepad.PollRate < 0 {
		return curated.Errorf(ConfigurationError, "poll rate cannot be negative")
	}
	if c.System.PeriodSeconds < 0 {
		return curated.Errorf(ConfigurationError, "sample period cannot be negative")
	}

	return nil
}
