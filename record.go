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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/playcap/playcap/audio/sdlcapture"
	"github.com/playcap/playcap/gamepad/sdlpad"
	"github.com/playcap/playcap/input/termkeys"
	"github.com/playcap/playcap/logger"
	"github.com/playcap/playcap/screen/grab"
	"github.com/playcap/playcap/session"
	"github.com/playcap/playcap/statsview"
	"github.com/playcap/playcap/system"
	"github.com/playcap/playcap/system/nvml"
)

func recordCommand() *cobra.Command {
	var (
		configFile string
		name       string
		game       string
		notes      string

		fps       int
		display   int
		device    string
		rate      int
		channels  int
		chunk     float64
		pollRate  int
		sysPeriod float64

		noScreen  bool
		noAudio   bool
		noGamepad bool
		noSystem  bool
		noInput   bool

		metricsAddr string
		echoLog     bool
		stats       bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a gameplay session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := session.LoadConfig(configFile)
			if err != nil {
				return err
			}

			// command line flags override the configuration file
			flags := cmd.Flags()
			if flags.Changed("name") {
				cfg.Name = name
			}
			if flags.Changed("game") {
				cfg.Game = game
			}
			if flags.Changed("notes") {
				cfg.Notes = notes
			}
			if flags.Changed("fps") {
				cfg.Screen.FPS = fps
			}
			if flags.Changed("display") {
				cfg.Screen.Display = display
			}
			if flags.Changed("device") {
				cfg.Audio.Device = device
			}
			if flags.Changed("rate") {
				cfg.Audio.Rate = rate
			}
			if flags.Changed("channels") {
				cfg.Audio.Channels = channels
			}
			if flags.Changed("chunk") {
				cfg.Audio.ChunkDuration = chunk
			}
			if flags.Changed("poll-rate") {
				cfg.Gamepad.PollRate = pollRate
			}
			if flags.Changed("system-period") {
				cfg.System.PeriodSeconds = sysPeriod
			}
			if flags.Changed("metrics") {
				cfg.MetricsAddr = metricsAddr
			}
			if noScreen {
				cfg.Screen.Enabled = false
			}
			if noAudio {
				cfg.Audio.Enabled = false
			}
			if noGamepad {
				cfg.Gamepad.Enabled = false
			}
			if noSystem {
				cfg.System.Enabled = false
			}
			if noInput {
				cfg.Input.Enabled = false
			}

			if cfg.Name == "" {
				cfg.Name = time.Now().Format("session_20060102_150405")
			}

			if echoLog {
				logger.SetEcho(os.Stderr)
			}
			if stats {
				statsview.Launch(os.Stdout)
			}

			return record(cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	cmd.Flags().StringVarP(&name, "name", "n", "", "session name (default: timestamp)")
	cmd.Flags().StringVar(&game, "game", "", "name of the game being recorded")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form session notes")
	cmd.Flags().IntVar(&fps, "fps", 30, "frame capture rate")
	cmd.Flags().IntVar(&display, "display", 0, "display to capture")
	cmd.Flags().StringVar(&device, "device", "", "audio device (index or name substring)")
	cmd.Flags().IntVar(&rate, "rate", 48000, "audio sample rate")
	cmd.Flags().IntVar(&channels, "channels", 0, "audio channels (0 derives from the device)")
	cmd.Flags().Float64Var(&chunk, "chunk", 1.0, "audio chunk duration in seconds")
	cmd.Flags().IntVar(&pollRate, "poll-rate", 125, "gamepad polls per second")
	cmd.Flags().Float64Var(&sysPeriod, "system-period", 2.0, "seconds between telemetry samples")
	cmd.Flags().BoolVar(&noScreen, "no-screen", false, "disable frame capture")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "disable audio capture")
	cmd.Flags().BoolVar(&noGamepad, "no-gamepad", false, "disable gamepad polling")
	cmd.Flags().BoolVar(&noSystem, "no-system", false, "disable system telemetry")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "disable keyboard recording and hotkeys")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "prometheus metrics listen address")
	cmd.Flags().BoolVar(&echoLog, "log", false, "echo the log to stderr")
	cmd.Flags().BoolVar(&stats, "stats", statsview.Available(), "run stats server")

	return cmd
}

// record runs one session to completion: construct whatever backends
// the machine offers, start the orchestrator and wait for an interrupt,
// the stop hotkey or a sink fault.
func record(cfg session.Config) error {
	backends := gatherBackends(cfg)

	o := session.NewOrchestrator(cfg, backends)
	if err := o.Start(); err != nil {
		return err
	}

	for id, status := range o.Status() {
		fmt.Printf("%s: %s\n", id, status)
	}
	fmt.Printf("recording to %s\n", o.Dir())

	intsig := make(chan os.Signal, 1)
	signal.Notify(intsig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-intsig:
	case <-o.StopRequested():
	}
	signal.Stop(intsig)

	o.Stop()
	return nil
}

// gatherBackends constructs a backend for each enabled producer. A
// backend that cannot be constructed on this machine is left nil; the
// orchestrator records the omission.
func gatherBackends(cfg session.Config) session.Backends {
	var backends session.Backends

	if cfg.Screen.Enabled {
		if b, err := grab.New(cfg.Screen.Display); err != nil {
			logger.Logf("playcap", "screen backend: %v", err)
		} else {
			backends.Screen = b
			backends.Resolver = grab.DisplayResolver{}
		}
	}

	if cfg.Audio.Enabled {
		if b, err := sdlcapture.New(); err != nil {
			logger.Logf("playcap", "audio backend: %v", err)
		} else {
			backends.Audio = b
		}
	}

	if cfg.Gamepad.Enabled {
		if b, err := sdlpad.New(); err != nil {
			logger.Logf("playcap", "gamepad backend: %v", err)
		} else {
			backends.Gamepad = b
		}
	}

	if cfg.Input.Enabled {
		if b, err := termkeys.New(); err != nil {
			logger.Logf("playcap", "input backend: %v", err)
		} else {
			backends.Input = b
		}
	}

	if cfg.System.Enabled {
		if b, err := nvml.New(); err != nil {
			logger.Logf("playcap", "nvml: %v", err)
		} else {
			backends.Gpu = []system.GpuBackend{b}
		}
	}

	return backends
}
