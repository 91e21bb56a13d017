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

	"github.com/spf13/cobra"

	"github.com/playcap/playcap/audio/sdlcapture"
	"github.com/playcap/playcap/gamepad/sdlpad"
	"github.com/playcap/playcap/version"
)

func main() {
	root := &cobra.Command{
		Use:   "playcap",
		Short: "Playcap records gameplay sessions: frames, input, audio and telemetry",
		Long: `Playcap records a live gameplay session to disk. Screen frames,
keyboard input, gamepad state, system audio and machine telemetry are
captured concurrently and fanned into one append-only event log that
can be tailed while the session is still running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(recordCommand())
	root.AddCommand(devicesCommand())
	root.AddCommand(versionCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "* %v\n", err)
		os.Exit(10)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			ver, rev, _ := version.Version()
			fmt.Printf("%s (%s)\n", ver, rev)
		},
	}
}

func devicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices and connected gamepads",
		RunE: func(cmd *cobra.Command, args []string) error {
			capture, err := sdlcapture.New()
			if err != nil {
				fmt.Printf("audio: unavailable (%v)\n", err)
			} else {
				devices, err := capture.Devices()
				if err != nil {
					return err
				}
				if len(devices) == 0 {
					fmt.Println("audio: no capture devices")
				}
				for _, d := range devices {
					fmt.Printf("audio %d: %s (%d in)\n", d.Index, d.Name, d.MaxInputChannels)
				}
			}

			pads, err := sdlpad.New()
			if err != nil {
				fmt.Printf("gamepad: unavailable (%v)\n", err)
				return nil
			}
			if err := pads.Pump(); err != nil {
				return err
			}

			found := false
			for slot := 0; slot < pads.NumSlots(); slot++ {
				dev, err := pads.Open(slot)
				if err != nil || dev == nil {
					continue
				}
				fmt.Printf("gamepad %d: %s\n", slot, dev.Name())
				dev.Close()
				found = true
			}
			if !found {
				fmt.Println("gamepad: none connected")
			}

			return nil
		},
	}
}
