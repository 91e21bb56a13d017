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

package audio

import (
	"strconv"
	"strings"

	"github.com/playcap/playcap/curated"
)

// Error patterns raised by the audio producer.
const (
	// DeviceUnavailable indicates the backend is missing or no usable
	// device exists. The producer is omitted from the session.
	DeviceUnavailable = "audio: device unavailable: %v"

	// DeviceResolutionError indicates the requested device specifier
	// matched nothing. The producer's Start() fails.
	DeviceResolutionError = "audio: device resolution: %v"

	// StreamError indicates a runtime hardware fault during capture.
	StreamError = "audio: stream: %v"
)

// Resolved is the outcome of device resolution.
type Resolved struct {
	Device   Device
	Channels int
	Loopback bool
}

// Resolve turns a user supplied device specifier into a concrete device
// and channel count. The specifier is either empty (backend default), an
// integer device index, or a case-insensitive substring of a device
// name.
//
// A device that exposes no input channels but some output channels is
// switched to loopback capture if the backend supports it, with the
// channel count capped at the device's output channel count. Otherwise
// resolution fails with DeviceUnavailable.
func Resolve(b Backend, spec string, requested int) (Resolved, error) {
	devices, err := b.Devices()
	if err != nil {
		return Resolved{}, curated.Errorf(DeviceUnavailable, err)
	}

	var dev Device
	spec = strings.TrimSpace(spec)

	switch {
	case spec == "":
		if d, ok := b.DefaultDevice(); ok {
			dev = d
		} else if len(devices) > 0 {
			dev = devices[0]
		} else {
			return Resolved{}, curated.Errorf(DeviceUnavailable, "no audio devices")
		}

	default:
		if n, aerr := strconv.Atoi(spec); aerr == nil {
			if n < 0 || n >= len(devices) {
				return Resolved{}, curated.Errorf(DeviceResolutionError,
					"device index out of range: "+spec)
			}
			dev = devices[n]
		} else {
			lowered := strings.ToLower(spec)
			found := false
			for _, d := range devices {
				if strings.Contains(strings.ToLower(d.Name), lowered) {
					dev = d
					found = true
					break
				}
			}
			if !found {
				return Resolved{}, curated.Errorf(DeviceResolutionError,
					"no device matching '"+spec+"'")
			}
		}
	}

	channels := requested
	if channels <= 0 {
		channels = dev.MaxInputChannels
		if channels == 0 {
			channels = dev.MaxOutputChannels
		}
	}

	loopback := false
	if dev.MaxInputChannels == 0 && dev.MaxOutputChannels > 0 {
		if !b.SupportsLoopback() {
			return Resolved{}, curated.Errorf(DeviceUnavailable,
				"device '"+dev.Name+"' exposes no input channels")
		}
		loopback = true
		if channels > dev.MaxOutputChannels {
			channels = dev.MaxOutputChannels
		}
	} else if dev.MaxInputChannels > 0 && channels > dev.MaxInputChannels {
		channels = dev.MaxInputChannels
	}

	if channels < 1 {
		channels = 1
	}

	return Resolved{Device: dev, Channels: channels, Loopback: loopback}, nil
}
