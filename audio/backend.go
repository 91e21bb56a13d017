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

// Device describes one capture or playback device as reported by the
// backend.
type Device struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
}

// StreamConfig is the resolved configuration handed to Backend.Start().
type StreamConfig struct {
	Device    Device
	Loopback  bool
	Rate      int
	Channels  int
	Blocksize int
}

// BlockFunc receives one block of interleaved float32 samples. The
// block length is backend-determined. The slice is only valid for the
// duration of the call; implementations of Backend may reuse it.
//
// BlockFunc is called from a backend-owned thread and must never block.
type BlockFunc func(block []float32)

// Backend is the capability interface required from an audio capture
// implementation. Absence of a backend is non-fatal to the session; the
// audio producer is simply omitted.
type Backend interface {
	// Devices enumerates the devices known to the backend.
	Devices() ([]Device, error)

	// DefaultDevice returns the backend's default capture device, if it
	// has one.
	DefaultDevice() (Device, bool)

	// SupportsLoopback reports whether the backend can capture a
	// playback device's output as if it were an input.
	SupportsLoopback() bool

	// Start opens the stream and begins delivering sample blocks to fn.
	Start(cfg StreamConfig, fn BlockFunc) error

	// Stop ends delivery and releases the stream.
	Stop() error
}
