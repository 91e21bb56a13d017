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

// Package sdlcapture implements the audio capture backend on top of
// SDL2. Blocks are pulled from SDL's queued-audio API by an internal
// goroutine and pushed to the producer's callback, satisfying the
// push-style contract of audio.Backend.
//
// SDL has no loopback capture. Recording a playback device's output
// needs a host API with loopback support (WASAPI); on SDL the audio
// producer records capture devices only.
package sdlcapture

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/playcap/playcap/audio"
	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/logger"
)

// Backend implements audio.Backend using SDL2 capture devices.
type Backend struct {
	dev     sdl.AudioDeviceID
	spec    sdl.AudioSpec
	stop    chan struct{}
	done    chan struct{}
	started bool
}

// New is the preferred method of initialisation for the sdlcapture
// Backend type. Initialises the SDL audio subsystem.
func New() (*Backend, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, curated.Errorf(audio.DeviceUnavailable, err)
	}
	return &Backend{}, nil
}

// Devices implements the audio.Backend interface. SDL reports capture
// devices only; playback devices are not enumerated because SDL cannot
// loop them back.
func (b *Backend) Devices() ([]audio.Device, error) {
	n := sdl.GetNumAudioDevices(true)
	devices := make([]audio.Device, 0, n)
	for i := 0; i < n; i++ {
		d := audio.Device{
			Index: i,
			Name:  sdl.GetAudioDeviceName(i, true),

			// SDL does not expose channel capabilities before open.
			// stereo is a safe assumption for capture devices; the
			// obtained spec corrects it on open
			MaxInputChannels: 2,
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// DefaultDevice implements the audio.Backend interface. SDL selects the
// system default when a stream is opened with an empty device name, so
// the first enumerated device stands in here.
func (b *Backend) DefaultDevice() (audio.Device, bool) {
	devices, _ := b.Devices()
	if len(devices) == 0 {
		return audio.Device{}, false
	}
	return devices[0], true
}

// SupportsLoopback implements the audio.Backend interface.
func (b *Backend) SupportsLoopback() bool {
	return false
}

// Start implements the audio.Backend interface.
func (b *Backend) Start(cfg audio.StreamConfig, fn audio.BlockFunc) error {
	want := sdl.AudioSpec{
		Freq:     int32(cfg.Rate),
		Format:   sdl.AUDIO_F32SYS,
		Channels: uint8(cfg.Channels),
		Samples:  uint16(cfg.Blocksize),
	}

	dev, err := sdl.OpenAudioDevice(cfg.Device.Name, true, &want, &b.spec, 0)
	if err != nil {
		return curated.Errorf(audio.StreamError, err)
	}
	b.dev = dev

	b.stop = make(chan struct{})
	b.done = make(chan struct{})

	sdl.PauseAudioDevice(b.dev, false)
	b.started = true

	// pull queued audio at roughly the block cadence
	interval := time.Duration(cfg.Blocksize) * time.Second / time.Duration(cfg.Rate)
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	go func() {
		defer close(b.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()

		for {
			select {
			case <-b.stop:
				return
			case <-tick.C:
				queued := sdl.GetQueuedAudioSize(b.dev)
				if queued == 0 {
					continue
				}
				raw := make([]byte, queued)
				if err := sdl.DequeueAudio(b.dev, raw); err != nil {
					logger.Logf("sdlcapture", "dequeue: %v", err)
					continue
				}
				fn(bytesToFloat32(raw))
			}
		}
	}()

	logger.Logf("sdlcapture", "opened '%s' (%d Hz, %d ch)", cfg.Device.Name, b.spec.Freq, b.spec.Channels)
	return nil
}

// Stop implements the audio.Backend interface.
func (b *Backend) Stop() error {
	if !b.started {
		return nil
	}
	b.started = false

	sdl.PauseAudioDevice(b.dev, true)
	close(b.stop)
	<-b.done
	sdl.CloseAudioDevice(b.dev)
	return nil
}

func bytesToFloat32(raw []byte) []float32 {
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples
}
