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

// Package gamepad polls controller state at a fixed cadence and emits
// an event only when the state changes. A controller held at idle
// produces zero events; the deadzone constants make sure analog noise
// does not defeat that.
package gamepad

import (
	"sync"
	"time"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/logger"
	"github.com/playcap/playcap/metrics"
)

// Error patterns raised by the gamepad poller.
const (
	// DeviceUnavailable indicates the backend is missing. The producer
	// is omitted from the session.
	DeviceUnavailable = "gamepad: device unavailable: %v"

	// StreamError indicates a hardware fault while polling. The polling
	// loop terminates cleanly; other producers are unaffected.
	StreamError = "gamepad: %v"
)

// DefaultPollRate is polls per second when no rate is configured.
const DefaultPollRate = 125

// Config for the gamepad poller.
type Config struct {
	Session  string
	PollRate int // polls per second

	// bound on waiting for the polling goroutine at stop
	JoinTimeout time.Duration
}

// Poller reads controller state at a fixed cadence through a Backend.
type Poller struct {
	cfg     Config
	clk     *events.Clock
	wrt     events.Writer
	backend Backend

	// per-slot cache of the last emitted snapshot. a slot with no entry
	// has never been seen connected
	slots map[int]*slotState

	stop chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

type slotState struct {
	dev  Device
	last Snapshot
}

// NewPoller is the preferred method of initialisation for the Poller
// type. A nil backend is rejected with DeviceUnavailable.
func NewPoller(cfg Config, clk *events.Clock, wrt events.Writer, backend Backend) (*Poller, error) {
	if backend == nil {
		return nil, curated.Errorf(DeviceUnavailable, "no gamepad backend")
	}
	if cfg.PollRate <= 0 {
		cfg.PollRate = DefaultPollRate
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 2 * time.Second
	}
	return &Poller{
		cfg:     cfg,
		clk:     clk,
		wrt:     wrt,
		backend: backend,
		slots:   make(map[int]*slotState),
	}, nil
}

// ID implements the session.Producer interface.
func (p *Poller) ID() string {
	return "gamepad"
}

// Start begins the polling loop. 125 polls per second means a period of
// 8ms.
func (p *Poller) Start() error {
	p.startOnce.Do(func() {
		p.stop = make(chan struct{})
		p.done = make(chan struct{})

		period := time.Second / time.Duration(p.cfg.PollRate)

		go func() {
			defer close(p.done)

			tick := time.NewTicker(period)
			defer tick.Stop()

			for {
				select {
				case <-p.stop:
					return
				case <-tick.C:
					if err := p.pollOnce(); err != nil {
						// a hardware fault ends this producer only. the
						// fault is visible in the log and in a meta event
						logger.Logf("gamepad", "%v", err)
						p.emitFault(err)
						return
					}
				}
			}
		}()

		p.started = true
		logger.Logf("gamepad", "polling %d slots at %dHz", p.backend.NumSlots(), p.cfg.PollRate)
	})
	return nil
}

// pollOnce reads every slot and emits events for the slots whose state
// changed since the previous poll.
func (p *Poller) pollOnce() error {
	if err := p.backend.Pump(); err != nil {
		return curated.Errorf(StreamError, err)
	}

	for slot := 0; slot < p.backend.NumSlots(); slot++ {
		if err := p.pollSlot(slot); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) pollSlot(slot int) error {
	state, tracked := p.slots[slot]

	if tracked && !state.dev.Attached() {
		// disconnect always emits, regardless of previous change-state
		state.dev.Close()
		delete(p.slots, slot)
		return p.emit(slot, Snapshot{Connected: false, Buttons: map[string]bool{}})
	}

	if !tracked {
		dev, err := p.backend.Open(slot)
		if err != nil {
			return curated.Errorf(StreamError, err)
		}
		if dev == nil {
			// empty slot
			return nil
		}
		logger.Logf("gamepad", "slot %d: %s", slot, dev.Name())
		state = &slotState{dev: dev}
		p.slots[slot] = state

		// first poll after connect always emits: there is no prior
		// snapshot to compare against
		state.last = p.snapshot(state.dev)
		return p.emit(slot, state.last)
	}

	snap := p.snapshot(state.dev)
	if snap.Equal(state.last) {
		metrics.GamepadSuppressed.Inc()
		return nil
	}
	state.last = snap
	return p.emit(slot, snap)
}

func (p *Poller) snapshot(dev Device) Snapshot {
	buttons := make(map[string]bool, int(numButtons))
	for b := Button(0); b < numButtons; b++ {
		buttons[ButtonName(b)] = dev.Button(b)
	}

	return Snapshot{
		Connected: true,
		Buttons:   buttons,
		LT:        normalizeTrigger(dev.Axis(AxisLT)),
		RT:        normalizeTrigger(dev.Axis(AxisRT)),
		LX:        normalizeStick(dev.Axis(AxisLX)),
		LY:        normalizeStick(dev.Axis(AxisLY)),
		RX:        normalizeStick(dev.Axis(AxisRX)),
		RY:        normalizeStick(dev.Axis(AxisRY)),
	}
}

func (p *Poller) emit(slot int, snap Snapshot) error {
	return p.wrt.Write(events.New(p.clk, events.KindGamepad, p.cfg.Session, snap.data(slot)))
}

func (p *Poller) emitFault(fault error) {
	data := map[string]any{
		"gamepad": map[string]any{"error": fault.Error()},
	}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("gamepad", "meta event: %v", err)
	}
}

// Stop ends the polling loop and closes any open controllers. Safe to
// call more than once and from more than one goroutine.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if !p.started {
			return
		}

		close(p.stop)
		select {
		case <-p.done:
		case <-time.After(p.cfg.JoinTimeout):
			logger.Log("gamepad", "polling did not stop in time; abandoning")
			return
		}

		for slot, state := range p.slots {
			state.dev.Close()
			delete(p.slots, slot)
		}
	})
}
