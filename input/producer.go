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

// Package input records keyboard and pointer activity delivered by a
// push-style backend. Individual keys can be bound to session control
// actions (stop recording, retarget the capture region); bound keys
// trigger their action and are recorded like any other event.
package input

import (
	"sync"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/logger"
)

// DeviceUnavailable indicates the backend is missing or cannot hook the
// input devices. The producer is omitted from the session.
const DeviceUnavailable = "input: device unavailable: %v"

// Event is one input transition as delivered by the backend.
type Event struct {
	Kind string // "key" or "pointer"
	Key  string
	Down bool

	// pointer position in absolute screen coordinates, if known
	X int
	Y int
}

// Backend is the capability interface required from an input hook.
// Events are pushed to the callback from a backend-owned goroutine.
// Absence of a backend is non-fatal to the session.
type Backend interface {
	Start(fn func(Event)) error
	Stop()
}

// Config for the input producer.
type Config struct {
	Session string
}

// Producer records input events and dispatches hotkey actions.
type Producer struct {
	cfg     Config
	clk     *events.Clock
	wrt     events.Writer
	backend Backend

	// bindings are registered before Start() and never change while the
	// backend is running
	bindings map[string]func(Event)

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewProducer is the preferred method of initialisation for the input
// Producer type. A nil backend is rejected with DeviceUnavailable.
func NewProducer(cfg Config, clk *events.Clock, wrt events.Writer, backend Backend) (*Producer, error) {
	if backend == nil {
		return nil, curated.Errorf(DeviceUnavailable, "no input backend")
	}
	return &Producer{
		cfg:      cfg,
		clk:      clk,
		wrt:      wrt,
		backend:  backend,
		bindings: make(map[string]func(Event)),
	}, nil
}

// ID implements the session.Producer interface.
func (p *Producer) ID() string {
	return "input"
}

// Bind attaches an action to a key. The action runs on the backend's
// delivery goroutine when the key goes down. Must be called before
// Start().
func (p *Producer) Bind(key string, action func(Event)) {
	p.bindings[key] = action
}

// Start hooks the input devices.
func (p *Producer) Start() error {
	var err error
	p.startOnce.Do(func() {
		if e := p.backend.Start(p.deliver); e != nil {
			err = curated.Errorf(DeviceUnavailable, e)
			return
		}
		p.started = true
		logger.Logf("input", "hooked (%d bindings)", len(p.bindings))
	})
	return err
}

// deliver is the backend callback.
func (p *Producer) deliver(ev Event) {
	data := map[string]any{
		"kind": ev.Kind,
		"key":  ev.Key,
		"down": ev.Down,
	}
	if ev.Kind == "pointer" {
		data["x"] = ev.X
		data["y"] = ev.Y
	}

	if err := p.wrt.Write(events.New(p.clk, events.KindInput, p.cfg.Session, data)); err != nil {
		logger.Logf("input", "input event: %v", err)
	}

	if ev.Kind == "key" && ev.Down {
		if action, ok := p.bindings[ev.Key]; ok {
			action(ev)
		}
	}
}

// Stop unhooks the input devices. Safe to call more than once.
func (p *Producer) Stop() {
	p.stopOnce.Do(func() {
		if !p.started {
			return
		}
		p.backend.Stop()
	})
}
