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

// Package session assembles the producers around a single event sink
// and runs them as one recording session. A producer whose backend is
// absent is omitted and recorded as such; a failing sink ends the
// session.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playcap/playcap/audio"
	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/gamepad"
	"github.com/playcap/playcap/input"
	"github.com/playcap/playcap/logger"
	"github.com/playcap/playcap/metrics"
	"github.com/playcap/playcap/paths"
	"github.com/playcap/playcap/screen"
	"github.com/playcap/playcap/sink"
	"github.com/playcap/playcap/system"
)

// Producer is the lifecycle every capture component implements.
type Producer interface {
	ID() string
	Start() error
	Stop()
}

// Backends collects the hardware implementations handed to the
// orchestrator. Any field may be nil; the matching producer is then
// omitted from the session.
type Backends struct {
	Screen   screen.Backend
	Resolver screen.Resolver
	Audio    audio.Backend
	Gamepad  gamepad.Backend
	Input    input.Backend
	Gpu      []system.GpuBackend
}

// State of an Orchestrator. The machine is Created -> Running ->
// Stopped, with Stopped terminal.
type State int

// List of valid State values.
const (
	Created State = iota
	Running
	Stopped
)

// Orchestrator owns the session lifecycle: the sink, the shared clock
// and every producer.
type Orchestrator struct {
	cfg      Config
	backends Backends

	clk *events.Clock
	snk *sink.Sink
	dir string

	meta events.SessionMeta

	producers  []Producer
	screenProd *screen.Producer

	status struct {
		crit sync.Mutex
		m    map[string]string
	}

	crit  sync.Mutex
	state State

	stopOnce sync.Once

	// closed when something inside the session wants it to end: the
	// stop hotkey or a sink fault. the process entry point watches this
	// alongside OS signals
	request     chan struct{}
	requestOnce sync.Once
}

// NewOrchestrator is the preferred method of initialisation for the
// Orchestrator type.
func NewOrchestrator(cfg Config, backends Backends) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		backends: backends,
		clk:      &events.Clock{},
		request:  make(chan struct{}),
	}
	o.status.m = make(map[string]string)
	return o
}

// StopRequested is closed when the session asks to end from the inside:
// the stop hotkey was pressed or the sink failed.
func (o *Orchestrator) StopRequested() <-chan struct{} {
	return o.request
}

func (o *Orchestrator) requestStop() {
	o.requestOnce.Do(func() {
		close(o.request)
	})
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.crit.Lock()
	defer o.crit.Unlock()
	return o.state
}

// Dir returns the session directory. Valid after Start().
func (o *Orchestrator) Dir() string {
	return o.dir
}

// Start validates the configuration, opens the sink and starts every
// enabled producer. Producers whose backend is unavailable are omitted,
// never fatal. Start can only be called on a Created session.
func (o *Orchestrator) Start() error {
	o.crit.Lock()
	if o.state != Created {
		o.crit.Unlock()
		return curated.Errorf(ConfigurationError, "session already started")
	}
	o.state = Running
	o.crit.Unlock()

	// a failed start rolls the state back to Created so that a later
	// Stop(), from a signal handler for instance, is a quiet no-op
	fail := func(err error) error {
		o.crit.Lock()
		o.state = Created
		o.crit.Unlock()
		return err
	}

	if err := o.cfg.Validate(); err != nil {
		return fail(err)
	}

	dir, err := paths.SessionDir(o.cfg.Name)
	if err != nil {
		return fail(curated.Errorf(ConfigurationError, err))
	}
	o.dir = dir

	snk, err := sink.New(filepath.Join(dir, "events.jsonl"), o.cfg.FlushEvery)
	if err != nil {
		return fail(err)
	}
	o.snk = snk

	o.clk.Start()
	o.meta = events.NewSessionMeta(o.cfg.Name, o.cfg.Game, o.cfg.Notes)

	// the session description is the first record in the event log
	err = snk.Write(events.New(o.clk, events.KindMeta, o.cfg.Name, map[string]any{
		"session_meta": o.meta,
	}))
	if err != nil {
		snk.Close()
		return fail(err)
	}

	if err := o.writeMetaFile("running"); err != nil {
		snk.Close()
		return fail(err)
	}

	if o.cfg.MetricsAddr != "" {
		metrics.Serve(o.cfg.MetricsAddr)
	}

	o.startProducers()

	logger.Logf("session", "'%s' recording to %s", o.cfg.Name, dir)
	return nil
}

// startProducers constructs and starts each enabled producer. A missing
// backend or a DeviceUnavailable error records an omission; any other
// start error records a failure. Neither stops the session.
func (o *Orchestrator) startProducers() {
	onFatal := func(err error) {
		logger.Logf("session", "sink fault: %v", err)
		o.requestStop()
	}

	if o.cfg.Screen.Enabled {
		p, err := screen.NewProducer(screen.Config{
			Session: o.cfg.Name,
			Dir:     o.dir,
			FPS:     o.cfg.Screen.FPS,
			Region:  o.cfg.Screen.Region.Region(),
		}, o.clk, o.snk, o.backends.Screen, o.backends.Resolver)
		if err == nil {
			p.OnFatal = onFatal
			o.screenProd = p
			o.startProducer(p)
		} else {
			o.noteOmission("screen", err)
		}
	} else {
		o.noteDisabled("screen")
	}

	if o.cfg.Audio.Enabled {
		p, err := audio.NewProducer(audio.Config{
			Session:       o.cfg.Name,
			Dir:           o.dir,
			Device:        o.cfg.Audio.Device,
			Rate:          o.cfg.Audio.Rate,
			Channels:      o.cfg.Audio.Channels,
			Blocksize:     o.cfg.Audio.Blocksize,
			ChunkDuration: o.cfg.Audio.ChunkDuration,
		}, o.clk, o.snk, o.backends.Audio)
		if err == nil {
			p.OnFatal = onFatal
			o.startProducer(p)
		} else {
			o.noteOmission("audio", err)
		}
	} else {
		o.noteDisabled("audio")
	}

	if o.cfg.Gamepad.Enabled {
		p, err := gamepad.NewPoller(gamepad.Config{
			Session:  o.cfg.Name,
			PollRate: o.cfg.Gamepad.PollRate,
		}, o.clk, o.snk, o.backends.Gamepad)
		if err == nil {
			o.startProducer(p)
		} else {
			o.noteOmission("gamepad", err)
		}
	} else {
		o.noteDisabled("gamepad")
	}

	if o.cfg.System.Enabled {
		p := system.NewProducer(system.Config{
			Session: o.cfg.Name,
			Period:  time.Duration(o.cfg.System.PeriodSeconds * float64(time.Second)),
			PerCore: o.cfg.System.PerCore,
		}, o.clk, o.snk, o.backends.Gpu...)
		o.startProducer(p)
	} else {
		o.noteDisabled("system")
	}

	if o.cfg.Input.Enabled {
		p, err := input.NewProducer(input.Config{
			Session: o.cfg.Name,
		}, o.clk, o.snk, o.backends.Input)
		if err == nil {
			o.bindHotkeys(p)
			o.startProducer(p)
		} else {
			o.noteOmission("input", err)
		}
	} else {
		o.noteDisabled("input")
	}

	// the meta file carries the per-producer outcome
	if err := o.writeMetaFile("running"); err != nil {
		logger.Logf("session", "meta file: %v", err)
	}
}

func (o *Orchestrator) bindHotkeys(p *input.Producer) {
	if key := o.cfg.Input.RetargetKey; key != "" {
		p.Bind(key, func(ev input.Event) {
			if o.screenProd != nil {
				o.screenProd.Retarget(ev.X, ev.Y)
			}
		})
	}
	if key := o.cfg.Input.StopKey; key != "" {
		p.Bind(key, func(input.Event) {
			logger.Log("session", "stop requested from hotkey")
			o.requestStop()
		})
	}
}

// unavailability patterns that downgrade a producer start failure to an
// omission. anything else is a genuine failure, still non-fatal to the
// rest of the session.
var omissionPatterns = []string{
	screen.DeviceUnavailable,
	audio.DeviceUnavailable,
	audio.DeviceResolutionError,
	gamepad.DeviceUnavailable,
	input.DeviceUnavailable,
}

func (o *Orchestrator) startProducer(p Producer) {
	if err := p.Start(); err != nil {
		for _, pattern := range omissionPatterns {
			if curated.Has(err, pattern) {
				o.noteOmission(p.ID(), err)
				return
			}
		}
		o.noteStatus(p.ID(), "failed: "+err.Error())
		logger.Logf("session", "%s failed: %v", p.ID(), err)
		return
	}
	o.producers = append(o.producers, p)
	o.noteStatus(p.ID(), "started")
}

func (o *Orchestrator) noteOmission(id string, err error) {
	o.noteStatus(id, "omitted: "+err.Error())
	logger.Logf("session", "%s omitted: %v", id, err)
}

func (o *Orchestrator) noteDisabled(id string) {
	o.noteStatus(id, "disabled")
}

func (o *Orchestrator) noteStatus(id string, status string) {
	o.status.crit.Lock()
	defer o.status.crit.Unlock()
	o.status.m[id] = status
}

// Status reports the per-producer outcome: started, disabled, omitted
// or failed.
func (o *Orchestrator) Status() map[string]string {
	o.status.crit.Lock()
	defer o.status.crit.Unlock()
	m := make(map[string]string, len(o.status.m))
	for k, v := range o.status.m {
		m[k] = v
	}
	return m
}

// Stop ends every producer and closes the sink exactly once. Safe to
// call repeatedly and concurrently, from signal handlers and from
// normal shutdown.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.crit.Lock()
		running := o.state == Running
		o.state = Stopped
		o.crit.Unlock()

		if !running {
			return
		}

		// producers are stopped in reverse start order so the input
		// hook (and with it the terminal state) is restored first
		for i := len(o.producers) - 1; i >= 0; i-- {
			o.producers[i].Stop()
		}

		if o.snk != nil {
			if err := o.snk.Close(); err != nil {
				logger.Logf("session", "sink close: %v", err)
			}
		}

		if err := o.writeMetaFile("stopped"); err != nil {
			logger.Logf("session", "meta file: %v", err)
		}

		logger.Logf("session", "'%s' stopped", o.cfg.Name)
	})
}

// metaFile is the on-disk session document, rewritten on every
// lifecycle transition.
type metaFile struct {
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	CreatedTSMS int64             `json:"created_ts_ms"`
	Game        string            `json:"game,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Producers   map[string]string `json:"producers,omitempty"`
	Config      Config            `json:"config"`
}

func (o *Orchestrator) writeMetaFile(status string) error {
	doc := metaFile{
		Name:        o.meta.Name,
		Status:      status,
		CreatedTSMS: o.meta.CreatedTSMS,
		Game:        o.meta.Game,
		Notes:       o.meta.Notes,
		Producers:   o.Status(),
		Config:      o.cfg,
	}

	d, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	d = append(d, '\n')

	return os.WriteFile(filepath.Join(o.dir, "session.json"), d, 0o600)
}
