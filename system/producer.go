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

// Package system samples CPU, memory and GPU telemetry on a fixed
// period and emits one system event per tick. GPU figures come from a
// pluggable backend; without one the GPU section reads "unavailable"
// and everything else still works.
package system

import (
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/logger"
)

// DefaultPeriod between telemetry samples.
const DefaultPeriod = 2 * time.Second

// Config for the system producer.
type Config struct {
	Session string
	Period  time.Duration
	PerCore bool // include per-core CPU percentages

	// bound on waiting for the sampling goroutine at stop
	JoinTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = 2 * time.Second
	}
}

// Producer samples system telemetry on a fixed period.
type Producer struct {
	cfg Config
	clk *events.Clock
	wrt events.Writer

	// candidates in preference order. the selected backend, if any, is
	// recorded along with the reasons the earlier candidates failed
	candidates []GpuBackend
	gpu        GpuBackend
	gpuReasons []string

	stop chan struct{}
	done chan struct{}

	// identical error messages are reported at most once per session.
	// each distinct message triggers exactly one notice event
	seen struct {
		crit     sync.Mutex
		messages map[string]bool
	}

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewProducer is the preferred method of initialisation for the system
// Producer type. GPU candidates are tried in the order given; an empty
// list means no GPU telemetry.
func NewProducer(cfg Config, clk *events.Clock, wrt events.Writer, candidates ...GpuBackend) *Producer {
	cfg.setDefaults()
	p := &Producer{
		cfg:        cfg,
		clk:        clk,
		wrt:        wrt,
		candidates: candidates,
	}
	p.seen.messages = make(map[string]bool)
	return p
}

// ID implements the session.Producer interface.
func (p *Producer) ID() string {
	return "system"
}

// Start selects a GPU backend and begins the sampling loop. The static
// machine description is emitted once as a meta event before the first
// sample.
func (p *Producer) Start() error {
	p.startOnce.Do(func() {
		p.selectGpu()
		p.emitStatic()

		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.loop()

		p.started = true
		logger.Logf("system", "sampling every %v (gpu=%s)", p.cfg.Period, p.gpuName())
	})
	return nil
}

// selectGpu picks the first candidate whose Describe() succeeds.
// Candidates that fail are recorded with the reason.
func (p *Producer) selectGpu() {
	for _, c := range p.candidates {
		if c == nil {
			continue
		}
		if _, err := c.Describe(); err != nil {
			p.gpuReasons = append(p.gpuReasons, c.Name()+": "+err.Error())
			logger.Logf("system", "gpu backend %s unavailable: %v", c.Name(), err)
			continue
		}
		p.gpu = c
		return
	}
}

func (p *Producer) gpuName() string {
	if p.gpu == nil {
		return "unavailable"
	}
	return p.gpu.Name()
}

// emitStatic describes the machine once, at session start.
func (p *Producer) emitStatic() {
	physical, err := cpu.Counts(false)
	if err != nil {
		p.notice("cpu counts: " + err.Error())
	}
	logical, err := cpu.Counts(true)
	if err != nil {
		p.notice("cpu counts: " + err.Error())
	}

	detail := map[string]any{
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
		"cores":         physical,
		"logical_cores": logical,
		"gpu_backend":   p.gpuName(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		detail["total_memory"] = vm.Total
	} else {
		p.notice("memory: " + err.Error())
	}

	if p.gpu != nil {
		if desc, err := p.gpu.Describe(); err == nil {
			detail["gpu"] = desc
		}
	} else if len(p.gpuReasons) > 0 {
		detail["gpu_unavailable"] = p.gpuReasons
	}

	data := map[string]any{"system": detail}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("system", "meta event: %v", err)
	}
}

func (p *Producer) loop() {
	defer close(p.done)

	tick := time.NewTicker(p.cfg.Period)
	defer tick.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-tick.C:
			if err := p.sampleOnce(); err != nil {
				logger.Logf("system", "sample event: %v", err)
				return
			}
		}
	}
}

// sampleOnce gathers one full telemetry snapshot and emits it. Sampling
// errors degrade the affected section and are reported once; only a
// sink write failure returns an error.
func (p *Producer) sampleOnce() error {
	data := map[string]any{
		"cpu":    p.sampleCpu(),
		"memory": p.sampleMemory(),
		"gpu":    p.sampleGpu(),
	}
	return p.wrt.Write(events.New(p.clk, events.KindSystem, p.cfg.Session, data))
}

func (p *Producer) sampleCpu() map[string]any {
	detail := map[string]any{}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		detail["percent"] = pct[0]
	} else if err != nil {
		p.notice("cpu percent: " + err.Error())
	}

	if p.cfg.PerCore {
		if pct, err := cpu.Percent(0, true); err == nil {
			detail["per_core"] = pct
		} else {
			p.notice("cpu per-core: " + err.Error())
		}
	}

	// load averages are meaningless on windows and gopsutil returns an
	// error there. the notice fires once and the field stays absent
	if avg, err := load.Avg(); err == nil {
		detail["load"] = []float64{avg.Load1, avg.Load5, avg.Load15}
	} else {
		p.notice("load: " + err.Error())
	}

	if info, err := cpu.Info(); err == nil && len(info) > 0 && info[0].Mhz > 0 {
		detail["freq_mhz"] = info[0].Mhz
	}

	return detail
}

func (p *Producer) sampleMemory() map[string]any {
	detail := map[string]any{}

	if vm, err := mem.VirtualMemory(); err == nil {
		detail["total"] = vm.Total
		detail["used"] = vm.Used
		detail["available"] = vm.Available
		detail["percent"] = vm.UsedPercent
	} else {
		p.notice("memory: " + err.Error())
	}

	if sw, err := mem.SwapMemory(); err == nil && sw.Total > 0 {
		detail["swap_total"] = sw.Total
		detail["swap_used"] = sw.Used
		detail["swap_percent"] = sw.UsedPercent
	}

	return detail
}

func (p *Producer) sampleGpu() any {
	if p.gpu == nil {
		return "unavailable"
	}
	sample, err := p.gpu.Sample()
	if err != nil {
		p.notice("gpu: " + err.Error())
		return "unavailable"
	}
	return sample
}

// notice reports a sampling error. The first occurrence of a message
// logs and emits a meta event; repeats are dropped so a permanently
// failing source cannot flood the session.
func (p *Producer) notice(msg string) {
	p.seen.crit.Lock()
	repeat := p.seen.messages[msg]
	p.seen.messages[msg] = true
	p.seen.crit.Unlock()

	if repeat {
		return
	}

	logger.Log("system", msg)
	data := map[string]any{
		"system": map[string]any{"notice": msg},
	}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("system", "meta event: %v", err)
	}
}

// Stop ends the sampling loop and closes the GPU backend. Safe to call
// more than once.
func (p *Producer) Stop() {
	p.stopOnce.Do(func() {
		if !p.started {
			return
		}

		close(p.stop)
		select {
		case <-p.done:
		case <-time.After(p.cfg.JoinTimeout):
			logger.Log("system", "sampling did not stop in time; abandoning")
		}

		if p.gpu != nil {
			p.gpu.Close()
		}
	})
}
