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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/logger"
	"github.com/playcap/playcap/metrics"
	"github.com/playcap/playcap/sink"
)

// Config for the audio producer. Constructed once by the orchestrator
// and never mutated after Start().
type Config struct {
	Session string
	Dir     string // session directory. chunks go in an audio/ subdirectory

	// device specifier: empty for default, an index, or a name substring
	Device string

	Rate          int     // default 48000
	Channels      int     // 0 derives from the device
	Blocksize     int     // frames per block requested from the backend
	ChunkDuration float64 // seconds per chunk, default 1.0

	// capacity of the callback-to-assembly hand-off queue in blocks. a
	// full queue drops the incoming block and reports the loss
	QueueDepth int

	// bound on waiting for the assembly goroutine at stop
	JoinTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Rate <= 0 {
		c.Rate = 48000
	}
	if c.Blocksize <= 0 {
		c.Blocksize = 2048
	}
	if c.ChunkDuration < 0.1 {
		c.ChunkDuration = 1.0
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = 64
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = 5 * time.Second
	}
}

// Producer captures system audio through a Backend, reassembles the
// backend's variable-length sample blocks into fixed-duration WAV
// chunks, and emits one audio event per chunk.
type Producer struct {
	cfg     Config
	clk     *events.Clock
	wrt     events.Writer
	backend Backend

	// set by Start()
	resolved    Resolved
	chunkFrames int
	dir         string

	// hand-off from the backend callback to the assembly goroutine. the
	// callback never blocks on this channel
	queue chan []float32

	stop chan struct{}
	done chan struct{}

	seq int

	status struct {
		crit     sync.Mutex
		messages []string
		dropped  int
	}

	// OnFatal is invoked when the sink cannot be written. Sink faults
	// are session-fatal and must surface to the orchestrator.
	OnFatal func(error)

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewProducer is the preferred method of initialisation for the audio
// Producer type. A nil backend is rejected with DeviceUnavailable.
func NewProducer(cfg Config, clk *events.Clock, wrt events.Writer, backend Backend) (*Producer, error) {
	if backend == nil {
		return nil, curated.Errorf(DeviceUnavailable, "no audio backend")
	}
	cfg.setDefaults()
	return &Producer{
		cfg:     cfg,
		clk:     clk,
		wrt:     wrt,
		backend: backend,
	}, nil
}

// ID implements the session.Producer interface.
func (p *Producer) ID() string {
	return "audio"
}

// Start resolves the capture device and begins the stream. The sample
// chunk length is round(rate * chunk duration) frames.
func (p *Producer) Start() error {
	var err error
	p.startOnce.Do(func() {
		err = p.start()
	})
	return err
}

func (p *Producer) start() error {
	resolved, err := Resolve(p.backend, p.cfg.Device, p.cfg.Channels)
	if err != nil {
		return err
	}
	p.resolved = resolved
	p.chunkFrames = int(math.Round(float64(p.cfg.Rate) * p.cfg.ChunkDuration))
	if p.chunkFrames < 1 {
		p.chunkFrames = 1
	}

	p.dir = filepath.Join(p.cfg.Dir, "audio")
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return curated.Errorf(DeviceUnavailable, err)
	}

	p.queue = make(chan []float32, p.cfg.QueueDepth)
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go p.assemble()

	err = p.backend.Start(StreamConfig{
		Device:    resolved.Device,
		Loopback:  resolved.Loopback,
		Rate:      p.cfg.Rate,
		Channels:  resolved.Channels,
		Blocksize: p.cfg.Blocksize,
	}, p.deliver)
	if err != nil {
		close(p.stop)
		<-p.done
		return curated.Errorf(StreamError, err)
	}

	p.started = true
	logger.Logf("audio", "capturing '%s' (%d ch, %d Hz, loopback=%v)",
		resolved.Device.Name, resolved.Channels, p.cfg.Rate, resolved.Loopback)
	p.emitMeta("started")
	return nil
}

// deliver is the backend callback. It runs on a backend-owned thread
// and must never block; a full hand-off queue drops the block.
func (p *Producer) deliver(block []float32) {
	b := make([]float32, len(block))
	copy(b, block)

	select {
	case p.queue <- b:
		metrics.QueueLength.Set(float64(len(p.queue)))
	default:
		metrics.AudioBlocksDropped.Inc()
		p.noteDrop()
	}
}

func (p *Producer) assemble() {
	defer close(p.done)

	chunks := newChunker(p.resolved.Channels, p.chunkFrames)

	flush := func(samples []float32) bool {
		if len(samples) == 0 {
			return true
		}
		if err := p.persistChunk(samples); err != nil {
			if curated.Has(err, sink.WriterIOError) {
				logger.Logf("audio", "sink fault: %v", err)
				if p.OnFatal != nil {
					p.OnFatal(err)
				}
			} else {
				logger.Logf("audio", "chunk write: %v", err)
				p.noteStatus(err.Error())
			}
			return false
		}
		return true
	}

	for {
		select {
		case block := <-p.queue:
			chunks.add(block)
			for chunks.full() {
				if !flush(chunks.pop(p.chunkFrames)) {
					return
				}
			}

		case <-p.stop:
			// the stream has already been stopped. drain whatever the
			// callback managed to queue, then flush the remainder as a
			// final, possibly shorter, chunk
			for {
				select {
				case block := <-p.queue:
					chunks.add(block)
					continue
				default:
				}
				break
			}
			for chunks.full() {
				if !flush(chunks.pop(p.chunkFrames)) {
					return
				}
			}
			flush(chunks.drain())
			return
		}
	}
}

// persistChunk writes one chunk file and emits the describing event.
// The chunk descriptor seq starts at 0 and never skips or repeats.
func (p *Producer) persistChunk(samples []float32) error {
	name := fmt.Sprintf("audio_%06d.wav", p.seq)
	path := filepath.Join(p.dir, name)

	if err := writeWAV(path, samples, p.cfg.Rate, p.resolved.Channels); err != nil {
		return err
	}

	data := map[string]any{
		"seq":      p.seq,
		"path":     name,
		"samples":  len(samples) / p.resolved.Channels,
		"rate":     p.cfg.Rate,
		"channels": p.resolved.Channels,
	}
	if msgs := p.drainStatus(); len(msgs) > 0 {
		data["status"] = msgs
	}

	if err := p.wrt.Write(events.New(p.clk, events.KindAudio, p.cfg.Session, data)); err != nil {
		return err
	}

	p.seq++
	return nil
}

// Stop ends the capture stream, flushes pending samples and joins the
// assembly goroutine with a bounded timeout. Safe to call more than
// once.
func (p *Producer) Stop() {
	p.stopOnce.Do(func() {
		if !p.started {
			return
		}

		// order matters: stop the live stream before draining so no new
		// blocks arrive while the final chunk is assembled
		if err := p.backend.Stop(); err != nil {
			logger.Logf("audio", "backend stop: %v", err)
		}

		close(p.stop)
		select {
		case <-p.done:
		case <-time.After(p.cfg.JoinTimeout):
			logger.Log("audio", "assembly did not stop in time; abandoning")
		}

		p.emitMeta("stopped")
	})
}

func (p *Producer) emitMeta(state string) {
	p.status.crit.Lock()
	dropped := p.status.dropped
	p.status.crit.Unlock()

	data := map[string]any{
		"audio": map[string]any{
			"state":          state,
			"device":         p.resolved.Device.Name,
			"samplerate":     p.cfg.Rate,
			"channels":       p.resolved.Channels,
			"loopback":       p.resolved.Loopback,
			"chunk_frames":   p.chunkFrames,
			"blocksize":      p.cfg.Blocksize,
			"dropped_blocks": dropped,
		},
	}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("audio", "meta event: %v", err)
		if p.OnFatal != nil {
			p.OnFatal(err)
		}
	}
}

// status messages are drained and attached to the next emitted event,
// then cleared. they are never retained indefinitely.

const maxStatusMessages = 32

func (p *Producer) noteStatus(msg string) {
	p.status.crit.Lock()
	defer p.status.crit.Unlock()
	if len(p.status.messages) < maxStatusMessages {
		p.status.messages = append(p.status.messages, msg)
	}
}

func (p *Producer) noteDrop() {
	p.status.crit.Lock()
	defer p.status.crit.Unlock()
	p.status.dropped++
	if len(p.status.messages) == 0 || p.status.messages[len(p.status.messages)-1] != "hand-off queue full: block dropped" {
		if len(p.status.messages) < maxStatusMessages {
			p.status.messages = append(p.status.messages, "hand-off queue full: block dropped")
		}
	}
}

func (p *Producer) drainStatus() []string {
	p.status.crit.Lock()
	defer p.status.crit.Unlock()
	if len(p.status.messages) == 0 {
		return nil
	}
	msgs := p.status.messages
	p.status.messages = nil
	return msgs
}
