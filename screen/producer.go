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

// Package screen captures frames at a target cadence, crops each one to
// the current capture region and writes it as a numbered PNG. The
// region can be retargeted mid-session from a hotkey without tearing a
// frame between the old and new rectangles.
package screen

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
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

// Error patterns raised by the screen producer.
const (
	// DeviceUnavailable indicates the backend is missing. The producer
	// is omitted from the session.
	DeviceUnavailable = "screen: device unavailable: %v"

	// StreamError indicates a capture fault. The capture loop terminates
	// cleanly rather than hot-looping on a broken grabber.
	StreamError = "screen: %v"
)

// Config for the screen producer. Constructed once by the orchestrator
// and never mutated after Start().
type Config struct {
	Session string
	Dir     string // session directory. frames go in a frames/ subdirectory

	FPS int // default 30

	// initial capture region. nil means full frame
	Region *Region

	// bound on waiting for the capture goroutine at stop
	JoinTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = 5 * time.Second
	}
}

// Producer captures frames through a Backend and emits one frame event
// per stored image.
type Producer struct {
	cfg      Config
	clk      *events.Clock
	wrt      events.Writer
	backend  Backend
	resolver Resolver

	dir string

	// the capture region is the only state shared with the retarget
	// handler. the capture loop reads it once per iteration so a
	// retarget mid-frame never applies to a frame already captured
	crit   sync.Mutex
	region *Region

	stop chan struct{}
	done chan struct{}

	seq int

	// OnFatal is invoked when the sink cannot be written. Sink faults
	// are session-fatal and must surface to the orchestrator.
	OnFatal func(error)

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// NewProducer is the preferred method of initialisation for the screen
// Producer type. A nil backend is rejected with DeviceUnavailable. A
// nil resolver is allowed; retarget requests are then refused.
func NewProducer(cfg Config, clk *events.Clock, wrt events.Writer, backend Backend, resolver Resolver) (*Producer, error) {
	if backend == nil {
		return nil, curated.Errorf(DeviceUnavailable, "no screen backend")
	}
	cfg.setDefaults()
	return &Producer{
		cfg:      cfg,
		clk:      clk,
		wrt:      wrt,
		backend:  backend,
		resolver: resolver,
		region:   cfg.Region,
	}, nil
}

// ID implements the session.Producer interface.
func (p *Producer) ID() string {
	return "screen"
}

// Start acquires the grabber and begins the capture loop.
func (p *Producer) Start() error {
	var err error
	p.startOnce.Do(func() {
		err = p.start()
	})
	return err
}

func (p *Producer) start() error {
	p.dir = filepath.Join(p.cfg.Dir, "frames")
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return curated.Errorf(DeviceUnavailable, err)
	}

	if err := p.backend.Start(); err != nil {
		return curated.Errorf(StreamError, err)
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop()

	p.started = true
	logger.Logf("screen", "capturing at %d fps (region=%v)", p.cfg.FPS, p.currentRegion())
	p.emitMeta("started")
	return nil
}

func (p *Producer) loop() {
	defer close(p.done)

	interval := time.Second / time.Duration(p.cfg.FPS)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		began := time.Now()

		if err := p.captureOnce(); err != nil {
			if curated.Has(err, sink.WriterIOError) {
				logger.Logf("screen", "sink fault: %v", err)
				if p.OnFatal != nil {
					p.OnFatal(err)
				}
			} else {
				// a capture fault ends this producer only. retrying
				// indefinitely would spin on a broken grabber
				logger.Logf("screen", "%v", err)
				p.emitFault(err)
			}
			return
		}

		// sleep off the remainder of the frame interval. when capture
		// overran the interval there is nothing to sleep off and the
		// next frame starts immediately
		if remaining := interval - time.Since(began); remaining > 0 {
			select {
			case <-p.stop:
				return
			case <-time.After(remaining):
			}
		}
	}
}

// captureOnce grabs a single frame against the region held at the start
// of the call. A retarget arriving while the frame is in flight applies
// from the next call.
func (p *Producer) captureOnce() error {
	region := p.currentRegion()

	img, err := p.backend.Read()
	if err != nil {
		return curated.Errorf(StreamError, err)
	}
	if img == nil {
		// no frame ready
		return nil
	}

	if region != nil {
		img = crop(img, region.Rect())
	}

	return p.persistFrame(img)
}

// persistFrame writes one frame file and emits the describing event.
// The frame index starts at 0 and never skips or repeats.
func (p *Producer) persistFrame(img *image.RGBA) error {
	name := fmt.Sprintf("frame_%06d.png", p.seq)
	path := filepath.Join(p.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return curated.Errorf(StreamError, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return curated.Errorf(StreamError, err)
	}
	if err := f.Close(); err != nil {
		return curated.Errorf(StreamError, err)
	}

	bounds := img.Bounds()
	data := map[string]any{
		"seq":    p.seq,
		"path":   name,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	}

	if err := p.wrt.Write(events.New(p.clk, events.KindFrame, p.cfg.Session, data)); err != nil {
		return err
	}

	metrics.FramesCaptured.Inc()
	p.seq++
	return nil
}

// crop copies the intersection of img and rect into a new image whose
// bounds start at the origin.
func crop(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

// Retarget aims the capture region at the window under the given screen
// coordinate. The replacement is atomic: frames already captured keep
// the old region, frames captured after this call use the new one.
func (p *Producer) Retarget(x int, y int) {
	if p.resolver == nil {
		logger.Log("screen", "retarget requested but no resolver is available")
		return
	}

	region, err := p.resolver.RegionAt(x, y)
	if err != nil {
		logger.Logf("screen", "retarget: %v", err)
		return
	}
	if !region.Valid() {
		logger.Logf("screen", "retarget: degenerate region %v", region)
		return
	}

	p.crit.Lock()
	p.region = &region
	p.crit.Unlock()

	logger.Logf("screen", "retargeted to %v", region)

	data := map[string]any{
		"screen": map[string]any{
			"state":  "retargeted",
			"region": region.data(),
		},
	}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("screen", "meta event: %v", err)
	}
}

func (p *Producer) currentRegion() *Region {
	p.crit.Lock()
	defer p.crit.Unlock()
	return p.region
}

// Stop ends the capture loop and releases the grabber. Safe to call
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
			logger.Log("screen", "capture did not stop in time; abandoning")
			return
		}

		p.backend.Stop()
		p.emitMeta("stopped")
	})
}

func (p *Producer) emitMeta(state string) {
	data := map[string]any{
		"screen": map[string]any{
			"state":  state,
			"fps":    p.cfg.FPS,
			"frames": p.seq,
		},
	}
	if region := p.currentRegion(); region != nil {
		data["screen"].(map[string]any)["region"] = region.data()
	}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("screen", "meta event: %v", err)
		if p.OnFatal != nil {
			p.OnFatal(err)
		}
	}
}

func (p *Producer) emitFault(fault error) {
	data := map[string]any{
		"screen": map[string]any{"error": fault.Error()},
	}
	if err := p.wrt.Write(events.New(p.clk, events.KindMeta, p.cfg.Session, data)); err != nil {
		logger.Logf("screen", "meta event: %v", err)
	}
}
