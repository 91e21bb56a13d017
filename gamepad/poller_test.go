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

package gamepad

import (
	"errors"
	"sync"
	"testing"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/test"
)

type fakeDevice struct {
	name     string
	attached bool
	axes     map[Axis]int16
	buttons  map[Button]bool
}

func (d *fakeDevice) Attached() bool { return d.attached }
func (d *fakeDevice) Name() string   { return d.name }
func (d *fakeDevice) Close()         {}

func (d *fakeDevice) Axis(a Axis) int16 {
	return d.axes[a]
}

func (d *fakeDevice) Button(b Button) bool {
	return d.buttons[b]
}

type fakeBackend struct {
	devices []*fakeDevice
	pumpErr error
}

func (b *fakeBackend) NumSlots() int { return len(b.devices) }
func (b *fakeBackend) Pump() error   { return b.pumpErr }

func (b *fakeBackend) Open(slot int) (Device, error) {
	d := b.devices[slot]
	if d == nil || !d.attached {
		return nil, nil
	}
	return d, nil
}

type recordingWriter struct {
	events []events.Event
}

func (w *recordingWriter) Write(ev events.Event) error {
	w.events = append(w.events, ev)
	return nil
}

func (w *recordingWriter) byKind(kind events.Kind) []events.Event {
	var r []events.Event
	for _, ev := range w.events {
		if ev.Kind == kind {
			r = append(r, ev)
		}
	}
	return r
}

func testPoller(t *testing.T, backend Backend) (*Poller, *recordingWriter) {
	t.Helper()

	clk := &events.Clock{}
	clk.Start()
	wrt := &recordingWriter{}

	p, err := NewPoller(Config{Session: "test"}, clk, wrt, backend)
	test.ExpectedSuccess(t, err)
	return p, wrt
}

func TestPollerChangeSuppression(t *testing.T) {
	dev := &fakeDevice{
		name:     "Test Pad",
		attached: true,
		axes:     map[Axis]int16{},
		buttons:  map[Button]bool{},
	}
	p, wrt := testPoller(t, &fakeBackend{devices: []*fakeDevice{dev}})

	// first poll after connect always emits
	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 1)

	// an idle controller produces no further events
	for i := 0; i < 10; i++ {
		test.ExpectedSuccess(t, p.pollOnce())
	}
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 1)

	// one button transition emits exactly one event
	dev.buttons[ButtonA] = true
	test.ExpectedSuccess(t, p.pollOnce())
	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 2)

	ev := wrt.byKind(events.KindGamepad)[1]
	buttons := ev.Data["buttons"].(map[string]bool)
	test.Equate(t, buttons["a"], true)
	test.Equate(t, ev.Data["index"].(int), 0)
	test.Equate(t, ev.Data["connected"].(bool), true)
}

func TestPollerDeadzoneSuppression(t *testing.T) {
	dev := &fakeDevice{
		name:     "Test Pad",
		attached: true,
		axes:     map[Axis]int16{},
		buttons:  map[Button]bool{},
	}
	p, wrt := testPoller(t, &fakeBackend{devices: []*fakeDevice{dev}})

	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 1)

	// stick noise inside the deadzone normalizes to zero and therefore
	// does not count as a change
	dev.axes[AxisLX] = StickDeadzone - 1
	dev.axes[AxisLY] = -StickDeadzone + 1
	dev.axes[AxisLT] = TriggerDeadzone - 1
	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 1)

	// a real deflection does
	dev.axes[AxisLX] = 16384
	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 2)
}

func TestPollerDisconnect(t *testing.T) {
	dev := &fakeDevice{
		name:     "Test Pad",
		attached: true,
		axes:     map[Axis]int16{},
		buttons:  map[Button]bool{},
	}
	p, wrt := testPoller(t, &fakeBackend{devices: []*fakeDevice{dev}})

	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 1)

	// disconnect always emits, with connected=false
	dev.attached = false
	test.ExpectedSuccess(t, p.pollOnce())

	emitted := wrt.byKind(events.KindGamepad)
	test.Equate(t, len(emitted), 2)
	test.Equate(t, emitted[1].Data["connected"].(bool), false)

	// the slot is no longer tracked so nothing more is emitted
	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 2)

	// reconnect counts as a fresh first poll
	dev.attached = true
	test.ExpectedSuccess(t, p.pollOnce())
	test.Equate(t, len(wrt.byKind(events.KindGamepad)), 3)
}

func TestPollerPumpFault(t *testing.T) {
	backend := &fakeBackend{
		devices: []*fakeDevice{{attached: true, axes: map[Axis]int16{}, buttons: map[Button]bool{}}},
		pumpErr: errors.New("controller bus gone"),
	}
	p, _ := testPoller(t, backend)

	err := p.pollOnce()
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Has(err, StreamError), true)
}

func TestPollerConcurrentStop(t *testing.T) {
	p, _ := testPoller(t, &fakeBackend{})
	test.ExpectedSuccess(t, p.Start())

	// a second start is absorbed
	test.ExpectedSuccess(t, p.Start())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Stop()
		}()
	}
	wg.Wait()
	p.Stop()
}

func TestPollerNilBackend(t *testing.T) {
	clk := &events.Clock{}
	clk.Start()

	_, err := NewPoller(Config{}, clk, &recordingWriter{}, nil)
	test.ExpectedFailure(t, err)
	test.Equate(t, curated.Is(err, DeviceUnavailable), true)
}
