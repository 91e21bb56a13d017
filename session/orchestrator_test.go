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

package session

import (
	"bufio"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/playcap/playcap/input"
	"github.com/playcap/playcap/screen"
	"github.com/playcap/playcap/test"
)

type fakeGrabber struct{}

func (g *fakeGrabber) Start() error { return nil }
func (g *fakeGrabber) Stop()        {}

func (g *fakeGrabber) Read() (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 64, 48)), nil
}

type fakeResolver struct{}

func (r *fakeResolver) RegionAt(x, y int) (screen.Region, error) {
	return screen.Region{Left: 0, Top: 0, Right: 32, Bottom: 24}, nil
}

type fakeHook struct {
	fn func(input.Event)
}

func (h *fakeHook) Start(fn func(input.Event)) error {
	h.fn = fn
	return nil
}

func (h *fakeHook) Stop() {}

func testConfig(name string) Config {
	cfg := Default()
	cfg.Name = name

	// keep the fast loops quiet for the duration of the test
	cfg.Screen.FPS = 5
	cfg.Gamepad.PollRate = 10
	cfg.System.PeriodSeconds = 60

	return cfg
}

func testOrchestrator(t *testing.T, cfg Config, backends Backends) *Orchestrator {
	t.Helper()
	t.Setenv("PLAYCAP_DATA_ROOT", t.TempDir())
	return NewOrchestrator(cfg, backends)
}

func TestLifecycle(t *testing.T) {
	hook := &fakeHook{}
	o := testOrchestrator(t, testConfig("lifecycle"), Backends{
		Screen:   &fakeGrabber{},
		Resolver: &fakeResolver{},
		Input:    hook,
	})

	test.Equate(t, int(o.State()), int(Created))
	test.ExpectedSuccess(t, o.Start())
	test.Equate(t, int(o.State()), int(Running))

	// a second start is refused
	test.ExpectedFailure(t, o.Start())

	status := o.Status()
	test.Equate(t, status["screen"], "started")
	test.Equate(t, status["input"], "started")
	test.Equate(t, status["system"], "started")

	// audio and gamepad have no backend and are omitted, not fatal
	if !strings.HasPrefix(status["audio"], "omitted") {
		t.Errorf("audio should be omitted: %q", status["audio"])
	}
	if !strings.HasPrefix(status["gamepad"], "omitted") {
		t.Errorf("gamepad should be omitted: %q", status["gamepad"])
	}

	o.Stop()
	test.Equate(t, int(o.State()), int(Stopped))

	// the event log leads with the session description and every line
	// parses
	f, err := os.Open(filepath.Join(o.Dir(), "events.jsonl"))
	test.ExpectedSuccess(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		var record map[string]any
		test.ExpectedSuccess(t, json.Unmarshal(scanner.Bytes(), &record))
		if first {
			test.Equate(t, record["kind"].(string), "meta")
			first = false
		}
	}
	test.Equate(t, first, false)
}

func TestStopAfterFailedStart(t *testing.T) {
	// the default config has no name and is refused by Validate()
	o := testOrchestrator(t, Default(), Backends{})
	test.ExpectedFailure(t, o.Start())
	test.Equate(t, int(o.State()), int(Created))

	// shutdown after a refused start must not panic; the signal handler
	// calls Stop() without knowing whether Start() succeeded
	o.Stop()
	o.Stop()

	// the session is still startable once the configuration is repaired
	cfg := testConfig("repaired")
	o2 := testOrchestrator(t, cfg, Backends{})
	test.ExpectedSuccess(t, o2.Start())
	o2.Stop()
	test.Equate(t, int(o2.State()), int(Stopped))
}

func TestIdempotentStop(t *testing.T) {
	o := testOrchestrator(t, testConfig("stop-twice"), Backends{Screen: &fakeGrabber{}})
	test.ExpectedSuccess(t, o.Start())

	// stop from several goroutines at once. the sink must close exactly
	// once and nothing may panic
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Stop()
		}()
	}
	wg.Wait()
	o.Stop()

	test.Equate(t, int(o.State()), int(Stopped))
}

func TestMetaFileTransitions(t *testing.T) {
	o := testOrchestrator(t, testConfig("meta-file"), Backends{Screen: &fakeGrabber{}})
	test.ExpectedSuccess(t, o.Start())

	readStatus := func() string {
		d, err := os.ReadFile(filepath.Join(o.Dir(), "session.json"))
		test.ExpectedSuccess(t, err)
		var doc map[string]any
		test.ExpectedSuccess(t, json.Unmarshal(d, &doc))
		return doc["status"].(string)
	}

	test.Equate(t, readStatus(), "running")
	o.Stop()
	test.Equate(t, readStatus(), "stopped")
}

func TestStopHotkey(t *testing.T) {
	hook := &fakeHook{}
	cfg := testConfig("hotkey")
	o := testOrchestrator(t, cfg, Backends{Input: hook})
	test.ExpectedSuccess(t, o.Start())
	defer o.Stop()

	select {
	case <-o.StopRequested():
		t.Fatal("stop requested before hotkey")
	default:
	}

	hook.fn(input.Event{Kind: "key", Key: cfg.Input.StopKey, Down: true})

	select {
	case <-o.StopRequested():
	default:
		t.Fatal("stop hotkey did not request stop")
	}
}

func TestDisabledProducers(t *testing.T) {
	cfg := testConfig("disabled")
	cfg.Screen.Enabled = false
	cfg.Audio.Enabled = false
	cfg.Gamepad.Enabled = false
	cfg.System.Enabled = false
	cfg.Input.Enabled = false

	o := testOrchestrator(t, cfg, Backends{})
	test.ExpectedSuccess(t, o.Start())
	defer o.Stop()

	status := o.Status()
	for _, id := range []string{"screen", "audio", "gamepad", "system", "input"} {
		test.Equate(t, status[id], "disabled")
	}
}
