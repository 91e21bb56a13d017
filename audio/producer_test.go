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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/test"
)

type recordingWriter struct {
	crit sync.Mutex
	recs []events.Event
}

func (r *recordingWriter) Write(ev events.Event) error {
	r.crit.Lock()
	defer r.crit.Unlock()
	r.recs = append(r.recs, ev)
	return nil
}

func (r *recordingWriter) byKind(kind events.Kind) []events.Event {
	r.crit.Lock()
	defer r.crit.Unlock()
	var out []events.Event
	for _, ev := range r.recs {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type fakeStream struct {
	fakeEnumerator
	fn      BlockFunc
	stopped bool
}

func (f *fakeStream) Start(_ StreamConfig, fn BlockFunc) error {
	f.fn = fn
	return nil
}

func (f *fakeStream) Stop() error {
	f.stopped = true
	return nil
}

func TestProducerChunksAndEvents(t *testing.T) {
	backend := &fakeStream{fakeEnumerator: *testBackend()}
	wrt := &recordingWriter{}
	clk := &events.Clock{}
	clk.Start()

	p, err := NewProducer(Config{
		Session:       "sess",
		Dir:           t.TempDir(),
		Rate:          1000,
		ChunkDuration: 0.1, // 100 frames per chunk
	}, clk, wrt, backend)
	test.ExpectedSuccess(t, err)
	test.ExpectedSuccess(t, p.Start())

	// default device is the mono microphone
	test.Equate(t, p.resolved.Channels, 1)
	test.Equate(t, p.chunkFrames, 100)

	// 230 frames in blocks of 23: two full chunks and a final partial
	// chunk of 30 frames at stop
	for i := 0; i < 10; i++ {
		backend.fn(make([]float32, 23))
	}

	p.Stop()
	test.Equate(t, backend.stopped, true)

	chunks := wrt.byKind(events.KindAudio)
	test.Equate(t, len(chunks), 3)

	sampleTotals := 0
	for i, ev := range chunks {
		test.Equate(t, ev.Data["seq"].(int), i)
		test.Equate(t, ev.Data["rate"].(int), 1000)
		test.Equate(t, ev.Data["channels"].(int), 1)
		sampleTotals += ev.Data["samples"].(int)
	}
	test.Equate(t, sampleTotals, 230)
	test.Equate(t, chunks[0].Data["samples"].(int), 100)
	test.Equate(t, chunks[2].Data["samples"].(int), 30)

	// chunk files exist with the zero-padded naming scheme
	for _, name := range []string{"audio_000000.wav", "audio_000001.wav", "audio_000002.wav"} {
		_, err := os.Stat(filepath.Join(p.dir, name))
		test.ExpectedSuccess(t, err)
	}

	// start/stop meta events bracket the chunks
	meta := wrt.byKind(events.KindMeta)
	test.Equate(t, len(meta), 2)

	// a second stop is a no-op
	p.Stop()
	test.Equate(t, len(wrt.byKind(events.KindMeta)), 2)
}

func TestProducerNilBackend(t *testing.T) {
	clk := &events.Clock{}
	clk.Start()
	_, err := NewProducer(Config{}, clk, &recordingWriter{}, nil)
	test.ExpectedFailure(t, err)
}
