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

package sink_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/sink"
	"github.com/playcap/playcap/test"
)

func readLines(t *testing.T, path string) []events.Event {
	t.Helper()

	f, err := os.Open(path)
	test.ExpectedSuccess(t, err)
	defer f.Close()

	var recs []events.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev events.Event
		test.ExpectedSuccess(t, json.Unmarshal(scanner.Bytes(), &ev))
		recs = append(recs, ev)
	}
	test.ExpectedSuccess(t, scanner.Err())
	return recs
}

func TestConcurrentWriters(t *testing.T) {
	const writers = 8
	const records = 200

	path := filepath.Join(t.TempDir(), "events.jsonl")
	s, err := sink.New(path, 10)
	test.ExpectedSuccess(t, err)

	clk := &events.Clock{}
	clk.Start()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < records; i++ {
				ev := events.New(clk, events.KindInput, "sess", map[string]any{
					"writer": w,
					"n":      i,
				})
				if err := s.Write(ev); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	test.ExpectedSuccess(t, s.Close())

	// every line is a syntactically complete record. none truncated,
	// none interleaved
	recs := readLines(t, path)
	test.Equate(t, len(recs), writers*records)

	// per-writer record counts survived intact
	seen := make(map[string]int)
	for _, ev := range recs {
		seen[fmt.Sprintf("%v", ev.Data["writer"])]++
	}
	for _, n := range seen {
		test.Equate(t, n, records)
	}
}

func TestCleanShutdownLosesNothing(t *testing.T) {
	// flush threshold much larger than the number of writes: only the
	// final flush on Close can account for the records on disk
	path := filepath.Join(t.TempDir(), "events.jsonl")
	s, err := sink.New(path, 1000)
	test.ExpectedSuccess(t, err)

	clk := &events.Clock{}
	clk.Start()

	for i := 0; i < 7; i++ {
		test.ExpectedSuccess(t, s.Write(events.New(clk, events.KindMeta, "sess", nil)))
	}
	test.ExpectedSuccess(t, s.Close())

	test.Equate(t, len(readLines(t, path)), 7)
}

func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	s, err := sink.New(path, 0)
	test.ExpectedSuccess(t, err)

	test.ExpectedSuccess(t, s.Close())
	test.ExpectedSuccess(t, s.Close())

	// writes after close propagate an error rather than silently losing
	// the record
	clk := &events.Clock{}
	clk.Start()
	test.ExpectedFailure(t, s.Write(events.New(clk, events.KindMeta, "sess", nil)))
}

func TestOpenFailure(t *testing.T) {
	_, err := sink.New(filepath.Join(t.TempDir(), "no", "such", "dir", "events.jsonl"), 0)
	test.ExpectedFailure(t, err)
}
