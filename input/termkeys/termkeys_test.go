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

//go:build !windows

package termkeys

import (
	"os"
	"testing"
	"time"

	"github.com/playcap/playcap/input"
	"github.com/playcap/playcap/test"
)

func TestDecode(t *testing.T) {
	keys := decode([]byte("rq"))
	test.Equate(t, len(keys), 2)
	test.Equate(t, keys[0], "r")
	test.Equate(t, keys[1], "q")

	keys = decode([]byte{0x1b})
	test.Equate(t, len(keys), 1)
	test.Equate(t, keys[0], "esc")

	keys = decode([]byte("\x1bOP"))
	test.Equate(t, keys[0], "f1")

	keys = decode([]byte("\x1b[15~"))
	test.Equate(t, keys[0], "f5")

	keys = decode([]byte{'\r', '\t', 0x7f})
	test.Equate(t, len(keys), 3)
	test.Equate(t, keys[0], "enter")
	test.Equate(t, keys[1], "tab")
	test.Equate(t, keys[2], "backspace")
}

func TestReaderObservesStop(t *testing.T) {
	// a pipe honours read deadlines, so the loop must notice a stop
	// request without any input arriving
	r, w, err := os.Pipe()
	test.ExpectedSuccess(t, err)
	defer w.Close()

	b := &Backend{
		tty:  r,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.readLoop(func(input.Event) {})

	close(b.stop)
	select {
	case <-b.done:
	case <-time.After(time.Second):
		t.Fatal("reader did not observe the stop request")
	}
}

func TestStopAbandonsStuckReader(t *testing.T) {
	r, w, err := os.Pipe()
	test.ExpectedSuccess(t, err)
	defer w.Close()

	// no reader goroutine runs so the done channel never closes. this
	// stands in for a reader stuck in a blocking read on a descriptor
	// without deadline support
	b := &Backend{
		tty:     r,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		started: true,
	}

	began := time.Now()
	b.Stop()
	if elapsed := time.Since(began); elapsed > 5*joinTimeout {
		t.Fatalf("stop blocked for %v", elapsed)
	}
}
