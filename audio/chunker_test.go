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
	"testing"

	"github.com/playcap/playcap/test"
)

// feed a ramp through the chunker and check that what comes out is the
// same ramp: nothing lost, nothing duplicated, nothing reordered.
func conservation(t *testing.T, channels, target int, blockLens []int) {
	t.Helper()

	c := newChunker(channels, target)

	fed := 0
	next := float32(0)
	var out []float32

	for _, l := range blockLens {
		block := make([]float32, l*channels)
		for i := range block {
			block[i] = next
			next++
		}
		c.add(block)
		fed += l

		for c.full() {
			chunk := c.pop(target)
			test.Equate(t, len(chunk), target*channels)
			out = append(out, chunk...)
		}
	}

	out = append(out, c.drain()...)

	test.Equate(t, len(out), fed*channels)
	for i, v := range out {
		if v != float32(i) {
			t.Fatalf("sample %d out of order (got %f)", i, v)
		}
	}
}

func TestChunkerConservation(t *testing.T) {
	// chunk boundary falls inside blocks
	conservation(t, 1, 100, []int{64, 64, 64, 64, 64})

	// blocks smaller, equal and larger than the chunk
	conservation(t, 2, 50, []int{7, 50, 121, 3, 3, 3, 99})

	// degenerate single-frame blocks
	conservation(t, 1, 10, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
}

func TestChunkerWorkedExample(t *testing.T) {
	// rate=48000, duration=1.0 => target 48000. twenty-five blocks of
	// 2048 frames (51200 total) yield one full chunk and a pending
	// remainder of 3200 frames
	c := newChunker(1, 48000)

	for i := 0; i < 25; i++ {
		c.add(make([]float32, 2048))
	}

	test.Equate(t, c.full(), true)
	chunk := c.pop(48000)
	test.Equate(t, len(chunk), 48000)

	test.Equate(t, c.full(), false)
	rest := c.drain()
	test.Equate(t, len(rest), 3200)

	test.Equate(t, len(c.drain()), 0)
}

func TestChunkerEmpty(t *testing.T) {
	c := newChunker(2, 100)
	test.Equate(t, c.full(), false)
	test.Equate(t, len(c.drain()), 0)

	// zero-length blocks are ignored
	c.add(nil)
	c.add([]float32{})
	test.Equate(t, len(c.drain()), 0)
}
