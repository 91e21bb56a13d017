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

// chunker reassembles variable-length sample blocks into fixed-length
// chunks. Block lengths are backend-determined; a chunk boundary falling
// inside a block splits the block. Every sample that goes in comes out
// exactly once and in order, regardless of how block and chunk
// boundaries interleave.
//
// Samples are interleaved float32. Lengths are counted in frames (one
// sample per channel).
type chunker struct {
	channels int
	target   int // frames per full chunk

	pending [][]float32
	frames  int
}

func newChunker(channels, target int) *chunker {
	if channels < 1 {
		channels = 1
	}
	if target < 1 {
		target = 1
	}
	return &chunker{
		channels: channels,
		target:   target,
	}
}

// add appends a block to the accumulation buffer. The block must hold
// whole frames. The chunker takes ownership of the slice.
func (c *chunker) add(block []float32) {
	if len(block) == 0 {
		return
	}
	c.pending = append(c.pending, block)
	c.frames += len(block) / c.channels
}

// full is true while at least one complete chunk can be popped.
func (c *chunker) full() bool {
	return c.frames >= c.target
}

// pop removes exactly n frames from the front of the buffer, splitting
// the block at the boundary if necessary. Popping more frames than are
// pending returns only the pending frames.
func (c *chunker) pop(n int) []float32 {
	if n > c.frames {
		n = c.frames
	}
	if n <= 0 {
		return nil
	}

	out := make([]float32, 0, n*c.channels)
	need := n * c.channels

	for need > 0 && len(c.pending) > 0 {
		head := c.pending[0]
		if len(head) <= need {
			out = append(out, head...)
			need -= len(head)
			c.pending = c.pending[1:]
		} else {
			out = append(out, head[:need]...)
			c.pending[0] = head[need:]
			need = 0
		}
	}

	c.frames -= len(out) / c.channels
	return out
}

// drain removes and returns everything still pending. Used for the
// final partial chunk at stop.
func (c *chunker) drain() []float32 {
	return c.pop(c.frames)
}
