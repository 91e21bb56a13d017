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

// Snapshot is the normalized state of one controller at one poll.
// Field-wise equality between consecutive snapshots drives change
// detection: an unchanged controller produces no events.
type Snapshot struct {
	Connected bool
	Buttons   map[string]bool

	// triggers, normalized to [0, 1]
	LT float32
	RT float32

	// stick axes, normalized to [-1, 1]
	LX float32
	LY float32
	RX float32
	RY float32
}

// Equal compares every field of two snapshots.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Connected != o.Connected ||
		s.LT != o.LT || s.RT != o.RT ||
		s.LX != o.LX || s.LY != o.LY ||
		s.RX != o.RX || s.RY != o.RY {
		return false
	}

	if len(s.Buttons) != len(o.Buttons) {
		return false
	}
	for k, v := range s.Buttons {
		if ov, ok := o.Buttons[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// data returns the event payload for the snapshot.
func (s Snapshot) data(slot int) map[string]any {
	return map[string]any{
		"index":     slot,
		"connected": s.Connected,
		"buttons":   s.Buttons,
		"lt":        s.LT,
		"rt":        s.RT,
		"lx":        s.LX,
		"ly":        s.LY,
		"rx":        s.RX,
		"ry":        s.RY,
	}
}
