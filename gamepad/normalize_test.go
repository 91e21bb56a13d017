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
	"testing"

	"github.com/playcap/playcap/test"
)

func TestNormalizeStick(t *testing.T) {
	// inside the deadzone clamps to exactly zero
	test.Equate(t, normalizeStick(0), 0.0)
	test.Equate(t, normalizeStick(StickDeadzone-1), 0.0)
	test.Equate(t, normalizeStick(-StickDeadzone+1), 0.0)

	// maximum magnitude is exactly one, in both directions. note that
	// the negative extreme of an int16 is 32768, one beyond axisMax
	test.Equate(t, normalizeStick(32767), 1.0)
	test.Equate(t, normalizeStick(-32768), -1.0)

	// values outside the deadzone scale linearly
	v := normalizeStick(16384)
	if v <= 0.0 || v >= 1.0 {
		t.Errorf("half deflection should be strictly inside (0, 1): %f", v)
	}

	// the deadzone edge itself is not suppressed
	if normalizeStick(StickDeadzone) == 0.0 {
		t.Errorf("deadzone edge should not clamp to zero")
	}
}

func TestNormalizeTrigger(t *testing.T) {
	test.Equate(t, normalizeTrigger(0), 0.0)
	test.Equate(t, normalizeTrigger(TriggerDeadzone-1), 0.0)
	test.Equate(t, normalizeTrigger(32767), 1.0)

	v := normalizeTrigger(16384)
	if v <= 0.0 || v >= 1.0 {
		t.Errorf("half pull should be strictly inside (0, 1): %f", v)
	}
}

func TestSnapshotEqual(t *testing.T) {
	a := Snapshot{Connected: true, Buttons: map[string]bool{"a": true, "b": false}}
	b := Snapshot{Connected: true, Buttons: map[string]bool{"a": true, "b": false}}
	test.Equate(t, a.Equal(b), true)

	b.Buttons["b"] = true
	test.Equate(t, a.Equal(b), false)
	b.Buttons["b"] = false

	b.LX = 0.5
	test.Equate(t, a.Equal(b), false)
	b.LX = 0.0

	b.Connected = false
	test.Equate(t, a.Equal(b), false)
}
