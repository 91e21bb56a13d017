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

// Deadzone constants for the raw int16 range reported by the backend.
// Values inside the deadzone clamp to zero, suppressing analog noise
// from a controller at rest.
const (
	StickDeadzone   = 8192
	TriggerDeadzone = 1024
)

// raw axis maximum. the negative extreme of an int16 is one further
// out, hence the clamp in normalizeStick.
const axisMax = 32767

// normalizeStick maps a raw stick axis to [-1, 1]. Values inside the
// deadzone clamp to exactly 0. A raw value at maximum magnitude
// normalizes to exactly +/-1, never beyond.
func normalizeStick(raw int16) float32 {
	if raw > -StickDeadzone && raw < StickDeadzone {
		return 0.0
	}
	v := float32(raw) / axisMax
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

// normalizeTrigger maps a raw trigger value to [0, 1]. Values below the
// deadzone clamp to exactly 0.
func normalizeTrigger(raw int16) float32 {
	if raw < TriggerDeadzone {
		return 0.0
	}
	v := float32(raw) / axisMax
	if v > 1.0 {
		return 1.0
	}
	return v
}
