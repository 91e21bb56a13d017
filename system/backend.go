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

package system

// GpuBackend is the capability interface required from a GPU telemetry
// provider. Candidates are tried in preference order at start; the
// first one whose Describe() succeeds is used for the session. No
// usable backend degrades GPU telemetry to "unavailable", never fatal.
type GpuBackend interface {
	// Name identifies the backend in session metadata.
	Name() string

	// Describe returns the static properties of the GPU. Called once at
	// selection time; an error disqualifies the backend.
	Describe() (map[string]any, error)

	// Sample returns the current GPU utilisation figures.
	Sample() (map[string]any, error)

	// Close releases the backend. Called once at session stop.
	Close()
}
