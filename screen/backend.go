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

package screen

import "image"

// Backend is the capability interface required from a screen grabber.
// Absence of a backend is non-fatal to the session.
type Backend interface {
	// Start acquires whatever resources the grabber needs.
	Start() error

	// Read captures one frame. A nil image with a nil error means no
	// frame is available right now; the capture loop tries again on the
	// next cycle.
	Read() (*image.RGBA, error)

	// Stop releases the grabber. Called once, after the capture loop has
	// exited.
	Stop()
}

// Resolver maps an absolute screen coordinate to a capture region. Used
// by the retarget signal to aim the recording at the window, or failing
// that the display, under the pointer.
type Resolver interface {
	RegionAt(x, y int) (Region, error)
}
