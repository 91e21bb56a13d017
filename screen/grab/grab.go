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

// Package grab implements the screen capture backend with the
// cross-platform screenshot library. The whole display is grabbed each
// frame; cropping to a capture region happens in the screen producer.
package grab

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/screen"
)

// Backend implements screen.Backend by grabbing one display.
type Backend struct {
	display int
	bounds  image.Rectangle
}

// New is the preferred method of initialisation for the grab Backend
// type. The display index selects which monitor to grab.
func New(display int) (*Backend, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, curated.Errorf(screen.DeviceUnavailable, "no active displays")
	}
	if display < 0 || display >= n {
		return nil, curated.Errorf(screen.DeviceUnavailable,
			fmt.Sprintf("display %d out of range (%d active)", display, n))
	}
	return &Backend{display: display}, nil
}

// Start implements the screen.Backend interface.
func (b *Backend) Start() error {
	b.bounds = screenshot.GetDisplayBounds(b.display)
	if b.bounds.Empty() {
		return curated.Errorf(screen.DeviceUnavailable, "display has no area")
	}
	return nil
}

// Read implements the screen.Backend interface.
func (b *Backend) Read() (*image.RGBA, error) {
	return screenshot.CaptureRect(b.bounds)
}

// Stop implements the screen.Backend interface. The screenshot library
// holds no persistent resources.
func (b *Backend) Stop() {}

// DisplayResolver implements screen.Resolver at display granularity:
// the region under a coordinate is the whole display containing it.
// Window-level resolution needs a platform window system query that the
// screenshot library does not provide.
type DisplayResolver struct{}

// RegionAt implements the screen.Resolver interface. A coordinate on no
// display falls back to the primary display.
func (r DisplayResolver) RegionAt(x int, y int) (screen.Region, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return screen.Region{}, curated.Errorf(screen.DeviceUnavailable, "no active displays")
	}

	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		if image.Pt(x, y).In(bounds) {
			return regionFromRect(bounds), nil
		}
	}

	return regionFromRect(screenshot.GetDisplayBounds(0)), nil
}

func regionFromRect(r image.Rectangle) screen.Region {
	return screen.Region{
		Left:   r.Min.X,
		Top:    r.Min.Y,
		Right:  r.Max.X,
		Bottom: r.Max.Y,
	}
}
