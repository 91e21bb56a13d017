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

import (
	"fmt"
	"image"
)

// Region is a capture rectangle in absolute screen coordinates. A nil
// *Region means full-frame capture.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Valid is false for degenerate rectangles.
func (r Region) Valid() bool {
	return r.Right > r.Left && r.Bottom > r.Top
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// data returns the region's representation in event payloads.
func (r Region) data() map[string]any {
	return map[string]any{
		"left":   r.Left,
		"top":    r.Top,
		"right":  r.Right,
		"bottom": r.Bottom,
	}
}
