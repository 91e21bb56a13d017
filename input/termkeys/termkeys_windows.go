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

//go:build windows

package termkeys

import (
	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/input"
)

// Backend is not available on windows. There is no termios; a console
// hook would need a different implementation.
type Backend struct{}

// New always fails on windows. The input producer is then omitted from
// the session.
func New() (*Backend, error) {
	return nil, curated.Errorf(input.DeviceUnavailable, "terminal input not supported on windows")
}

// Start implements the input.Backend interface.
func (b *Backend) Start(fn func(input.Event)) error {
	return curated.Errorf(input.DeviceUnavailable, "terminal input not supported on windows")
}

// Stop implements the input.Backend interface.
func (b *Backend) Stop() {}
