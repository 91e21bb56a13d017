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

package curated_test

import (
	"errors"
	"testing"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/test"
)

const testPattern = "test: %v"
const wrapPattern = "wrap: %v"

func TestMatching(t *testing.T) {
	err := curated.Errorf(testPattern, "fault")

	test.Equate(t, curated.IsAny(err), true)
	test.Equate(t, curated.Is(err, testPattern), true)
	test.Equate(t, curated.Is(err, wrapPattern), false)

	// wrapped curated errors are matchable with Has() but not Is()
	wrapped := curated.Errorf(wrapPattern, err)
	test.Equate(t, curated.Is(wrapped, testPattern), false)
	test.Equate(t, curated.Has(wrapped, testPattern), true)
	test.Equate(t, curated.Has(wrapped, wrapPattern), true)

	// plain errors never match
	plain := errors.New("plain")
	test.Equate(t, curated.IsAny(plain), false)
	test.Equate(t, curated.Has(plain, testPattern), false)
}

func TestDeduplication(t *testing.T) {
	// a chain that repeats its head is de-duplicated on formatting
	inner := curated.Errorf("audio: %v", "device lost")
	outer := curated.Errorf("audio: %v", inner)
	test.Equate(t, outer.Error(), "audio: device lost")
}
