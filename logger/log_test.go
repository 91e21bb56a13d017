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

package logger

import (
	"strings"
	"testing"

	"github.com/playcap/playcap/test"
)

func TestLogger(t *testing.T) {
	l := newLogger(10)

	b := &strings.Builder{}
	l.write(b)
	test.Equate(t, b.String(), "")

	l.log("test", "hello")
	b.Reset()
	l.write(b)
	test.Equate(t, b.String(), "test: hello\n")

	// adjacent duplicates are compressed into one entry
	l.log("test", "hello")
	l.log("test", "hello")
	b.Reset()
	l.write(b)
	test.Equate(t, b.String(), "test: hello (repeat x3)\n")

	l.log("test", "world")
	b.Reset()
	l.tail(b, 1)
	test.Equate(t, b.String(), "test: world\n")
}

func TestLoggerMaxEntries(t *testing.T) {
	l := newLogger(2)
	l.log("test", "a")
	l.log("test", "b")
	l.log("test", "c")

	b := &strings.Builder{}
	l.write(b)
	test.Equate(t, b.String(), "test: b\ntest: c\n")
}
