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

package paths_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/playcap/playcap/paths"
	"github.com/playcap/playcap/test"
)

func TestSessionDir(t *testing.T) {
	root := t.TempDir()
	t.Setenv(paths.DataRootEnv, root)

	d, err := paths.SessionDir("demo")
	test.ExpectedSuccess(t, err)
	test.Equate(t, d, filepath.Join(root, "raw", "sessions", "demo"))

	// directory has been created
	fi, err := os.Stat(d)
	test.ExpectedSuccess(t, err)
	test.ExpectedSuccess(t, fi.IsDir())

	// a second call for the same session is stable
	d2, err := paths.SessionDir("demo")
	test.ExpectedSuccess(t, err)
	test.Equate(t, d2, d)
}
