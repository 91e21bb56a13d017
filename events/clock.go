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

package events

import (
	"time"

	"github.com/google/uuid"
)

// Clock establishes the session's monotonic zero-reference and produces
// ordered unique identifiers. One Clock is shared by every producer in a
// session. It is never mutated after Start().
type Clock struct {
	origin  time.Time
	started bool
}

// Start records the monotonic origin for the session. Calling Start more
// than once is a no-op; the first origin sticks.
func (c *Clock) Start() {
	if c.started {
		return
	}
	c.origin = time.Now()
	c.started = true
}

// Now returns the elapsed milliseconds since Start() and the absolute
// wall-clock time in nanoseconds. Now panics if the clock has not been
// started. Stamping events against an unstarted clock is a programming
// error and there is no sensible value to return.
func (c *Clock) Now() (elapsedMS int64, wallNS int64) {
	if !c.started {
		panic("events: clock read before Start()")
	}
	// time.Since uses the monotonic reading embedded in origin
	return time.Since(c.origin).Milliseconds(), time.Now().UnixNano()
}

// NewID returns a unique identifier that sorts lexicographically by
// creation time.
func (c *Clock) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does. fall back to a
		// random ID rather than lose the event
		return uuid.NewString()
	}
	return id.String()
}
