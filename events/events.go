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

// Package events defines the canonical event record emitted by every
// producer, the session clock that stamps it, and the Writer interface
// through which producers hand events to the sink.
//
// An event is immutable once constructed. The ID field is unique and
// sorts lexicographically by creation time. The elapsed timestamp is
// monotonically non-decreasing per producer but carries no ordering
// guarantee across producers.
package events

import "time"

// Kind classifies an event record.
type Kind string

// List of valid Kind values.
const (
	KindFrame   Kind = "frame"
	KindInput   Kind = "input"
	KindGamepad Kind = "gamepad"
	KindAudio   Kind = "audio"
	KindSystem  Kind = "system"
	KindMeta    Kind = "meta"
)

// Event is one record in the session's event log.
type Event struct {
	ID          string         `json:"id"`
	TSElapsedMS int64          `json:"ts_elapsed_ms"`
	TSWallNS    int64          `json:"ts_wall_ns"`
	Kind        Kind           `json:"kind"`
	Session     string         `json:"session"`
	Data        map[string]any `json:"data"`
}

// New creates an event stamped with the clock's current reading. The
// clock must have been started.
func New(clk *Clock, kind Kind, session string, data map[string]any) Event {
	elapsed, wall := clk.Now()
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		ID:          clk.NewID(),
		TSElapsedMS: elapsed,
		TSWallNS:    wall,
		Kind:        kind,
		Session:     session,
		Data:        data,
	}
}

// SessionMeta describes a recording session. Written once as the first
// record of the event log.
type SessionMeta struct {
	Name        string `json:"name"`
	CreatedTSMS int64  `json:"created_ts_ms"`
	Game        string `json:"game,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// NewSessionMeta creates a SessionMeta stamped with the current wall
// clock.
func NewSessionMeta(name, game, notes string) SessionMeta {
	return SessionMeta{
		Name:        name,
		CreatedTSMS: time.Now().UnixMilli(),
		Game:        game,
		Notes:       notes,
	}
}

// Writer is the write-side of the event sink. Implementations must be
// safe for use from concurrent producers.
type Writer interface {
	Write(Event) error
}
