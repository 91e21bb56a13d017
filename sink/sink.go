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

// Package sink implements the append-only event log shared by every
// producer in a session. Writes are serialized by an internal lock so
// that concurrent producers never interleave partial records; each
// flushed line is a complete JSON document and the growing file can be
// tailed safely.
package sink

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/events"
	"github.com/playcap/playcap/metrics"
)

// WriterIOError is raised when the underlying storage cannot be opened,
// written or flushed. Sink faults are never swallowed; they propagate to
// the calling producer and from there to the orchestrator.
const WriterIOError = "sink: %v"

// DefaultFlushEvery is the number of writes between flushes when no
// other value is configured. At most DefaultFlushEvery-1 records are at
// risk on abnormal termination.
const DefaultFlushEvery = 50

// Sink is a thread-safe append-only writer of event records.
type Sink struct {
	crit sync.Mutex

	file *os.File
	buf  *bufio.Writer

	n          int
	flushEvery int
	closed     bool
}

// New is the preferred method of initialisation for the Sink type. The
// file at path is created or truncated. A flushEvery value less than one
// selects DefaultFlushEvery.
func New(path string, flushEvery int) (*Sink, error) {
	if flushEvery < 1 {
		flushEvery = DefaultFlushEvery
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, curated.Errorf(WriterIOError, err)
	}

	return &Sink{
		file:       f,
		buf:        bufio.NewWriter(f),
		flushEvery: flushEvery,
	}, nil
}

// Write appends one event as a self-contained line. Serialization
// happens outside the critical section; the write itself is atomic with
// respect to other callers.
func (s *Sink) Write(ev events.Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return curated.Errorf(WriterIOError, err)
	}

	s.crit.Lock()
	defer s.crit.Unlock()

	if s.closed {
		return curated.Errorf(WriterIOError, "write after close")
	}

	if _, err := s.buf.Write(line); err != nil {
		return curated.Errorf(WriterIOError, err)
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return curated.Errorf(WriterIOError, err)
	}

	s.n++
	if s.n%s.flushEvery == 0 {
		if err := s.buf.Flush(); err != nil {
			return curated.Errorf(WriterIOError, err)
		}
		metrics.SinkFlushes.Inc()
	}

	metrics.EventsWritten.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}

// Close flushes buffered records and releases the underlying file. It is
// safe to call Close any number of times; calls after the first are
// no-ops.
func (s *Sink) Close() error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	ferr := s.buf.Flush()
	if ferr == nil {
		metrics.SinkFlushes.Inc()
	}
	cerr := s.file.Close()

	if ferr != nil {
		return curated.Errorf(WriterIOError, ferr)
	}
	if cerr != nil {
		return curated.Errorf(WriterIOError, cerr)
	}
	return nil
}
