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

//go:build !windows

// Package termkeys implements the input backend on the controlling
// terminal. The terminal is switched to cbreak mode and keypresses are
// read byte-wise, so hotkeys work without a global keyboard hook or a
// window system. A terminal cannot report key releases or the pointer,
// so only key-down events are delivered.
package termkeys

import (
	"os"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"github.com/playcap/playcap/curated"
	"github.com/playcap/playcap/input"
	"github.com/playcap/playcap/logger"
)

// bound on waiting for the reader goroutine at stop. a reader stuck in
// a blocking read is abandoned; it exits when the terminal closes or on
// the next keypress
const joinTimeout = 500 * time.Millisecond

// Backend implements input.Backend on a posix terminal.
type Backend struct {
	tty *os.File

	canAttr    unix.Termios
	cbreakAttr unix.Termios

	stop chan struct{}
	done chan struct{}

	started bool
}

// New is the preferred method of initialisation for the termkeys
// Backend type. Fails when the process has no controlling terminal.
//
// The terminal is opened non-blocking so that reads honour a deadline.
// Reading the stdin the process inherits would not do: that descriptor
// does not support deadlines and a blocked Read() would only notice a
// stop request on the next keypress.
func New() (*Backend, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, curated.Errorf(input.DeviceUnavailable, err)
	}
	b := &Backend{tty: tty}

	if err := termios.Tcgetattr(b.tty.Fd(), &b.canAttr); err != nil {
		b.tty.Close()
		return nil, curated.Errorf(input.DeviceUnavailable, err)
	}
	b.cbreakAttr = b.canAttr
	termios.Cfmakecbreak(&b.cbreakAttr)

	return b, nil
}

// Start implements the input.Backend interface.
func (b *Backend) Start(fn func(input.Event)) error {
	if err := termios.Tcsetattr(b.tty.Fd(), termios.TCIFLUSH, &b.cbreakAttr); err != nil {
		return err
	}

	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	b.started = true

	go b.readLoop(fn)

	return nil
}

// readLoop reads keypresses until the stop channel closes. Each read
// carries a deadline that bounds how long a stop request can go
// unnoticed.
func (b *Backend) readLoop(fn func(input.Event)) {
	defer close(b.done)

	deadlines := true
	buf := make([]byte, 8)
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		if deadlines {
			if err := b.tty.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
				// without deadlines a read blocks until the next
				// keypress. Stop() copes by abandoning the reader
				logger.Logf("termkeys", "read deadline: %v", err)
				deadlines = false
			}
		}

		n, err := b.tty.Read(buf)
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			logger.Logf("termkeys", "read: %v", err)
			return
		}

		for _, key := range decode(buf[:n]) {
			fn(input.Event{Kind: "key", Key: key, Down: true})
		}
	}
}

// Stop implements the input.Backend interface. Restores the terminal to
// canonical mode. The reader goroutine is given joinTimeout to finish;
// a reader stuck in a blocking read is abandoned rather than allowed to
// hold up session shutdown.
func (b *Backend) Stop() {
	if !b.started {
		return
	}
	b.started = false

	close(b.stop)
	select {
	case <-b.done:
	case <-time.After(joinTimeout):
		logger.Log("termkeys", "reader did not stop in time; abandoning")
	}

	if err := termios.Tcsetattr(b.tty.Fd(), termios.TCIFLUSH, &b.canAttr); err != nil {
		logger.Logf("termkeys", "restore: %v", err)
	}
	b.tty.Close()
}

// decode turns a raw read into key names. Escape sequences for the
// function keys used as hotkeys are recognised; anything else passes
// through as the literal character.
func decode(raw []byte) []string {
	var keys []string

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		if c == 0x1b && i+1 < len(raw) {
			if name, length := decodeEscape(raw[i:]); name != "" {
				keys = append(keys, name)
				i += length - 1
				continue
			}
		}

		switch {
		case c == 0x1b:
			keys = append(keys, "esc")
		case c == '\r' || c == '\n':
			keys = append(keys, "enter")
		case c == '\t':
			keys = append(keys, "tab")
		case c == 0x7f:
			keys = append(keys, "backspace")
		case c >= 0x20 && c < 0x7f:
			keys = append(keys, string(c))
		}
	}

	return keys
}

// escape sequences as emitted by xterm-likes. only the keys plausibly
// bound as hotkeys are listed
var escapes = map[string]string{
	"\x1bOP":    "f1",
	"\x1bOQ":    "f2",
	"\x1bOR":    "f3",
	"\x1bOS":    "f4",
	"\x1b[15~":  "f5",
	"\x1b[17~":  "f6",
	"\x1b[18~":  "f7",
	"\x1b[19~":  "f8",
	"\x1b[20~":  "f9",
	"\x1b[21~":  "f10",
	"\x1b[23~":  "f11",
	"\x1b[24~":  "f12",
}

func decodeEscape(raw []byte) (string, int) {
	for seq, name := range escapes {
		if len(raw) >= len(seq) && string(raw[:len(seq)]) == seq {
			return name, len(seq)
		}
	}
	return "", 0
}
