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

// Package audio records system audio into chunked WAV files and emits
// one audio event per chunk.
//
// The capture backend delivers sample blocks of whatever length it
// likes, on its own thread. The producer hands blocks off to an
// assembly goroutine through a bounded queue (the backend thread is
// never stalled by file I/O; a full queue drops the block and the loss
// is reported on the next emitted event). The assembly goroutine
// reassembles blocks into chunks of exactly round(rate*duration)
// frames, splitting blocks where a chunk boundary falls inside one. The
// total number of frames persisted always equals the total delivered,
// in delivery order; the final chunk at stop may be shorter.
//
// Device resolution accepts an index, a case-insensitive name
// substring, or nothing (backend default). A playback-only device is
// switched to loopback capture when the backend supports it, so that a
// game's speaker output can be recorded without virtual cables.
package audio
