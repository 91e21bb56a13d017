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

// Package metrics registers the recorder's Prometheus instruments.
// Counters are process-wide; a recording process runs one session at a
// time so there is no per-session labelling.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playcap/playcap/logger"
)

var (
	// EventsWritten counts records appended to the event sink, by kind.
	EventsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playcap_events_written_total",
		Help: "Event records appended to the session event log.",
	}, []string{"kind"})

	// SinkFlushes counts explicit flushes of the event sink.
	SinkFlushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playcap_sink_flushes_total",
		Help: "Flushes of the session event log to storage.",
	})

	// AudioBlocksDropped counts sample blocks lost to hand-off queue
	// backpressure.
	AudioBlocksDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playcap_audio_blocks_dropped_total",
		Help: "Audio sample blocks dropped because the hand-off queue was full.",
	})

	// FramesCaptured counts screen frames persisted to disk.
	FramesCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playcap_frames_captured_total",
		Help: "Screen frames captured and persisted.",
	})

	// GamepadSuppressed counts polls whose snapshot matched the cached
	// snapshot and therefore produced no event.
	GamepadSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playcap_gamepad_polls_suppressed_total",
		Help: "Gamepad polls suppressed by change detection.",
	})

	// QueueLength reports the current depth of the audio hand-off queue.
	QueueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playcap_audio_queue_length",
		Help: "Current number of sample blocks buffered in the audio hand-off queue.",
	})
)

func init() {
	prometheus.MustRegister(EventsWritten, SinkFlushes, AudioBlocksDropped,
		FramesCaptured, GamepadSuppressed, QueueLength)
}

// Serve exposes the default registry on addr in a new goroutine. An
// empty addr disables the listener.
func Serve(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Logf("metrics", "listener: %v", err)
		}
	}()

	logger.Logf("metrics", "serving on %s/metrics", addr)
}
