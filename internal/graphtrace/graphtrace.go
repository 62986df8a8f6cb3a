// Package graphtrace is a dedicated hot-path tracer for the execution
// graph's fire/drain loop. It is kept separate from internal/logging
// because that loop is the single hottest path in the runtime, and
// zerolog's allocation-light encoder fits it better than a friendlier,
// heavier renderer.
package graphtrace

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Tracer emits one structured event per endpoint fire/drain. A nil *Tracer
// is valid and every method on it is a no-op, so the executor can carry a
// tracer unconditionally and only pay for it when one was configured.
type Tracer struct {
	log zerolog.Logger
}

// New returns a Tracer writing to w. Passing os.Stderr (the default) is the
// common case for local runs; hosts that want structured trace capture can
// point it at any io.Writer.
func New(w io.Writer) *Tracer {
	if w == nil {
		w = os.Stderr
	}
	return &Tracer{log: zerolog.New(w).With().Timestamp().Logger()}
}

// Fire logs that endpointID began invoking its method body.
func (t *Tracer) Fire(runID string, endpointID int, nodeType, method string) {
	if t == nil {
		return
	}
	t.log.Debug().
		Str("run_id", runID).
		Int("endpoint_id", endpointID).
		Str("node_type", nodeType).
		Str("method", method).
		Msg("endpoint fire")
}

// Drain logs that endpointID finished invoking its method body, either
// emitting a value or returning an error.
func (t *Tracer) Drain(runID string, endpointID int, nodeType, method string, err error) {
	if t == nil {
		return
	}
	ev := t.log.Debug().
		Str("run_id", runID).
		Int("endpoint_id", endpointID).
		Str("node_type", nodeType).
		Str("method", method)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("endpoint drain")
}

// SourceComplete logs that a source endpoint will never emit again.
func (t *Tracer) SourceComplete(runID string, endpointID int, nodeType string) {
	if t == nil {
		return
	}
	t.log.Debug().
		Str("run_id", runID).
		Int("endpoint_id", endpointID).
		Str("node_type", nodeType).
		Msg("source complete")
}
