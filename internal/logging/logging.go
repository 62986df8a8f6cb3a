// Package logging provides the structured, correlation-aware logger used by
// the pipeline controller and registry for lifecycle events; the executor
// only reads the run's correlation ID from it.
// Hot-path endpoint fire/drain events are not logged here — see
// internal/graphtrace for that.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cblog "github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Logger is the structured logging contract used across the runtime. All
// calls are key/value pairs and should automatically enrich entries with a
// correlation ID when one is present in context.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type correlationIDKey struct{}

// WithCorrelationID attaches a correlation ID to ctx so downstream log calls
// pick it up automatically.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID extracts the correlation ID from ctx, or "" if none was set.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewCorrelationID returns a fresh run identifier. One run gets one ID,
// attached to every log line emitted during it and to any RuntimeNodeError
// it raises.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Options configures the charmbracelet/log-backed adapter.
type Options struct {
	Writer       io.Writer
	Level        string
	ReportCaller bool
	Formatter    cblog.Formatter
	Component    string
}

// adapter implements Logger over github.com/charmbracelet/log.
type adapter struct {
	logger *cblog.Logger
	fields []interface{}
}

// New creates a Logger backed by charmbracelet/log.
func New(opts Options) (Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("logging: parse level: %w", err)
		}
		level = parsed
	}
	base := cblog.NewWithOptions(writer, cblog.Options{
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    opts.ReportCaller,
		Formatter:       opts.Formatter,
	})

	var fields []interface{}
	if opts.Component != "" {
		fields = []interface{}{"component", opts.Component}
	}
	return &adapter{logger: base, fields: fields}, nil
}

func (a *adapter) Debug(ctx context.Context, msg string, fields ...interface{}) {
	a.log(ctx, cblog.DebugLevel, msg, fields...)
}

func (a *adapter) Info(ctx context.Context, msg string, fields ...interface{}) {
	a.log(ctx, cblog.InfoLevel, msg, fields...)
}

func (a *adapter) Warn(ctx context.Context, msg string, fields ...interface{}) {
	a.log(ctx, cblog.WarnLevel, msg, fields...)
}

func (a *adapter) Error(ctx context.Context, msg string, fields ...interface{}) {
	a.log(ctx, cblog.ErrorLevel, msg, fields...)
}

func (a *adapter) With(fields ...interface{}) Logger {
	next := make([]interface{}, len(a.fields), len(a.fields)+len(fields))
	copy(next, a.fields)
	next = append(next, fields...)
	return &adapter{logger: a.logger, fields: next}
}

func (a *adapter) log(ctx context.Context, level cblog.Level, msg string, fields ...interface{}) {
	payload := mergeFields(a.fields, fields, CorrelationID(ctx))
	switch level {
	case cblog.DebugLevel:
		a.logger.Debug(msg, payload...)
	case cblog.WarnLevel:
		a.logger.Warn(msg, payload...)
	case cblog.ErrorLevel:
		a.logger.Error(msg, payload...)
	default:
		a.logger.Info(msg, payload...)
	}
}

func mergeFields(base, additions []interface{}, correlationID string) []interface{} {
	store := map[string]interface{}{}
	var order []string
	add := func(k string, v interface{}) {
		if k == "" {
			return
		}
		if _, seen := store[k]; !seen {
			order = append(order, k)
		}
		store[k] = v
	}
	process := func(vals []interface{}) {
		for i := 0; i+1 < len(vals); i += 2 {
			if k, ok := vals[i].(string); ok {
				add(k, vals[i+1])
			}
		}
	}
	process(base)
	process(additions)
	if correlationID != "" {
		add("correlation_id", correlationID)
	}

	out := make([]interface{}, 0, len(order)*2)
	for _, k := range order {
		out = append(out, k, store[k])
	}
	return out
}

// NoOpLogger discards every call; used as the default when a host embeds
// the runtime without configuring a logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(context.Context, string, ...interface{}) {}
func (NoOpLogger) Info(context.Context, string, ...interface{})  {}
func (NoOpLogger) Warn(context.Context, string, ...interface{})  {}
func (NoOpLogger) Error(context.Context, string, ...interface{}) {}
func (NoOpLogger) With(...interface{}) Logger                    { return NoOpLogger{} }

var _ Logger = (*adapter)(nil)
var _ Logger = NoOpLogger{}
