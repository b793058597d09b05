package vsm

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Machine.
type Option func(m *Machine)

// WithName names the machine in logs, metrics and spans. Defaults to a random UUID.
func WithName(name string) Option {
	return func(m *Machine) { m.name = name }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSink sets the diagnostic sink LogAction writes to when it has none of
// its own. Defaults to a sink over the machine's logger.
func WithSink(s Sink) Option {
	return func(m *Machine) { m.sink = s }
}

// WithMetrics records transitions and action outcomes into mt.
func WithMetrics(mt *Metrics) Option {
	return func(m *Machine) { m.metrics = mt }
}

// WithTracerProvider sets the provider used for transition and action spans.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Machine) { m.provider = tp }
}

// WithErrorHandler receives every runtime action failure.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Machine) { m.onError = h }
}
