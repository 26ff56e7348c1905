// Package emit provides event emission and observability for the
// reactive propagation engine.
package emit

import "context"

// Emitter receives and processes observability events from Domain
// propagation.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog.
//   - Distributed tracing: OpenTelemetry, Jaeger, Zipkin.
//   - Metrics: Prometheus, StatsD.
//
// Implementations should be non-blocking, thread-safe (a turn may be
// ticking nodes on several goroutines under the parallel engine), and
// resilient: Emit must never panic or block propagation.
type Emitter interface {
	// Emit sends a single observability event to the configured backend.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation, in the order
	// given. Returns an error only on catastrophic failures (e.g.
	// configuration errors); individual event failures should be logged
	// internally, not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until every buffered event has been sent to the
	// backend, or ctx is done. Safe to call multiple times.
	Flush(ctx context.Context) error
}
