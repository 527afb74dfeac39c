// Package observability holds the logging, metrics and self-telemetry
// interfaces shared by the tracing SDK and the collector service.
package observability

import "context"

// Observability bundles the three signals of one process. Start serves
// metrics when an address is configured; Close flushes and stops everything.
type Observability interface {
	Close(ctx context.Context) error
	Logger() Logger
	Meter() Meter
	Start(ctx context.Context) error
	Tracer() Tracer
}
