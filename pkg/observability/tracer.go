package observability

import "context"

// Tracer reports on the SDK and collector themselves through OpenTelemetry.
// It is unrelated to the application spans the tracing package records.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

type Span interface {
	End()
	RecordError(err error)
	SetAttributes(fields ...Field)
}
