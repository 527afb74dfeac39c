package tracing

import (
	"errors"
	"fmt"
)

var (
	ErrInitialization = errors.New("tracing: initialization failed")

	// ErrContext is matched by every misuse of the span context.
	ErrContext            = errors.New("tracing: context error")
	ErrNoActiveTrace      = fmt.Errorf("%w: no active trace", ErrContext)
	ErrTraceAlreadyActive = fmt.Errorf("%w: trace already active", ErrContext)
	ErrNotRootSpan        = fmt.Errorf("%w: active span is not a root span", ErrContext)
	ErrSpanClosed         = fmt.Errorf("%w: span is closed", ErrContext)
)

type ExportError struct {
	BatchID int64
	Spans   int
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export batch %d (%d spans): %v", e.BatchID, e.Spans, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
