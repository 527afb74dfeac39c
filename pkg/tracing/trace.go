package tracing

import (
	"context"
	"fmt"
	"sync"

	"github.com/jt828/ollyllm-go/pkg/observability"
	obsImpl "github.com/jt828/ollyllm-go/pkg/observability/implementation"
)

const anonymousName = "anonymous"

var (
	uninitializedOnce sync.Once
	fallbackLog       = newFallbackLogger()
)

func newFallbackLogger() observability.Logger {
	log, err := obsImpl.NewZapLogger(false)
	if err != nil {
		return obsImpl.NewNopLogger()
	}
	return log
}

func warnUninitialized() {
	uninitializedOnce.Do(func() {
		fallbackLog.Warn("tracing session is not initialized, calls run untraced")
	})
}

// Trace runs fn inside a span named name: a child of the active span in ctx,
// or a new root when ctx has none. The span is closed on every exit path. The
// result, the error and any panic value of fn reach the caller unchanged. A nil
// session runs fn directly.
func Trace[T any](ctx context.Context, s *Session, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if s == nil {
		warnUninitialized()
		return fn(ctx)
	}
	result, _, err := traceSpan(ctx, s, name, fn)
	return result, err
}

func (s *Session) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, err := Trace(ctx, s, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// traceSpan returns the span fn ran in, or nil when fn ran untraced.
func traceSpan[T any](ctx context.Context, s *Session, name string, fn func(ctx context.Context) (T, error)) (result T, span *Span, err error) {
	if name == "" {
		name = anonymousName
	}

	var spanCtx context.Context
	var startErr error
	if active := SpanFromContext(ctx); active != nil && !active.IsClosed() {
		spanCtx, span, startErr = s.StartSpan(ctx, name)
	} else {
		spanCtx, span, startErr = s.StartTrace(ctx, name)
	}
	if startErr != nil {
		s.log.Warn("span not started, running untraced",
			observability.String("operation", name),
			observability.Err(startErr),
		)
		result, err = fn(ctx)
		return result, nil, err
	}

	if s.debug {
		s.log.Debug("entry", spanFields(span)...)
	}

	defer func() {
		if r := recover(); r != nil {
			span.Log(LevelError, fmt.Sprintf("panic: %v", r), nil, nil)
			s.exit(span)
			panic(r)
		}
		if err != nil {
			span.Error(err, nil)
		}
		s.exit(span)
	}()

	result, err = fn(spanCtx)
	return result, span, err
}

func (s *Session) exit(span *Span) {
	if err := s.finish(span); err != nil {
		s.log.Warn("span already closed", observability.String("operation", span.OperationName()), observability.Err(err))
		return
	}
	if s.debug {
		fields := append(spanFields(span), observability.Int64("duration_ms", span.EndTime().Sub(span.StartTime()).Milliseconds()))
		s.log.Debug("exit", fields...)
	}
}

func spanFields(span *Span) []observability.Field {
	return []observability.Field{
		observability.String("operation", span.OperationName()),
		observability.String("span_id", span.ID()),
		observability.String("trace_id", span.TraceID()),
		observability.String("parent_id", span.ParentID()),
	}
}
