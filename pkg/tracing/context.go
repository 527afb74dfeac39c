package tracing

import "context"

type spanKey struct{}

// ContextWithSpan returns a copy of ctx in which span is the active span. A nil
// span clears the binding.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanKey{}, span)
}

func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// Bind runs fn with span active. Goroutines started from the context passed to
// fn observe span; ctx itself is left unchanged.
func Bind(ctx context.Context, span *Span, fn func(ctx context.Context) error) error {
	return fn(ContextWithSpan(ctx, span))
}
