package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/observability"
)

const reportTimeout = 10 * time.Second

type Validator[T any] struct {
	ID      string
	Version string
	Check   func(result T) bool
}

// TraceWithTests behaves like Trace and, when fn succeeds, checks its result
// against validators before returning it. Validators see the result exactly as
// fn produced it; the caller owns it afterwards. Reporting against the span fn
// ran in happens in the background and the caller never waits for it.
func TraceWithTests[T any](ctx context.Context, s *Session, name string, validators []Validator[T], fn func(ctx context.Context) (T, error)) (T, error) {
	if s == nil {
		warnUninitialized()
		return fn(ctx)
	}

	result, span, err := traceSpan(ctx, s, name, fn)
	if err != nil || span == nil || len(validators) == 0 {
		return result, err
	}

	reportCtx := context.WithoutCancel(ctx)
	spanID := span.ID()
	results := evaluate(validators, result, spanID, span.TraceID(), s.now)
	started := s.track(func() {
		s.reportTestResults(reportCtx, results)
	})
	if !started {
		s.log.Warn("session is shutting down, test results dropped",
			observability.String("span_id", spanID),
			observability.Int("validators", len(validators)),
		)
	}
	return result, err
}

func evaluate[T any](validators []Validator[T], result T, spanID, traceID string, now func() time.Time) []model.TestResult {
	results := make([]model.TestResult, 0, len(validators))
	for _, v := range validators {
		passed, msg := check(v, result)
		results = append(results, model.TestResult{
			SpanID:      spanID,
			TraceID:     traceID,
			TestID:      v.ID,
			TestVersion: v.Version,
			Passed:      passed,
			Error:       msg,
			Timestamp:   now(),
		})
	}
	return results
}

// check treats a panicking validator as failed.
func check[T any](v Validator[T], result T) (passed bool, msg string) {
	if v.Check == nil {
		return false, "validator has no check function"
	}
	defer func() {
		if r := recover(); r != nil {
			passed = false
			msg = fmt.Sprintf("validator panicked: %v", r)
		}
	}()
	return v.Check(result), ""
}

func (s *Session) reportTestResults(ctx context.Context, results []model.TestResult) {
	for _, r := range results {
		s.metrics.testResult(r.Passed)
	}

	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	if err := s.exporter.ReportTestResults(ctx, results); err != nil {
		s.log.Error("failed to report test results",
			observability.Err(err),
			observability.Int("results", len(results)),
		)
	}
}
