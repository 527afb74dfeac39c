package controller

import (
	"context"
	"fmt"

	"github.com/jt828/ollyllm-go/internal/service"
	"github.com/jt828/ollyllm-go/pkg/apperror"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/wire"
)

var _ wire.CollectorServer = (*CollectorController)(nil)

type CollectorController struct {
	wire.UnimplementedCollectorServer
	spanService       service.SpanService
	testResultService service.TestResultService
}

func NewCollectorController(spanService service.SpanService, testResultService service.TestResultService) *CollectorController {
	return &CollectorController{spanService: spanService, testResultService: testResultService}
}

func (ctrl *CollectorController) ReportSpan(ctx context.Context, batch model.SpanBatch) (int, error) {
	if batch.ID <= 0 {
		return 0, fmt.Errorf("batch_id must be greater than 0: %w", apperror.ErrInvalidArgument)
	}
	for i, span := range batch.Spans {
		if span.ID == "" {
			return 0, fmt.Errorf("spans[%d].id is required: %w", i, apperror.ErrInvalidArgument)
		}
		if span.TraceID == "" {
			return 0, fmt.Errorf("spans[%d].trace_id is required: %w", i, apperror.ErrInvalidArgument)
		}
		if !span.EndTime.IsZero() && span.EndTime.Before(span.StartTime) {
			return 0, fmt.Errorf("spans[%d] ends before it starts: %w", i, apperror.ErrInvalidArgument)
		}
	}
	if len(batch.Spans) == 0 {
		return 0, nil
	}

	return ctrl.spanService.ReportSpans(ctx, batch)
}

func (ctrl *CollectorController) ReportTestResult(ctx context.Context, results []model.TestResult) error {
	for i, result := range results {
		if result.SpanID == "" {
			return fmt.Errorf("results[%d].span_id is required: %w", i, apperror.ErrInvalidArgument)
		}
		if result.TestID == "" {
			return fmt.Errorf("results[%d].test_id is required: %w", i, apperror.ErrInvalidArgument)
		}
	}
	if len(results) == 0 {
		return nil
	}

	return ctrl.testResultService.ReportTestResults(ctx, results)
}

func (ctrl *CollectorController) GetTrace(ctx context.Context, traceID string) ([]model.SpanRecord, error) {
	if traceID == "" {
		return nil, fmt.Errorf("trace_id is required: %w", apperror.ErrInvalidArgument)
	}
	spans, err := ctrl.spanService.GetTrace(ctx, traceID)
	if err != nil {
		return nil, err
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("trace %q: %w", traceID, apperror.ErrNotFound)
	}
	return spans, nil
}

// GetSpanResults returns ErrNotFound when no validator reported against spanID.
func (ctrl *CollectorController) GetSpanResults(ctx context.Context, spanID string) ([]model.TestResult, error) {
	if spanID == "" {
		return nil, fmt.Errorf("span_id is required: %w", apperror.ErrInvalidArgument)
	}
	results, err := ctrl.testResultService.GetSpanResults(ctx, spanID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("test results for span %q: %w", spanID, apperror.ErrNotFound)
	}
	return results, nil
}
