package exporter

import (
	"context"

	"github.com/jt828/ollyllm-go/pkg/model"
)

type Exporter interface {
	ExportSpans(ctx context.Context, batch model.SpanBatch) error
	ReportTestResults(ctx context.Context, results []model.TestResult) error
	Shutdown(ctx context.Context) error
}
