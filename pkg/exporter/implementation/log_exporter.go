package implementation

import (
	"context"

	"github.com/jt828/ollyllm-go/pkg/exporter"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/observability"
	snowflakeImpl "github.com/jt828/ollyllm-go/pkg/snowflake/implementation"
)

type logExporter struct {
	log observability.Logger
}

func NewLogExporter(log observability.Logger) exporter.Exporter {
	return &logExporter{log: log}
}

func (e *logExporter) ExportSpans(_ context.Context, batch model.SpanBatch) error {
	batchLog := e.log.With(
		observability.Int64("batch_id", batch.ID),
		observability.Any("batch_created", snowflakeImpl.GeneratedAt(batch.ID)),
	)
	for _, r := range batch.Spans {
		batchLog.Info("span",
			observability.String("span_id", r.ID),
			observability.String("parent_id", r.ParentID),
			observability.String("trace_id", r.TraceID),
			observability.String("operation", r.OperationName),
			observability.Any("start", r.StartTime),
			observability.Any("end", r.EndTime),
			observability.Int64("duration_ms", r.EndTime.Sub(r.StartTime).Milliseconds()),
			observability.Any("logs", r.Logs),
		)
	}
	return nil
}

func (e *logExporter) ReportTestResults(_ context.Context, results []model.TestResult) error {
	for _, r := range results {
		e.log.Info("test result",
			observability.String("span_id", r.SpanID),
			observability.String("trace_id", r.TraceID),
			observability.String("test_id", r.TestID),
			observability.String("test_version", r.TestVersion),
			observability.Bool("passed", r.Passed),
			observability.String("error", r.Error),
		)
	}
	return nil
}

func (e *logExporter) Shutdown(_ context.Context) error {
	return nil
}
