package tracing

import (
	"context"
	"time"

	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/observability"
)

func (s *Session) run(interval time.Duration) {
	defer close(s.stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Flush(context.Background())
		}
	}
}

// Flush exports everything buffered so far as one batch. A failed batch is
// logged and dropped; spans closed during the export wait for the next flush.
func (s *Session) Flush(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	records := s.buffer.Drain()
	if len(records) == 0 {
		return
	}
	s.metrics.buffered.Set(float64(s.buffer.Len()))

	ctx, span := s.tracer.Start(ctx, "ollyllm.flush")
	defer span.End()
	defer s.metrics.flushDuration.Start()()

	batch := model.SpanBatch{ID: s.batchIDs.Generate(), Spans: records}
	span.SetAttributes(
		observability.Int64("batch_id", batch.ID),
		observability.Int("spans", len(records)),
		observability.Bool("debug", s.debug),
	)
	s.metrics.batchSize.Observe(float64(len(records)))

	if err := s.exporter.ExportSpans(ctx, batch); err != nil {
		exportErr := &ExportError{BatchID: batch.ID, Spans: len(records), Err: err}
		span.RecordError(exportErr)
		s.log.Error("failed to flush spans",
			observability.Err(exportErr),
			observability.Int64("batch_id", batch.ID),
			observability.Int("spans", len(records)),
		)
		s.metrics.flushes.Inc(1, outcomeLabel(outcomeFailure))
		return
	}

	if s.debug {
		s.metrics.flushes.Inc(1, outcomeLabel(outcomeDebug))
		return
	}
	s.metrics.flushes.Inc(1, outcomeLabel(outcomeSuccess))
}
