package service

import (
	"context"
	"time"

	"github.com/jt828/ollyllm-go/internal/constant"
	"github.com/jt828/ollyllm-go/internal/repository"
	"github.com/jt828/ollyllm-go/pkg/idempotency"
	"github.com/jt828/ollyllm-go/pkg/model"
)

type SpanService interface {
	GetTrace(ctx context.Context, traceId string) ([]model.SpanRecord, error)
	ReportSpans(ctx context.Context, batch model.SpanBatch) (int, error)
}

type spanService struct {
	uowFactory  repository.UnitOfWorkFactory
	idempotency idempotency.Idempotency
	now         func() time.Time
}

func NewSpanService(uowFactory repository.UnitOfWorkFactory, idempotency idempotency.Idempotency) SpanService {
	return &spanService{uowFactory: uowFactory, idempotency: idempotency, now: time.Now}
}

func (s *spanService) GetTrace(ctx context.Context, traceId string) ([]model.SpanRecord, error) {
	uow, err := s.uowFactory.NewReadOnly(ctx)
	if err != nil {
		return nil, err
	}

	spans, err := uow.SpanRepository().FindByTraceId(ctx, traceId)
	if err != nil {
		_ = uow.Abort(ctx)
		return nil, err
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	return spans, nil
}

// ReportSpans stores a batch once per batch id. A replayed batch returns the
// count accepted the first time.
func (s *spanService) ReportSpans(ctx context.Context, batch model.SpanBatch) (int, error) {
	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		return 0, err
	}

	receivedAt := s.now().UTC()
	result, err := s.idempotency.Execute(ctx, uow.IdempotencyRecordRepository(), batch.ID, constant.RequestTypeReportSpan, batch.ID, func() any { return new(int) }, func() (any, error) {
		accepted, err := uow.SpanRepository().InsertBatch(ctx, batch.ID, receivedAt, batch.Spans)
		if err != nil {
			return nil, err
		}
		return &accepted, nil
	})
	if err != nil {
		_ = uow.Abort(ctx)
		return 0, err
	}

	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}

	return *result.(*int), nil
}
