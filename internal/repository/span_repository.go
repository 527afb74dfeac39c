package repository

import (
	"context"
	"time"

	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpanRepository interface {
	FindByTraceId(ctx context.Context, traceId string) ([]model.SpanRecord, error)
	InsertBatch(ctx context.Context, batchId int64, receivedAt time.Time, spans []model.SpanRecord) (int, error)
}

type SpanRepositoryImpl struct {
	db    *gorm.DB
	cb    circuitbreaker.CircuitBreaker
	retry retry.Retry
}

func NewSpanRepository(db *gorm.DB, cb circuitbreaker.CircuitBreaker, retry retry.Retry) SpanRepository {
	return &SpanRepositoryImpl{db: db, cb: cb, retry: retry}
}

func (r *SpanRepositoryImpl) FindByTraceId(ctx context.Context, traceId string) ([]model.SpanRecord, error) {
	return execute(ctx, r.cb, r.retry, func() ([]model.SpanRecord, error) {
		var entities []model.SpanDataEntity
		if err := r.db.WithContext(ctx).Where("trace_id = ?", traceId).Order("start_time").Find(&entities).Error; err != nil {
			return nil, err
		}
		spans := make([]model.SpanRecord, 0, len(entities))
		for i := range entities {
			span, err := entities[i].ToDomain()
			if err != nil {
				return nil, err
			}
			spans = append(spans, span)
		}
		return spans, nil
	})
}

// InsertBatch skips spans that are already stored and returns how many rows
// were written.
func (r *SpanRepositoryImpl) InsertBatch(ctx context.Context, batchId int64, receivedAt time.Time, spans []model.SpanRecord) (int, error) {
	if len(spans) == 0 {
		return 0, nil
	}

	entities := make([]model.SpanDataEntity, 0, len(spans))
	for _, span := range spans {
		entity, err := model.NewSpanDataEntity(span, batchId, receivedAt)
		if err != nil {
			return 0, err
		}
		entities = append(entities, entity)
	}

	return execute(ctx, r.cb, r.retry, func() (int, error) {
		tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entities)
		if tx.Error != nil {
			return 0, tx.Error
		}
		return int(tx.RowsAffected), nil
	})
}
