package repository

import (
	"context"
	"errors"

	"github.com/jt828/ollyllm-go/internal/constant"
	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/idempotency"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IdempotencyRecordRepositoryImpl struct {
	db              *gorm.DB
	cb              circuitbreaker.CircuitBreaker
	retry           retry.Retry
	notFoundAsError bool
}

func NewIdempotencyRecordRepository(db *gorm.DB, cb circuitbreaker.CircuitBreaker, retry retry.Retry, notFoundAsError bool) idempotency.RecordRepository {
	return &IdempotencyRecordRepositoryImpl{db: db, cb: cb, retry: retry, notFoundAsError: notFoundAsError}
}

// Get returns nil without error for an unknown id unless notFoundAsError is set.
func (r *IdempotencyRecordRepositoryImpl) Get(ctx context.Context, id int64) (*idempotency.Record, error) {
	return execute(ctx, r.cb, r.retry, func() (*idempotency.Record, error) {
		var entity model.IdempotencyRecordDataEntity
		err := r.db.WithContext(ctx).Where("id = ?", id).Take(&entity).Error
		switch {
		case err == nil:
			record := entity.ToDomain()
			return &record, nil
		case !r.notFoundAsError && errors.Is(err, gorm.ErrRecordNotFound):
			return nil, nil
		default:
			return nil, err
		}
	})
}

// Insert leaves an existing record untouched. Two deliveries of the same batch
// racing past Get both succeed; the first committed response wins.
func (r *IdempotencyRecordRepositoryImpl) Insert(ctx context.Context, record *idempotency.Record) error {
	entity := model.IdempotencyRecordDataEntity{
		Id:           record.Id,
		RequestType:  constant.RequestType(record.RequestType),
		ReferenceId:  record.ReferenceId,
		ResponseData: record.ResponseData,
		CreatedAt:    record.CreatedAt,
	}
	_, err := execute(ctx, r.cb, r.retry, func() (struct{}, error) {
		return struct{}{}, r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entity).Error
	})
	return err
}
