package repository

import (
	"context"

	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/retry"
	"gorm.io/gorm"
)

type TestResultRepository interface {
	FindBySpanId(ctx context.Context, spanId string) ([]model.TestResult, error)
	Insert(ctx context.Context, id int64, result model.TestResult) error
}

type TestResultRepositoryImpl struct {
	db    *gorm.DB
	cb    circuitbreaker.CircuitBreaker
	retry retry.Retry
}

func NewTestResultRepository(db *gorm.DB, cb circuitbreaker.CircuitBreaker, retry retry.Retry) TestResultRepository {
	return &TestResultRepositoryImpl{db: db, cb: cb, retry: retry}
}

func (r *TestResultRepositoryImpl) FindBySpanId(ctx context.Context, spanId string) ([]model.TestResult, error) {
	return execute(ctx, r.cb, r.retry, func() ([]model.TestResult, error) {
		var entities []model.TestResultDataEntity
		if err := r.db.WithContext(ctx).Where("span_id = ?", spanId).Order("id").Find(&entities).Error; err != nil {
			return nil, err
		}
		results := make([]model.TestResult, len(entities))
		for i := range entities {
			results[i] = entities[i].ToDomain()
		}
		return results, nil
	})
}

func (r *TestResultRepositoryImpl) Insert(ctx context.Context, id int64, result model.TestResult) error {
	entity := model.NewTestResultDataEntity(id, result)
	_, err := execute(ctx, r.cb, r.retry, func() (struct{}, error) {
		return struct{}{}, r.db.WithContext(ctx).Create(&entity).Error
	})
	return err
}
