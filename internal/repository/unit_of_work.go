package repository

import (
	"context"
	"sync"

	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/idempotency"
	"github.com/jt828/ollyllm-go/pkg/retry"
	"gorm.io/gorm"
)

type UnitOfWork interface {
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	SpanRepository() SpanRepository
	TestResultRepository() TestResultRepository
	IdempotencyRecordRepository() idempotency.RecordRepository
}

type transactionDbUnitOfWork struct {
	tx                              *gorm.DB
	cb                              circuitbreaker.CircuitBreaker
	retry                           retry.Retry
	spanRepository                  SpanRepository
	spanRepositoryOnce              sync.Once
	testResultRepository            TestResultRepository
	testResultRepositoryOnce        sync.Once
	idempotencyRecordRepository     idempotency.RecordRepository
	idempotencyRecordRepositoryOnce sync.Once
}

func (u *transactionDbUnitOfWork) SpanRepository() SpanRepository {
	u.spanRepositoryOnce.Do(func() {
		u.spanRepository = NewSpanRepository(u.tx, u.cb, u.retry)
	})
	return u.spanRepository
}

func (u *transactionDbUnitOfWork) TestResultRepository() TestResultRepository {
	u.testResultRepositoryOnce.Do(func() {
		u.testResultRepository = NewTestResultRepository(u.tx, u.cb, u.retry)
	})
	return u.testResultRepository
}

func (u *transactionDbUnitOfWork) IdempotencyRecordRepository() idempotency.RecordRepository {
	u.idempotencyRecordRepositoryOnce.Do(func() {
		u.idempotencyRecordRepository = NewIdempotencyRecordRepository(u.tx, u.cb, u.retry, false)
	})
	return u.idempotencyRecordRepository
}

func (u *transactionDbUnitOfWork) Commit(ctx context.Context) error {
	return u.tx.WithContext(ctx).Commit().Error
}

func (u *transactionDbUnitOfWork) Abort(ctx context.Context) error {
	return u.tx.WithContext(ctx).Rollback().Error
}
