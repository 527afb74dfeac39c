package repository

import (
	"context"
	"database/sql"

	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/retry"
	"gorm.io/gorm"
)

type UnitOfWorkFactory interface {
	New(ctx context.Context) (UnitOfWork, error)
	// NewReadOnly begins a transaction that rejects writes.
	NewReadOnly(ctx context.Context) (UnitOfWork, error)
}

type transactionDbUnitOfWorkFactory struct {
	db    *gorm.DB
	cb    circuitbreaker.CircuitBreaker
	retry retry.Retry
}

func NewTransactionDbUnitOfWorkFactory(db *gorm.DB, cb circuitbreaker.CircuitBreaker, retry retry.Retry) UnitOfWorkFactory {
	return &transactionDbUnitOfWorkFactory{db: db, cb: cb, retry: retry}
}

func (f *transactionDbUnitOfWorkFactory) New(ctx context.Context) (UnitOfWork, error) {
	return f.begin(ctx, nil)
}

func (f *transactionDbUnitOfWorkFactory) NewReadOnly(ctx context.Context) (UnitOfWork, error) {
	return f.begin(ctx, &sql.TxOptions{ReadOnly: true})
}

func (f *transactionDbUnitOfWorkFactory) begin(ctx context.Context, opts *sql.TxOptions) (UnitOfWork, error) {
	tx := f.db.WithContext(ctx).Begin(opts)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &transactionDbUnitOfWork{tx: tx, cb: f.cb, retry: f.retry}, nil
}
