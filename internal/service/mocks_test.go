package service_test

import (
	"context"
	"time"

	"github.com/jt828/ollyllm-go/internal/constant"
	"github.com/jt828/ollyllm-go/internal/repository"
	"github.com/jt828/ollyllm-go/pkg/idempotency"
	"github.com/jt828/ollyllm-go/pkg/model"
)

type mockSnowflake struct {
	next int64
}

func (m *mockSnowflake) Generate() int64 {
	m.next++
	return m.next
}

type mockSpanRepository struct {
	findFunc   func(ctx context.Context, traceId string) ([]model.SpanRecord, error)
	insertFunc func(ctx context.Context, batchId int64, spans []model.SpanRecord) (int, error)
}

func (m *mockSpanRepository) FindByTraceId(ctx context.Context, traceId string) ([]model.SpanRecord, error) {
	return m.findFunc(ctx, traceId)
}

func (m *mockSpanRepository) InsertBatch(ctx context.Context, batchId int64, _ time.Time, spans []model.SpanRecord) (int, error) {
	return m.insertFunc(ctx, batchId, spans)
}

type mockTestResultRepository struct {
	inserted   map[int64]model.TestResult
	insertErr  error
	findResult []model.TestResult
}

func (m *mockTestResultRepository) FindBySpanId(_ context.Context, _ string) ([]model.TestResult, error) {
	return m.findResult, nil
}

func (m *mockTestResultRepository) Insert(_ context.Context, id int64, result model.TestResult) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.inserted == nil {
		m.inserted = map[int64]model.TestResult{}
	}
	m.inserted[id] = result
	return nil
}

type mockIdempotencyRecordRepository struct{}

func (m *mockIdempotencyRecordRepository) Get(ctx context.Context, id int64) (*idempotency.Record, error) {
	return nil, nil
}

func (m *mockIdempotencyRecordRepository) Insert(ctx context.Context, record *idempotency.Record) error {
	return nil
}

type mockUnitOfWork struct {
	spanRepo        repository.SpanRepository
	testResultRepo  repository.TestResultRepository
	idempotencyRepo idempotency.RecordRepository
	committed       bool
	aborted         bool
	commitErr       error
}

func (m *mockUnitOfWork) SpanRepository() repository.SpanRepository { return m.spanRepo }
func (m *mockUnitOfWork) TestResultRepository() repository.TestResultRepository {
	return m.testResultRepo
}
func (m *mockUnitOfWork) IdempotencyRecordRepository() idempotency.RecordRepository {
	return m.idempotencyRepo
}
func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	m.committed = true
	return m.commitErr
}
func (m *mockUnitOfWork) Abort(ctx context.Context) error {
	m.aborted = true
	return nil
}

type mockUnitOfWorkFactory struct {
	uow      *mockUnitOfWork
	err      error
	readOnly bool
}

func (m *mockUnitOfWorkFactory) New(ctx context.Context) (repository.UnitOfWork, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.uow, nil
}

func (m *mockUnitOfWorkFactory) NewReadOnly(ctx context.Context) (repository.UnitOfWork, error) {
	m.readOnly = true
	return m.New(ctx)
}

type mockIdempotency struct {
	executeFunc func(ctx context.Context, repo idempotency.RecordRepository, id int64, requestType constant.RequestType, referenceId int64, newResult func() any, fn func() (any, error)) (any, error)
}

func (m *mockIdempotency) Execute(ctx context.Context, repo idempotency.RecordRepository, id int64, requestType constant.RequestType, referenceId int64, newResult func() any, fn func() (any, error)) (any, error) {
	return m.executeFunc(ctx, repo, id, requestType, referenceId, newResult, fn)
}

// passthroughIdempotency runs fn every time.
func passthroughIdempotency() *mockIdempotency {
	return &mockIdempotency{executeFunc: func(_ context.Context, _ idempotency.RecordRepository, _ int64, _ constant.RequestType, _ int64, _ func() any, fn func() (any, error)) (any, error) {
		return fn()
	}}
}
