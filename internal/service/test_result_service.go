package service

import (
	"context"

	"github.com/jt828/ollyllm-go/internal/repository"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/snowflake"
)

type TestResultService interface {
	GetSpanResults(ctx context.Context, spanId string) ([]model.TestResult, error)
	ReportTestResults(ctx context.Context, results []model.TestResult) error
}

type testResultService struct {
	uowFactory repository.UnitOfWorkFactory
	snowflake  snowflake.Snowflake
}

func NewTestResultService(uowFactory repository.UnitOfWorkFactory, snowflake snowflake.Snowflake) TestResultService {
	return &testResultService{uowFactory: uowFactory, snowflake: snowflake}
}

func (s *testResultService) GetSpanResults(ctx context.Context, spanId string) ([]model.TestResult, error) {
	uow, err := s.uowFactory.NewReadOnly(ctx)
	if err != nil {
		return nil, err
	}

	results, err := uow.TestResultRepository().FindBySpanId(ctx, spanId)
	if err != nil {
		_ = uow.Abort(ctx)
		return nil, err
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *testResultService) ReportTestResults(ctx context.Context, results []model.TestResult) error {
	uow, err := s.uowFactory.New(ctx)
	if err != nil {
		return err
	}

	for _, result := range results {
		if err := uow.TestResultRepository().Insert(ctx, s.snowflake.Generate(), result); err != nil {
			_ = uow.Abort(ctx)
			return err
		}
	}

	return uow.Commit(ctx)
}
