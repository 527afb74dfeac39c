package model

import "time"

type TestResult struct {
	SpanID      string
	TraceID     string
	TestID      string
	TestVersion string
	Passed      bool
	Error       string
	Timestamp   time.Time
}

func (dataEntity *TestResultDataEntity) ToDomain() TestResult {
	return TestResult{
		SpanID:      dataEntity.SpanId,
		TraceID:     dataEntity.TraceId,
		TestID:      dataEntity.TestId,
		TestVersion: dataEntity.TestVersion,
		Passed:      dataEntity.Passed,
		Error:       dataEntity.Error,
		Timestamp:   dataEntity.Timestamp,
	}
}

func NewTestResultDataEntity(id int64, result TestResult) TestResultDataEntity {
	return TestResultDataEntity{
		Id:          id,
		SpanId:      result.SpanID,
		TraceId:     result.TraceID,
		TestId:      result.TestID,
		TestVersion: result.TestVersion,
		Passed:      result.Passed,
		Error:       result.Error,
		Timestamp:   result.Timestamp,
	}
}

type TestResultDataEntity struct {
	Id          int64     `gorm:"column:id"`
	SpanId      string    `gorm:"column:span_id"`
	TraceId     string    `gorm:"column:trace_id"`
	TestId      string    `gorm:"column:test_id"`
	TestVersion string    `gorm:"column:test_version"`
	Passed      bool      `gorm:"column:passed"`
	Error       string    `gorm:"column:error"`
	Timestamp   time.Time `gorm:"column:timestamp"`
}

func (dataEntity *TestResultDataEntity) TableName() string {
	return "main.test_results"
}
