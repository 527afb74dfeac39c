package model

import (
	"encoding/json"
	"time"
)

type SpanLog struct {
	Level     string            `json:"level"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// SpanRecord is a closed span flattened for buffering and export. Children are
// linked through ParentID only.
type SpanRecord struct {
	ID            string
	ParentID      string
	TraceID       string
	OperationName string
	StartTime     time.Time
	EndTime       time.Time
	Logs          []SpanLog
}

func (r SpanRecord) IsRoot() bool {
	return r.ParentID == ""
}

type SpanBatch struct {
	ID    int64
	Spans []SpanRecord
}

func (dataEntity *SpanDataEntity) ToDomain() (SpanRecord, error) {
	var logs []SpanLog
	if dataEntity.Logs != "" {
		if err := json.Unmarshal([]byte(dataEntity.Logs), &logs); err != nil {
			return SpanRecord{}, err
		}
	}
	return SpanRecord{
		ID:            dataEntity.Id,
		ParentID:      dataEntity.ParentId,
		TraceID:       dataEntity.TraceId,
		OperationName: dataEntity.OperationName,
		StartTime:     dataEntity.StartTime,
		EndTime:       dataEntity.EndTime,
		Logs:          logs,
	}, nil
}

func NewSpanDataEntity(record SpanRecord, batchId int64, receivedAt time.Time) (SpanDataEntity, error) {
	var logs string
	if len(record.Logs) > 0 {
		data, err := json.Marshal(record.Logs)
		if err != nil {
			return SpanDataEntity{}, err
		}
		logs = string(data)
	}
	return SpanDataEntity{
		Id:            record.ID,
		ParentId:      record.ParentID,
		TraceId:       record.TraceID,
		OperationName: record.OperationName,
		StartTime:     record.StartTime,
		EndTime:       record.EndTime,
		Logs:          logs,
		BatchId:       batchId,
		ReceivedAt:    receivedAt,
	}, nil
}

type SpanDataEntity struct {
	Id            string    `gorm:"column:id"`
	ParentId      string    `gorm:"column:parent_id"`
	TraceId       string    `gorm:"column:trace_id"`
	OperationName string    `gorm:"column:operation_name"`
	StartTime     time.Time `gorm:"column:start_time"`
	EndTime       time.Time `gorm:"column:end_time"`
	Logs          string    `gorm:"column:logs"`
	BatchId       int64     `gorm:"column:batch_id"`
	ReceivedAt    time.Time `gorm:"column:received_at"`
}

func (dataEntity *SpanDataEntity) TableName() string {
	return "main.spans"
}
