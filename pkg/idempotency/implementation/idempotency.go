package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jt828/ollyllm-go/internal/constant"
	"github.com/jt828/ollyllm-go/pkg/idempotency"
)

type idempotencyImpl struct {
	now func() time.Time
}

type Option func(*idempotencyImpl)

func WithClock(now func() time.Time) Option {
	return func(i *idempotencyImpl) {
		i.now = now
	}
}

func NewIdempotency(opts ...Option) idempotency.Idempotency {
	i := &idempotencyImpl{now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *idempotencyImpl) Execute(
	ctx context.Context,
	repo idempotency.RecordRepository,
	id int64,
	requestType constant.RequestType,
	referenceId int64,
	newResult func() any,
	fn func() (any, error),
) (any, error) {
	record, err := repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load idempotency record %d: %w", id, err)
	}

	if record != nil {
		if record.RequestType != string(requestType) {
			return nil, fmt.Errorf("record %d is %s, not %s: %w", id, record.RequestType, requestType, idempotency.ErrRequestTypeMismatch)
		}
		result := newResult()
		if err := json.Unmarshal([]byte(record.ResponseData), result); err != nil {
			return nil, fmt.Errorf("decode idempotency record %d: %w", id, err)
		}
		return result, nil
	}

	result, err := fn()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	err = repo.Insert(ctx, &idempotency.Record{
		Id:           id,
		RequestType:  string(requestType),
		ReferenceId:  referenceId,
		ResponseData: string(data),
		CreatedAt:    i.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("store idempotency record %d: %w", id, err)
	}

	return result, nil
}
