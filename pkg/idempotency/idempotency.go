package idempotency

import (
	"context"
	"errors"

	"github.com/jt828/ollyllm-go/internal/constant"
)

// ErrRequestTypeMismatch is returned when a stored record for the id was
// written by a different kind of request.
var ErrRequestTypeMismatch = errors.New("idempotency key reused by a different request type")

type RecordRepository interface {
	Get(ctx context.Context, id int64) (*Record, error)
	Insert(ctx context.Context, record *Record) error
}

// Idempotency runs fn at most once per id. On a replay the stored response is
// decoded into the value returned by newResult instead.
type Idempotency interface {
	Execute(ctx context.Context, repo RecordRepository, id int64, requestType constant.RequestType, referenceId int64, newResult func() any, fn func() (any, error)) (any, error)
}
