package idempotency

import "time"

// Record is the stored outcome of a request, keyed by its idempotency id.
// ResponseData holds the JSON encoded result.
type Record struct {
	Id           int64
	RequestType  string
	ReferenceId  int64
	ResponseData string
	CreatedAt    time.Time
}
