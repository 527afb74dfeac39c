package repository

import (
	"context"

	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/retry"
)

// execute runs fn with retries inside the circuit breaker. The breaker counts
// one failure per exhausted retry sequence.
func execute[T any](ctx context.Context, cb circuitbreaker.CircuitBreaker, r retry.Retry, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (any, error) {
		var value T
		err := r.Execute(ctx, func() error {
			var err error
			value, err = fn()
			return err
		})
		if err != nil {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, _ := result.(T)
	return value, nil
}
