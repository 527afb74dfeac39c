package circuitbreaker

import (
	"errors"
	"time"
)

// ErrOpen is returned without running the operation while the breaker is open
// or while a half-open breaker is already admitting its trial request.
var ErrOpen = errors.New("circuit breaker is open")

const DefaultConsecutiveFailures = 5

type State int

const (
	Closed State = iota
	HalfOpen
	Open
)

func (s State) String() string {
	switch s {
	case HalfOpen:
		return "half-open"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

type CircuitBreaker interface {
	Execute(fn func() (any, error)) (any, error)
	State() State
}

type Config struct {
	// ConsecutiveFailures trips the breaker; zero never trips it.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	OnStateChange       func(from, to State)
}

type Option func(*Config)

func WithConsecutiveFailures(n uint32) Option {
	return func(c *Config) {
		c.ConsecutiveFailures = n
	}
}

func WithOpenTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.OpenTimeout = d
	}
}

func WithStateChange(fn func(from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

func ApplyOptions(opts ...Option) *Config {
	c := &Config{ConsecutiveFailures: DefaultConsecutiveFailures}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
