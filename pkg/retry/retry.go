package retry

import (
	"context"
	"time"
)

type Retry interface {
	Execute(ctx context.Context, fn func() error) error
}

type Config struct {
	RetryableFn func(err error) bool
	Interval    time.Duration
	// MaxInterval caps the exponential delay; zero leaves it uncapped.
	MaxInterval   time.Duration
	JitterPercent uint64
	OnRetry       func(attempt int, err error)
}

type Option func(*Config)

func WithRetryable(fn func(err error) bool) Option {
	return func(c *Config) {
		c.RetryableFn = fn
	}
}

func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

func WithMaxInterval(d time.Duration) Option {
	return func(c *Config) {
		c.MaxInterval = d
	}
}

// WithJitter spreads each delay by up to percent of its value.
func WithJitter(percent uint64) Option {
	return func(c *Config) {
		c.JitterPercent = percent
	}
}

// WithOnRetry is called before each retry with the 1-based attempt that failed.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

func ApplyOptions(opts ...Option) *Config {
	c := &Config{Interval: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
