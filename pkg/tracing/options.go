package tracing

import (
	"time"

	"github.com/jt828/ollyllm-go/pkg/exporter"
	"github.com/jt828/ollyllm-go/pkg/observability"
	"github.com/jt828/ollyllm-go/pkg/snowflake"
	"github.com/kelseyhightower/envconfig"
)

const DefaultFlushInterval = 5 * time.Second

type Options struct {
	APIKey        string        `envconfig:"API_KEY"`
	BaseURL       string        `envconfig:"BASE_URL"`
	Debug         bool          `envconfig:"DEBUG"`
	FlushInterval time.Duration `envconfig:"FLUSH_INTERVAL" default:"5s"`
}

// OptionsFromEnv reads OLLY_API_KEY, OLLY_BASE_URL, OLLY_DEBUG and
// OLLY_FLUSH_INTERVAL.
func OptionsFromEnv() (Options, error) {
	var opts Options
	if err := envconfig.Process("olly", &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

type settings struct {
	logger   observability.Logger
	meter    observability.Meter
	tracer   observability.Tracer
	exporter exporter.Exporter
	now      func() time.Time
	newID    func() string
	batchIDs snowflake.Snowflake
}

type Option func(*settings)

func WithLogger(log observability.Logger) Option {
	return func(s *settings) {
		s.logger = log
	}
}

func WithMeter(meter observability.Meter) Option {
	return func(s *settings) {
		s.meter = meter
	}
}

func WithTracer(tracer observability.Tracer) Option {
	return func(s *settings) {
		s.tracer = tracer
	}
}

// WithExporter replaces the gRPC collector exporter. It has no effect in debug
// mode, where records are only logged.
func WithExporter(exp exporter.Exporter) Option {
	return func(s *settings) {
		s.exporter = exp
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *settings) {
		s.newID = newID
	}
}

func WithBatchIDs(ids snowflake.Snowflake) Option {
	return func(s *settings) {
		s.batchIDs = ids
	}
}
