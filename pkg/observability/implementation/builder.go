package implementation

import (
	"context"
	"fmt"

	"github.com/jt828/ollyllm-go/pkg/observability"
)

type Config struct {
	ServiceName   string
	MetricsAddr   string
	TraceEndpoint string
	Development   bool
}

// NewObservability wires zap, Prometheus and, when TraceEndpoint is set, an
// OTLP tracer. Without an endpoint the tracer is a no-op.
func NewObservability(cfg Config) (observability.Observability, error) {
	log, err := NewZapLogger(cfg.Development)
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName != "" {
		log = log.With(observability.Field{Key: "service", Value: cfg.ServiceName})
	}

	o := &observabilityImplementation{
		log:         log,
		meter:       NewPrometheusMeter(),
		tracer:      NewNoopTracer(),
		metricsAddr: cfg.MetricsAddr,
	}
	if cfg.TraceEndpoint == "" {
		return o, nil
	}

	tracer, shutdown, err := NewOtelTracer(context.Background(), cfg.ServiceName, cfg.TraceEndpoint)
	if err != nil {
		return nil, fmt.Errorf("otlp tracer for %s: %w", cfg.TraceEndpoint, err)
	}
	o.tracer = tracer
	o.traceClose = shutdown
	return o, nil
}
