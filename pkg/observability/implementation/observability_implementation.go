package implementation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jt828/ollyllm-go/pkg/observability"
)

type observabilityImplementation struct {
	log    observability.Logger
	meter  observability.Meter
	tracer observability.Tracer

	metricsAddr   string
	metricsServer *http.Server
	traceClose    func(context.Context) error
}

// Close stops the metrics endpoint, flushes pending self-telemetry spans and
// syncs the logger. The first error is returned; later steps still run.
func (o *observabilityImplementation) Close(ctx context.Context) error {
	var err error
	if o.metricsServer != nil {
		if e := o.metricsServer.Shutdown(ctx); e != nil {
			err = fmt.Errorf("metrics server shutdown: %w", e)
		}
	}
	if o.traceClose != nil {
		if e := o.traceClose(ctx); e != nil && err == nil {
			err = fmt.Errorf("trace provider shutdown: %w", e)
		}
	}
	if err != nil {
		o.log.Warn("observability close incomplete", observability.Field{Key: "error", Value: err})
	}
	if s, ok := o.log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return err
}

func (o *observabilityImplementation) Logger() observability.Logger { return o.log }
func (o *observabilityImplementation) Meter() observability.Meter   { return o.meter }

// Start exposes the Prometheus registry when a metrics address is configured.
// Meters that are not Prometheus backed have nothing to serve.
func (o *observabilityImplementation) Start(ctx context.Context) error {
	if o.metricsAddr == "" {
		return nil
	}
	pm, ok := o.meter.(*prometheusMeter)
	if !ok {
		return nil
	}
	srv, addr, err := StartMetricsServer(o.metricsAddr, pm.Registry(), func(err error) {
		o.log.Error("metrics server stopped", observability.Field{Key: "error", Value: err})
	})
	if err != nil {
		return fmt.Errorf("metrics server on %s: %w", o.metricsAddr, err)
	}
	o.metricsServer = srv
	o.log.Info("metrics server listening", observability.Field{Key: "addr", Value: addr.String()})
	return nil
}

func (o *observabilityImplementation) Tracer() observability.Tracer { return o.tracer }
