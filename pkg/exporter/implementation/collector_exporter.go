package implementation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	cbImpl "github.com/jt828/ollyllm-go/pkg/circuitbreaker/implementation"
	"github.com/jt828/ollyllm-go/pkg/exporter"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/observability"
	obsImpl "github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/jt828/ollyllm-go/pkg/retry"
	retryImpl "github.com/jt828/ollyllm-go/pkg/retry/implementation"
	"github.com/jt828/ollyllm-go/pkg/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationHeader = "authorization"
	maxRetryInterval    = 2 * time.Second
)

type CollectorConfig struct {
	APIKey        string
	BaseURL       string
	MaxRetries    uint64
	RetryInterval time.Duration
	CallTimeout   time.Duration
}

type collectorExporter struct {
	conn      *grpc.ClientConn
	client    *wire.CollectorClient
	cb        circuitbreaker.CircuitBreaker
	retry     retry.Retry
	timeout   time.Duration
	closeOnce sync.Once
	closeErr  error
}

// NewCollectorExporter creates the gRPC client lazily: grpc.NewClient does not
// dial until the first call.
func NewCollectorExporter(cfg CollectorConfig, meter observability.Meter, opts ...grpc.DialOption) (exporter.Exporter, error) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 10 * time.Second
	}

	interceptors := []grpc.UnaryClientInterceptor{APIKeyInterceptor(cfg.APIKey)}
	if reg := obsImpl.PromRegistry(meter); reg != nil {
		metrics, err := registerClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		interceptors = append(interceptors, metrics.UnaryClientInterceptor())
	}

	breakerState := meter.Gauge("ollyllm_collector_circuit_breaker_state", observability.MetricOpt{
		Help: "Collector circuit breaker state: 0 closed, 1 half-open, 2 open.",
	})
	retries := meter.Counter("ollyllm_collector_retries_total", observability.MetricOpt{
		Help: "Collector calls retried after a transient failure.",
	})

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(interceptors...),
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(Target(cfg.BaseURL), dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create collector client: %w", err)
	}
	client, err := wire.NewCollectorClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &collectorExporter{
		conn:   conn,
		client: client,
		cb: cbImpl.NewCircuitBreaker("collector", circuitbreaker.WithStateChange(func(_, to circuitbreaker.State) {
			breakerState.Set(float64(to))
		})),
		retry: retryImpl.NewRetry(cfg.MaxRetries,
			retry.WithInterval(cfg.RetryInterval),
			retry.WithMaxInterval(maxRetryInterval),
			retry.WithJitter(10),
			retry.WithRetryable(IsRetryable),
			retry.WithOnRetry(func(int, error) { retries.Inc(1) }),
		),
		timeout: cfg.CallTimeout,
	}, nil
}

func (e *collectorExporter) ExportSpans(ctx context.Context, batch model.SpanBatch) error {
	_, err := e.cb.Execute(func() (any, error) {
		err := e.retry.Execute(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			_, err := e.client.ReportSpan(callCtx, batch)
			return err
		})
		return nil, err
	})
	return err
}

func (e *collectorExporter) ReportTestResults(ctx context.Context, results []model.TestResult) error {
	if len(results) == 0 {
		return nil
	}
	_, err := e.cb.Execute(func() (any, error) {
		err := e.retry.Execute(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			return e.client.ReportTestResult(callCtx, results)
		})
		return nil, err
	})
	return err
}

func (e *collectorExporter) Shutdown(_ context.Context) error {
	e.closeOnce.Do(func() {
		e.closeErr = e.conn.Close()
	})
	return e.closeErr
}

func APIKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, authorizationHeader, apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func IsRetryable(err error) bool {
	return status.Code(err) == codes.Unavailable
}

// Target turns a configured base URL into a gRPC target. Plain http(s)
// schemes are accepted for compatibility with URL-style configuration.
func Target(baseURL string) string {
	target := strings.TrimPrefix(baseURL, "http://")
	target = strings.TrimPrefix(target, "https://")
	return strings.TrimSuffix(target, "/")
}

func registerClientMetrics(reg *prometheus.Registry) (*grpc_prometheus.ClientMetrics, error) {
	metrics := grpc_prometheus.NewClientMetrics()
	if err := reg.Register(metrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*grpc_prometheus.ClientMetrics); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register grpc client metrics: %w", err)
	}
	return metrics, nil
}
