package implementation_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/exporter/implementation"
	"github.com/jt828/ollyllm-go/pkg/model"
	obsImpl "github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/jt828/ollyllm-go/pkg/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeCollector struct {
	wire.UnimplementedCollectorServer
	mu          sync.Mutex
	failures    []error
	calls       int
	apiKeys     []string
	batches     []model.SpanBatch
	testResults []model.TestResult
}

func (f *fakeCollector) next(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		f.apiKeys = append(f.apiKeys, md.Get("authorization")...)
	}
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return err
	}
	return nil
}

func (f *fakeCollector) ReportSpan(ctx context.Context, batch model.SpanBatch) (int, error) {
	if err := f.next(ctx); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return len(batch.Spans), nil
}

func (f *fakeCollector) ReportTestResult(ctx context.Context, results []model.TestResult) error {
	if err := f.next(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.testResults = append(f.testResults, results...)
	return nil
}

func dialer(t *testing.T, srv wire.CollectorServer) grpc.DialOption {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	require.NoError(t, wire.RegisterCollectorServer(server, srv))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestCollectorExporter_ExportSpans(t *testing.T) {
	cfg := implementation.CollectorConfig{
		APIKey:        "secret",
		BaseURL:       "passthrough:///bufnet",
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}
	batch := model.SpanBatch{
		ID:    9,
		Spans: []model.SpanRecord{{ID: "a", TraceID: "a", OperationName: "root"}},
	}

	t.Run("sends batch with api key metadata", func(t *testing.T) {
		srv := &fakeCollector{}
		exp, err := implementation.NewCollectorExporter(cfg, obsImpl.NewPrometheusMeter(), dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		require.NoError(t, exp.ExportSpans(context.Background(), batch))

		require.Len(t, srv.batches, 1)
		assert.Equal(t, int64(9), srv.batches[0].ID)
		assert.Equal(t, []string{"secret"}, srv.apiKeys)
	})

	t.Run("retries unavailable then succeeds", func(t *testing.T) {
		srv := &fakeCollector{failures: []error{
			status.Error(codes.Unavailable, "down"),
			status.Error(codes.Unavailable, "down"),
		}}
		meter := obsImpl.NewPrometheusMeter()
		exp, err := implementation.NewCollectorExporter(cfg, meter, dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		require.NoError(t, exp.ExportSpans(context.Background(), batch))

		assert.Equal(t, 3, srv.calls)
		assert.Len(t, srv.batches, 1)
		assert.Equal(t, 2.0, counterValue(t, obsImpl.PromRegistry(meter), "ollyllm_collector_retries_total"))
	})

	t.Run("does not retry non retryable error", func(t *testing.T) {
		srv := &fakeCollector{failures: []error{status.Error(codes.InvalidArgument, "bad")}}
		exp, err := implementation.NewCollectorExporter(cfg, obsImpl.NewPrometheusMeter(), dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		err = exp.ExportSpans(context.Background(), batch)

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Equal(t, 1, srv.calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		srv := &fakeCollector{failures: []error{
			status.Error(codes.Unavailable, "down"),
			status.Error(codes.Unavailable, "down"),
			status.Error(codes.Unavailable, "down"),
			status.Error(codes.Unavailable, "down"),
		}}
		exp, err := implementation.NewCollectorExporter(cfg, obsImpl.NewPrometheusMeter(), dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		err = exp.ExportSpans(context.Background(), batch)

		assert.Equal(t, codes.Unavailable, status.Code(err))
		assert.Equal(t, 3, srv.calls)
		assert.Empty(t, srv.batches)
	})

	t.Run("breaker opens after repeated failed exports", func(t *testing.T) {
		failures := make([]error, circuitbreaker.DefaultConsecutiveFailures)
		for i := range failures {
			failures[i] = status.Error(codes.PermissionDenied, "revoked")
		}
		srv := &fakeCollector{failures: failures}
		exp, err := implementation.NewCollectorExporter(cfg, obsImpl.NewPrometheusMeter(), dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		for range failures {
			_ = exp.ExportSpans(context.Background(), batch)
		}
		err = exp.ExportSpans(context.Background(), batch)

		assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
		assert.Equal(t, len(failures), srv.calls)
	})
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			var total float64
			for _, m := range f.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	return 0
}

func TestCollectorExporter_ReportTestResults(t *testing.T) {
	cfg := implementation.CollectorConfig{APIKey: "k", BaseURL: "passthrough:///bufnet", RetryInterval: time.Millisecond}

	t.Run("sends results", func(t *testing.T) {
		srv := &fakeCollector{}
		exp, err := implementation.NewCollectorExporter(cfg, obsImpl.NewPrometheusMeter(), dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		err = exp.ReportTestResults(context.Background(), []model.TestResult{{SpanID: "a", TestID: "t", Passed: true}})

		require.NoError(t, err)
		require.Len(t, srv.testResults, 1)
		assert.Equal(t, "t", srv.testResults[0].TestID)
	})

	t.Run("empty results make no call", func(t *testing.T) {
		srv := &fakeCollector{}
		exp, err := implementation.NewCollectorExporter(cfg, obsImpl.NewPrometheusMeter(), dialer(t, srv))
		require.NoError(t, err)
		t.Cleanup(func() { _ = exp.Shutdown(context.Background()) })

		require.NoError(t, exp.ReportTestResults(context.Background(), nil))
		assert.Equal(t, 0, srv.calls)
	})
}

func TestCollectorExporter_SharedRegistry(t *testing.T) {
	meter := obsImpl.NewPrometheusMeter()
	cfg := implementation.CollectorConfig{APIKey: "k", BaseURL: "localhost:1"}

	first, err := implementation.NewCollectorExporter(cfg, meter)
	require.NoError(t, err)
	second, err := implementation.NewCollectorExporter(cfg, meter)
	require.NoError(t, err)

	assert.NoError(t, first.Shutdown(context.Background()))
	assert.NoError(t, second.Shutdown(context.Background()))
	assert.NoError(t, second.Shutdown(context.Background()))
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "collector:50051", implementation.Target("http://collector:50051/"))
	assert.Equal(t, "collector:50051", implementation.Target("https://collector:50051"))
	assert.Equal(t, "passthrough:///bufnet", implementation.Target("passthrough:///bufnet"))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, implementation.IsRetryable(status.Error(codes.Unavailable, "x")))
	assert.False(t, implementation.IsRetryable(status.Error(codes.Internal, "x")))
	assert.False(t, implementation.IsRetryable(context.Canceled))
}
