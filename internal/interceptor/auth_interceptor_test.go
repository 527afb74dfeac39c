package interceptor_test

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/jt828/ollyllm-go/internal/interceptor"
	"github.com/jt828/ollyllm-go/pkg/apperror"
	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestAuthInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: wire.ReportSpanMethod}
	ok := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	withKey := func(key string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", key))
	}

	t.Run("no configured keys accepts everything", func(t *testing.T) {
		resp, err := interceptor.AuthInterceptor(nil)(context.Background(), nil, info, ok)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("matching key is accepted", func(t *testing.T) {
		resp, err := interceptor.AuthInterceptor([]string{"first", "second"})(withKey("second"), nil, info, ok)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		_, err := interceptor.AuthInterceptor([]string{"first"})(withKey("other"), nil, info, ok)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})

	t.Run("missing metadata is rejected", func(t *testing.T) {
		_, err := interceptor.AuthInterceptor([]string{"first"})(context.Background(), nil, info, ok)
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})
}

type errorControlledServer struct {
	wire.UnimplementedCollectorServer
	err error
}

func (s *errorControlledServer) ReportSpan(_ context.Context, batch model.SpanBatch) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(batch.Spans), nil
}

func (s *errorControlledServer) ReportTestResult(_ context.Context, _ []model.TestResult) error {
	return s.err
}

func (s *errorControlledServer) GetTrace(_ context.Context, _ string) ([]model.SpanRecord, error) {
	return nil, s.err
}

func setupInterceptorServer(t *testing.T, svc wire.CollectorServer, apiKeys []string) *wire.CollectorClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptor.ErrorInterceptor(&mockLogger{}),
		interceptor.AuthInterceptor(apiKeys),
	))
	require.NoError(t, wire.RegisterCollectorServer(srv, svc))
	t.Cleanup(srv.GracefulStop)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := wire.NewCollectorClient(conn)
	require.NoError(t, err)
	return client
}

func TestInterceptors_OverTheWire(t *testing.T) {
	batch := model.SpanBatch{ID: 1, Spans: []model.SpanRecord{{ID: "root", TraceID: "trace", OperationName: "answer"}}}

	t.Run("authorized call reaches the handler", func(t *testing.T) {
		client := setupInterceptorServer(t, &errorControlledServer{}, []string{"secret"})
		ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "secret")

		accepted, err := client.ReportSpan(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, 1, accepted)
	})

	t.Run("missing key becomes codes.Unauthenticated", func(t *testing.T) {
		client := setupInterceptorServer(t, &errorControlledServer{}, []string{"secret"})

		_, err := client.ReportSpan(context.Background(), batch)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("validation failure becomes codes.InvalidArgument", func(t *testing.T) {
		client := setupInterceptorServer(t, &errorControlledServer{err: apperror.ErrInvalidArgument}, nil)

		_, err := client.ReportSpan(context.Background(), batch)
		st, ok := status.FromError(err)
		require.True(t, ok)
		assert.Equal(t, codes.InvalidArgument, st.Code())
		assert.Equal(t, apperror.ErrInvalidArgument.Error(), st.Message())
	})

	t.Run("missing trace becomes codes.NotFound", func(t *testing.T) {
		client := setupInterceptorServer(t, &errorControlledServer{err: fmt.Errorf("trace %q: %w", "gone", apperror.ErrNotFound)}, nil)

		_, err := client.GetTrace(context.Background(), "gone")
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		client := setupInterceptorServer(t, &errorControlledServer{err: assert.AnError}, nil)

		err := client.ReportTestResult(context.Background(), []model.TestResult{{SpanID: "root"}})
		st, ok := status.FromError(err)
		require.True(t, ok)
		assert.Equal(t, codes.Internal, st.Code())
		assert.Equal(t, "internal server error", st.Message())
	})
}
