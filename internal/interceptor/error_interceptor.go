package interceptor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jt828/ollyllm-go/pkg/apperror"
	"github.com/jt828/ollyllm-go/pkg/circuitbreaker"
	"github.com/jt828/ollyllm-go/pkg/observability"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorInterceptor turns handler errors into gRPC statuses. Errors without a
// known mapping are logged and hidden behind codes.Internal.
func ErrorInterceptor(log observability.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", observability.String("panic", fmt.Sprintf("%v", r)), observability.String("method", info.FullMethod))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		resp, err = handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		trace.SpanFromContext(ctx).RecordError(err)

		if _, ok := status.FromError(err); ok {
			return nil, err
		}

		switch {
		case errors.Is(err, apperror.ErrNotFound):
			return nil, status.Error(codes.NotFound, err.Error())
		case errors.Is(err, apperror.ErrInvalidArgument):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, apperror.ErrUnauthenticated):
			return nil, status.Error(codes.Unauthenticated, err.Error())
		case errors.Is(err, circuitbreaker.ErrOpen):
			return nil, status.Error(codes.Unavailable, err.Error())
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		default:
			trace.SpanFromContext(ctx).SetStatus(otelcodes.Error, "unhandled error")
			log.Error("unhandled error", observability.Err(err), observability.String("method", info.FullMethod))
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}
}
