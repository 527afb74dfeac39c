package interceptor

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/jt828/ollyllm-go/pkg/apperror"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const authorizationHeader = "authorization"

// AuthInterceptor accepts calls whose authorization metadata matches one of
// apiKeys. With no keys configured every call is accepted.
func AuthInterceptor(apiKeys []string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if len(apiKeys) == 0 {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		for _, presented := range md.Get(authorizationHeader) {
			for _, key := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
					return handler(ctx, req)
				}
			}
		}
		return nil, fmt.Errorf("%s: missing or unknown api key: %w", info.FullMethod, apperror.ErrUnauthenticated)
	}
}
