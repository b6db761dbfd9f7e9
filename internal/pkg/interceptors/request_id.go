package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/storefront/internal/pkg/interceptors/constants"
)

// UnaryServerInterceptor copies the caller's x-request-id into the context,
// minting one when the metadata carries none.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := GetMetadataValue(ctx, constants.HeaderXRequestId)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = WithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(constants.HeaderXRequestId, requestID))
		return handler(ctx, req)
	}
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.ContextKeyRequestID, id)
}

// GetIDFromContext returns the request id set by the HTTP middleware or the
// gRPC interceptor, or "unknown".
func GetIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && id != "" {
		return id
	}
	if id := GetMetadataValue(ctx, constants.HeaderXRequestId); id != "" {
		return id
	}
	return "unknown"
}

// ContextWithPropagatedID forwards the request id on outgoing gRPC calls.
func ContextWithPropagatedID(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, constants.HeaderXRequestId, GetIDFromContext(ctx))
}

func GetMetadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}

	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if ids := md.Get(key); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}
