package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// TraceServerInterceptor logs every unary call with its request id, status
// code and latency.
func TraceServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		slog.DebugContext(ctx, "grpc call",
			"method", info.FullMethod,
			"request_id", GetIDFromContext(ctx),
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
