package analysisGrpc

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"safemc"
)

// Create a UnaryServerInterceptor that logs every call.
//
// The logger is attached to the context of the call, so the analyses started by the handler log to it as well.
// A panic of the handler is logged and returned as codes.Internal.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		log := logger.With("method", info.FullMethod)
		start := time.Now()
		defer func() {
			if p := recover(); p != nil {
				log.Error("Call panicked", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
				resp, err = nil, status.Errorf(codes.Internal, "analysisGrpc: %v panicked: %v", info.FullMethod, p)
			}
		}()
		resp, err = handler(safemc.WithLogger(ctx, log), req)
		if err != nil {
			log.Warn("Call failed",
				slog.String("code", status.Code(err).String()),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)
			return resp, err
		}
		log.Debug("Call completed", slog.Duration("duration", time.Since(start)))
		return resp, nil
	}
}
