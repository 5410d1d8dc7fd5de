package auth

import (
	"context"
	"strings"

	"github.com/appetiteclub/apt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// StreamInterceptor is the gRPC counterpart of Middleware. The token comes
// from the "authorization" metadata, with or without the "Bearer " prefix.
func StreamInterceptor(v *Verifier, logger apt.Logger) grpc.StreamServerInterceptor {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		if v == nil || !v.Enabled() {
			return handler(srv, &actorStream{ServerStream: ss, ctx: WithActor(ctx, Anonymous)})
		}

		actor, err := v.Verify(metadataToken(ctx))
		if err != nil {
			logger.Debug("rejected stream token", "method", info.FullMethod, "error", err)
			return status.Error(codes.Unauthenticated, "invalid or missing token")
		}

		return handler(srv, &actorStream{ServerStream: ss, ctx: WithActor(ctx, actor)})
	}
}

func metadataToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimPrefix(values[0], "Bearer ")
}

type actorStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *actorStream) Context() context.Context {
	return s.ctx
}
