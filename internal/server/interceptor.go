package server

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ClientSecretHeader is the gRPC metadata key checked by the interceptors.
const ClientSecretHeader = "x-client-secret"

// Client-secret callers are limited to the health service.
var (
	allowedClientSecretUnaryMethods  = []string{"/Check"}
	allowedClientSecretStreamMethods = []string{"/Watch"}
)

func checkClientSecret(ctx context.Context, secret, fullMethod string, allowed []string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	vals := md.Get(ClientSecretHeader)
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing x-client-secret")
	}

	if subtle.ConstantTimeCompare([]byte(vals[0]), []byte(secret)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid x-client-secret")
	}

	for _, suffix := range allowed {
		if strings.HasSuffix(fullMethod, suffix) {
			return nil
		}
	}
	return status.Error(codes.PermissionDenied, "client-secret not permitted for this method")
}

// ClientSecretInterceptor validates x-client-secret on unary calls. An empty
// secret disables authentication.
func ClientSecretInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if secret == "" {
			return handler(ctx, req)
		}
		if err := checkClientSecret(ctx, secret, info.FullMethod, allowedClientSecretUnaryMethods); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// ClientSecretStreamInterceptor is the streaming counterpart of
// ClientSecretInterceptor.
func ClientSecretStreamInterceptor(secret string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if secret == "" {
			return handler(srv, ss)
		}
		if err := checkClientSecret(ss.Context(), secret, info.FullMethod, allowedClientSecretStreamMethods); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
