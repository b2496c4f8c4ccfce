package server

import (
	"context"
	"crypto/subtle"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
)

// APIKeyHeader carries the API secret on HTTP requests.
const APIKeyHeader = "X-API-Key"

// ApiSecretMiddleware returns a Kratos middleware that validates the X-API-Key
// header. An empty secret disables authentication.
// Swagger UI and /metrics are registered outside the route table and are
// not covered.
func ApiSecretMiddleware(secret string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if secret == "" {
				return handler(ctx, req)
			}

			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, kerrors.InternalServer("NO_TRANSPORT", "no transport in context")
			}

			key := tr.RequestHeader().Get(APIKeyHeader)
			if key == "" {
				return nil, kerrors.Unauthorized("API_KEY_MISSING", "missing X-API-Key header")
			}

			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				return nil, kerrors.Unauthorized("API_KEY_INVALID", "invalid X-API-Key")
			}

			return handler(ctx, req)
		}
	}
}
