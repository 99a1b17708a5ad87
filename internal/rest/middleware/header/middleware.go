package header

import (
	"context"
	"net/http"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type (
	remoteAddrCtxKey struct{}
	headersCtxKey    struct{}
)

// FromRemoteAddr retrieves the remote address from context.
func FromRemoteAddr(ctx context.Context) string {
	if addr, ok := ctx.Value(remoteAddrCtxKey{}).(string); ok {
		return addr
	}
	return ""
}

// FromHeaders retrieves the request headers from context.
func FromHeaders(ctx context.Context) http.Header {
	if headers, ok := ctx.Value(headersCtxKey{}).(http.Header); ok {
		return headers
	}
	return http.Header{}
}

// Middleware stores the connection details later middlewares depend on.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new header middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger.Named("header_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for header extraction.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		ctx := WithRequest(req.Context(), req.RemoteAddr, req.Header)

		m.logger.Debug("Stored remote address", zap.String("addr", req.RemoteAddr))

		return next(w, req.WithContext(ctx))
	}
}

// WithRequest returns a context carrying the remote address and a copy of the headers.
func WithRequest(ctx context.Context, remoteAddr string, headers http.Header) context.Context {
	ctx = context.WithValue(ctx, remoteAddrCtxKey{}, remoteAddr)
	return context.WithValue(ctx, headersCtxKey{}, headers.Clone())
}
