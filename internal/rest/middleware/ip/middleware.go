package ip

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/clawtake/clawtake/internal/rest/middleware/header"
	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type ipCtxKey struct{}

// UnknownIP is returned when no valid IP can be determined.
const UnknownIP = "unknown"

// defaultHeaders are checked when no custom headers are configured.
var defaultHeaders = []string{"X-Forwarded-For", "X-Real-IP"} //nolint:gochecknoglobals // -

// FromContext retrieves the client IP from the context.
func FromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipCtxKey{}).(string); ok {
		return ip
	}
	return UnknownIP
}

// Middleware resolves the client IP and stores it in the context.
type Middleware struct {
	checker *Checker
	headers []string
	config  *config.IP
	logger  *zap.Logger
}

// New creates a new IP middleware.
func New(logger *zap.Logger, config *config.IP) *Middleware {
	logger = logger.Named("ip_middleware")

	headers := config.CustomHeaders
	if len(headers) == 0 {
		headers = defaultHeaders
	}

	return &Middleware{
		checker: NewChecker(logger, config.TrustedProxies, config.AllowLocalIPs),
		headers: headers,
		config:  config,
		logger:  logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for client IP resolution.
// Requests without a usable client IP are rejected.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		ip := m.getClientIP(req.Context())
		if ip == UnknownIP {
			m.logger.Warn("No valid client IP found in request",
				zap.String("remoteAddr", header.FromRemoteAddr(req.Context())))
			http.Error(w, "Invalid IP address", http.StatusForbidden)
			return nil
		}

		ctx := context.WithValue(req.Context(), ipCtxKey{}, ip)

		return next(w, req.WithContext(ctx))
	}
}

// getClientIP resolves the client IP from the stored remote address and,
// for trusted proxies only, the forwarding headers.
func (m *Middleware) getClientIP(ctx context.Context) string {
	remoteIP := m.getRemoteIP(ctx)
	if remoteIP == nil {
		return UnknownIP
	}

	if m.config.EnableHeaderValidation && m.checker.IsTrustedProxy(remoteIP) {
		if ip := m.getIPFromHeaders(header.FromHeaders(ctx)); ip != UnknownIP {
			return ip
		}
		m.logger.Debug("No valid IP found in headers from trusted proxy",
			zap.String("proxy", remoteIP.String()))
	}

	if !m.checker.IsValidClientIP(remoteIP) {
		return UnknownIP
	}

	return remoteIP.String()
}

// getRemoteIP parses the remote address stored by the header middleware.
func (m *Middleware) getRemoteIP(ctx context.Context) net.IP {
	remoteAddr := header.FromRemoteAddr(ctx)
	if remoteAddr == "" {
		return nil
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	return net.ParseIP(host)
}

// getIPFromHeaders returns the first valid client IP found in the configured headers.
func (m *Middleware) getIPFromHeaders(headers http.Header) string {
	for _, name := range m.headers {
		value := headers.Get(name)
		if value == "" {
			continue
		}

		if strings.Contains(value, ",") {
			if ip := m.getForwardedIP(value); ip != UnknownIP {
				return ip
			}
			continue
		}

		if ip := m.checker.ValidateIP(value); ip != UnknownIP {
			return ip
		}
	}

	return UnknownIP
}

// getForwardedIP walks a forwarded chain from the closest hop, skipping
// trusted proxies, and returns the first client address.
func (m *Middleware) getForwardedIP(forwarded string) string {
	hops := strings.Split(forwarded, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := net.ParseIP(strings.TrimSpace(hops[i]))
		if hop == nil {
			continue
		}

		if m.checker.IsTrustedProxy(hop) {
			continue
		}

		if m.checker.IsValidClientIP(hop) {
			return hop.String()
		}

		return UnknownIP
	}

	return UnknownIP
}
