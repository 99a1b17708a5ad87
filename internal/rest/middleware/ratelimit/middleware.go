package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/clawtake/clawtake/internal/rest/middleware/ip"
	"github.com/clawtake/clawtake/pkg/utils"
	"github.com/redis/rueidis"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const headerRetryAfter = "Retry-After"

// Defaults applied to unset rule fields.
const (
	DefaultRequests = 60
	DefaultWindow   = time.Minute
)

// Rule is a fixed window limit applied per client IP.
type Rule struct {
	Prefix   string
	Requests int
	Window   time.Duration
}

// LimitWriter writes the response for a rejected request.
type LimitWriter func(w http.ResponseWriter) error

// Middleware enforces a Rule using Redis counters shared by every API
// instance. When Redis is unavailable it falls back to per-process token
// buckets so requests are neither blocked nor left unlimited.
type Middleware struct {
	client    rueidis.Client
	rule      Rule
	fallback  *utils.TTLMap[string, *rate.Limiter]
	onLimited LimitWriter
	logger    *zap.Logger
}

// New creates a new rate limiting middleware. A nil client uses the
// in-process limiter only. Windows are whole seconds.
func New(client rueidis.Client, rule Rule, onLimited LimitWriter, logger *zap.Logger) *Middleware {
	if rule.Requests <= 0 {
		rule.Requests = DefaultRequests
	}
	if rule.Window < time.Second {
		rule.Window = DefaultWindow
	}

	return &Middleware{
		client:    client,
		rule:      rule,
		fallback:  utils.NewTTLMap[string, *rate.Limiter](rule.Window * 2),
		onLimited: onLimited,
		logger:    logger.Named("ratelimit_" + rule.Prefix),
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for rate limiting.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		clientIP := ip.FromContext(req.Context())

		allowed, retryAfter := m.Allow(req.Context(), clientIP)
		if !allowed {
			if retryAfter > 0 {
				w.Header().Set(headerRetryAfter, strconv.FormatInt(int64(retryAfter.Round(time.Second)/time.Second), 10))
			}
			return m.onLimited(w)
		}

		return next(w, req)
	}
}

// Allow records a request from clientIP and reports whether it fits the
// current window, along with how long to wait when it does not.
func (m *Middleware) Allow(ctx context.Context, clientIP string) (bool, time.Duration) {
	if m.client != nil {
		allowed, retryAfter, err := m.allowRedis(ctx, clientIP)
		if err == nil {
			return allowed, retryAfter
		}
		m.logger.Warn("Redis rate limit check failed, using local limiter",
			zap.String("ip", clientIP),
			zap.Error(err))
	}

	return m.allowLocal(clientIP)
}

// Close stops the fallback limiter sweep.
func (m *Middleware) Close() {
	m.fallback.Close()
}

// Key returns the Redis key counting requests for clientIP.
func (m *Middleware) Key(clientIP string) string {
	return "ratelimit:" + m.rule.Prefix + ":" + clientIP
}

// allowRedis increments the fixed window counter for clientIP. The counter is created
// together with its expiry so a failed request can never leave a key without a TTL.
func (m *Middleware) allowRedis(ctx context.Context, clientIP string) (bool, time.Duration, error) {
	key := m.Key(clientIP)

	resps := m.client.DoMulti(ctx,
		m.client.B().Set().Key(key).Value("0").Nx().Ex(m.rule.Window).Build(),
		m.client.B().Incr().Key(key).Build(),
	)
	if err := resps[0].Error(); err != nil && !rueidis.IsRedisNil(err) {
		return false, 0, fmt.Errorf("open window: %w", err)
	}

	count, err := resps[1].AsInt64()
	if err != nil {
		return false, 0, fmt.Errorf("incr: %w", err)
	}

	if count <= int64(m.rule.Requests) {
		return true, 0, nil
	}

	window := int64(m.rule.Window / time.Second)

	ttl, err := m.client.Do(ctx, m.client.B().Ttl().Key(key).Build()).AsInt64()
	switch {
	case err != nil:
		ttl = window
	case ttl == -1:
		// A counter without an expiry would block the client forever
		if err := m.client.Do(ctx, m.client.B().Expire().Key(key).Seconds(window).Build()).Error(); err != nil {
			return false, 0, fmt.Errorf("expire: %w", err)
		}
		ttl = window
	case ttl < 0:
		ttl = window
	}

	m.logger.Debug("Rate limit exceeded",
		zap.String("ip", clientIP),
		zap.Int64("count", count),
		zap.Int64("retry_after", ttl))

	return false, time.Duration(ttl) * time.Second, nil
}

// allowLocal consults the in-process token bucket for clientIP.
func (m *Middleware) allowLocal(clientIP string) (bool, time.Duration) {
	limiter := m.fallback.GetOrSet(clientIP, func() *rate.Limiter {
		every := m.rule.Window / time.Duration(max(m.rule.Requests, 1))
		return rate.NewLimiter(rate.Every(every), m.rule.Requests)
	})

	reservation := limiter.Reserve()
	if !reservation.OK() {
		return false, m.rule.Window
	}

	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, max(delay, time.Second)
	}

	return true, 0
}
