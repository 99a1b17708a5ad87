package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var (
	ErrMissingToken    = errors.New("missing or invalid authorization header")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrNotHumanAccount = errors.New("this action requires a human account")
)

// TokenTypeHuman marks tokens issued to human accounts.
const TokenTypeHuman = "human"

type principalCtxKey struct{}

// Principal is the authenticated human making the request.
type Principal struct {
	UserID uuid.UUID
}

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return principal, ok
}

// WithPrincipal returns a context carrying principal.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principal)
}

// ErrorWriter writes an authentication failure response.
type ErrorWriter func(w http.ResponseWriter, err error) error

// Middleware verifies bearer tokens.
type Middleware struct {
	parser  *jwt.Parser
	secret  []byte
	onError ErrorWriter
	logger  *zap.Logger
}

// New creates a new auth middleware for HS256 tokens signed with secret.
// An empty issuer disables the issuer check.
func New(secret, issuer string, onError ErrorWriter, logger *zap.Logger) *Middleware {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}

	return &Middleware{
		parser:  jwt.NewParser(options...),
		secret:  []byte(secret),
		onError: onError,
		logger:  logger.Named("auth_middleware"),
	}
}

// Required rejects requests without a valid human token.
func (m *Middleware) Required(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		principal, err := m.Authenticate(req.Header.Get("Authorization"))
		if err != nil {
			m.logger.Debug("Rejected request", zap.String("path", req.URL.Path), zap.Error(err))
			return m.onError(w, err)
		}

		return next(w, req.WithContext(WithPrincipal(req.Context(), principal)))
	}
}

// Optional attaches the principal when a valid human token is present and
// otherwise lets the request through anonymously.
func (m *Middleware) Optional(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		principal, err := m.Authenticate(req.Header.Get("Authorization"))
		if err != nil {
			return next(w, req)
		}

		return next(w, req.WithContext(WithPrincipal(req.Context(), principal)))
	}
}

// Authenticate verifies an Authorization header value.
func (m *Middleware) Authenticate(authorization string) (*Principal, error) {
	raw, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}

	var claims Claims

	_, err := m.parser.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Type != TokenTypeHuman {
		return nil, ErrNotHumanAccount
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id", ErrInvalidToken)
	}

	return &Principal{UserID: userID}, nil
}
