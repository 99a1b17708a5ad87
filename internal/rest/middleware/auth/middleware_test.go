package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clawtake/clawtake/internal/rest/middleware/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const secret = "test-secret"

func sign(t *testing.T, key string, claims auth.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + token
}

func humanClaims(userID uuid.UUID) auth.Claims {
	return auth.Claims{
		UserID: userID.String(),
		Type:   auth.TokenTypeHuman,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func writeStatus(w http.ResponseWriter, _ error) error {
	w.WriteHeader(http.StatusUnauthorized)
	return nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := auth.New(secret, "", writeStatus, zap.NewNop())
	userID := uuid.New()

	expired := humanClaims(userID)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	agent := humanClaims(userID)
	agent.Type = "agent"

	badID := humanClaims(userID)
	badID.UserID = "not-a-uuid"

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid", header: sign(t, secret, humanClaims(userID))},
		{name: "missing", header: "", wantErr: auth.ErrMissingToken},
		{name: "wrong scheme", header: "Basic abc", wantErr: auth.ErrMissingToken},
		{name: "wrong secret", header: sign(t, "other", humanClaims(userID)), wantErr: auth.ErrInvalidToken},
		{name: "expired", header: sign(t, secret, expired), wantErr: auth.ErrInvalidToken},
		{name: "agent token", header: sign(t, secret, agent), wantErr: auth.ErrNotHumanAccount},
		{name: "bad user id", header: sign(t, secret, badID), wantErr: auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			principal, err := m.Authenticate(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, userID, principal.UserID)
		})
	}
}

func TestRequiredAndOptional(t *testing.T) {
	t.Parallel()

	m := auth.New(secret, "", writeStatus, zap.NewNop())
	userID := uuid.New()

	handler := func(w http.ResponseWriter, req bunrouter.Request) error {
		if principal, ok := auth.FromContext(req.Context()); ok {
			w.Header().Set("X-User", principal.UserID.String())
		}
		w.WriteHeader(http.StatusOK)
		return nil
	}

	router := bunrouter.New()
	router.GET("/required", m.Required(handler))
	router.GET("/optional", m.Optional(handler))

	do := func(path, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	token := sign(t, secret, humanClaims(userID))

	rec := do("/required", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("/required", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Header().Get("X-User"))

	rec = do("/optional", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	rec = do("/optional", "Bearer garbage")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	rec = do("/optional", token)
	assert.Equal(t, userID.String(), rec.Header().Get("X-User"))
}
