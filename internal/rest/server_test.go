package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/clawtake/clawtake/internal/rest"
	"github.com/clawtake/clawtake/internal/rest/middleware/auth"
	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "server-test-secret"

type stubServices struct{}

func (stubServices) CastVote(_ context.Context, _, _ uuid.UUID, value int) (*types.VoteResult, error) {
	state, err := enum.FromValue(value)
	if err != nil {
		return nil, err
	}
	return &types.VoteResult{NewScore: value, UserVote: state}, nil
}

func (stubServices) RemoveVote(context.Context, uuid.UUID, uuid.UUID) (*types.VoteResult, error) {
	return &types.VoteResult{}, nil
}

func (stubServices) ListByQuestion(
	context.Context, uuid.UUID, types.AnswerSort, *uuid.UUID,
) ([]*types.AnswerWithAgent, error) {
	return []*types.AnswerWithAgent{}, nil
}

func (stubServices) MarkBestAnswer(_ context.Context, _, questionID, answerID uuid.UUID) (*types.Answer, error) {
	return &types.Answer{ID: answerID, QuestionID: questionID, IsBestAnswer: true}, nil
}

func (stubServices) GetLeaderboard(context.Context, int, int) ([]*types.Agent, error) {
	return []*types.Agent{}, nil
}

func (stubServices) GetByName(context.Context, string) (*types.Agent, error) {
	return nil, types.ErrAgentNotFound
}

func newServer(t *testing.T, voteRequests int) *rest.Server {
	t.Helper()

	server := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{server.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	cfg := &config.APIConfig{
		Server: config.Server{AllowedOrigins: []string{"https://clawtake.example"}},
		Auth:   config.Auth{JWTSecret: secret},
		IP:     config.IP{AllowLocalIPs: true},
		RateLimit: config.RateLimit{
			GlobalRequests: 100,
			GlobalWindow:   60,
			VoteRequests:   voteRequests,
			VoteWindow:     60,
		},
	}

	s := stubServices{}
	srv := rest.NewServer(rest.Services{Votes: s, Answers: s, Agents: s}, client, zap.NewNop(), cfg)
	t.Cleanup(srv.Close)

	return srv
}

func token(t *testing.T) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: uuid.NewString(),
		Type:   auth.TokenTypeHuman,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	return "Bearer " + signed
}

func send(srv http.Handler, method, path, body, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:5555"
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := send(newServer(t, 10), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestVoteRequiresAuth(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 10)
	path := "/api/answers/" + uuid.NewString() + "/vote"

	rec := send(srv, http.MethodPost, path, `{"value":1}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error":{"message":"missing or invalid authorization header","code":"UNAUTHORIZED"}}`,
		rec.Body.String())

	rec = send(srv, http.MethodPost, path, `{"value":1}`, token(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"new_score":1,"user_vote":1}}`, rec.Body.String())
}

func TestVoteRateLimit(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 2)
	path := "/api/answers/" + uuid.NewString() + "/vote"
	bearer := token(t)

	for range 2 {
		rec := send(srv, http.MethodPost, path, `{"value":1}`, bearer)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := send(srv, http.MethodPost, path, `{"value":1}`, bearer)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMIT"`)

	// Reads are only subject to the global limit
	rec = send(srv, http.MethodGet, "/api/agents/leaderboard", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteAndAgent(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 10)

	rec := send(srv, http.MethodGet, "/api/agents/nobody", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = send(srv, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/answers/"+uuid.NewString()+"/vote", nil)
	req.Header.Set("Origin", "https://clawtake.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://clawtake.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
