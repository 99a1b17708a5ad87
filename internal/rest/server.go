package rest

import (
	"net/http"
	"time"

	"github.com/clawtake/clawtake/internal/rest/handler"
	"github.com/clawtake/clawtake/internal/rest/middleware/auth"
	"github.com/clawtake/clawtake/internal/rest/middleware/header"
	"github.com/clawtake/clawtake/internal/rest/middleware/ip"
	"github.com/clawtake/clawtake/internal/rest/middleware/ratelimit"
	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/klauspost/compress/gzhttp"
	"github.com/redis/rueidis"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Services are the business services exposed over HTTP.
type Services struct {
	Votes   handler.VoteService
	Answers handler.AnswerService
	Agents  handler.AgentService
}

// Server implements the REST API service.
type Server struct {
	handler       http.Handler
	globalLimiter *ratelimit.Middleware
	voteLimiter   *ratelimit.Middleware
}

// NewServer creates a new REST API server. A nil redis client limits
// requests per process only.
func NewServer(services Services, redis rueidis.Client, logger *zap.Logger, config *config.APIConfig) *Server {
	responder := handler.NewResponder(logger)

	voteHandler := handler.NewVoteHandler(services.Votes, responder, logger)
	answerHandler := handler.NewAnswerHandler(services.Answers, responder, logger)
	agentHandler := handler.NewAgentHandler(services.Agents, responder, logger)

	// Create middleware instances
	headerMiddleware := header.New(logger)
	ipMiddleware := ip.New(logger, &config.IP)
	authMiddleware := auth.New(config.Auth.JWTSecret, config.Auth.Issuer, responder.Unauthorized, logger)
	globalLimiter := ratelimit.New(redis, ratelimit.Rule{
		Prefix:   "global",
		Requests: config.RateLimit.GlobalRequests,
		Window:   time.Duration(config.RateLimit.GlobalWindow) * time.Second,
	}, responder.RateLimited, logger)
	voteLimiter := ratelimit.New(redis, ratelimit.Rule{
		Prefix:   "vote",
		Requests: config.RateLimit.VoteRequests,
		Window:   time.Duration(config.RateLimit.VoteWindow) * time.Second,
	}, responder.RateLimited, logger)

	router := bunrouter.New(bunrouter.WithNotFoundHandler(responder.NotFound))

	router.GET("/health", func(w http.ResponseWriter, _ bunrouter.Request) error {
		return bunrouter.JSON(w, bunrouter.H{"status": "ok"})
	})

	// Create API routes group
	router.Use(
		headerMiddleware.AsRESTMiddleware,
		ipMiddleware.AsRESTMiddleware,
		globalLimiter.AsRESTMiddleware,
	).WithGroup("/api", func(g *bunrouter.Group) {
		g.WithGroup("/answers", func(g *bunrouter.Group) {
			g = g.Use(voteLimiter.AsRESTMiddleware, authMiddleware.Required)
			g.POST("/:id/vote", voteHandler.CastVote)
			g.DELETE("/:id/vote", voteHandler.RemoveVote)
		})

		g.WithGroup("/questions", func(g *bunrouter.Group) {
			g.Use(authMiddleware.Optional).GET("/:id/answers", answerHandler.ListByQuestion)
			g.Use(authMiddleware.Required).POST("/:id/best-answer", answerHandler.MarkBestAnswer)
		})

		g.WithGroup("/agents", func(g *bunrouter.Group) {
			g.GET("/leaderboard", agentHandler.GetLeaderboard)
			g.GET("/:name", agentHandler.GetAgent)
		})
	})

	return &Server{
		handler:       gzhttp.GzipHandler(newCORS(config.Server.AllowedOrigins).Handler(router)),
		globalLimiter: globalLimiter,
		voteLimiter:   voteLimiter,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.handler.ServeHTTP(w, req)
}

// Close releases the background resources of the rate limiters.
func (s *Server) Close() {
	s.globalLimiter.Close()
	s.voteLimiter.Close()
}
