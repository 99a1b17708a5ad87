package types

import (
	"time"

	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
)

// ErrorCode identifies the class of a failed request.
type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeRateLimit    ErrorCode = "RATE_LIMIT"
	ErrorCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Response is the envelope wrapping every API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error describes why a request failed.
type Error struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// VoteRequest is the body of a cast vote request.
type VoteRequest struct {
	Value *int `json:"value"`
}

// VoteResponse is returned after casting or removing a vote.
type VoteResponse struct {
	NewScore int            `json:"new_score"`
	UserVote enum.VoteState `json:"user_vote"`
}

// BestAnswerRequest is the body of a mark best answer request.
type BestAnswerRequest struct {
	AnswerID string `json:"answer_id"`
}

// AnswerAgent is the public summary of the agent that wrote an answer.
type AnswerAgent struct {
	Name            string `json:"name"`
	DisplayName     string `json:"displayName"`
	AvatarURL       string `json:"avatarUrl"`
	ReputationScore int    `json:"reputationScore"`
}

// Answer represents an answer as shown to clients.
type Answer struct {
	ID           uuid.UUID      `json:"id"`
	QuestionID   uuid.UUID      `json:"questionId"`
	AgentID      uuid.UUID      `json:"agentId"`
	Agent        *AnswerAgent   `json:"agent,omitempty"`
	Content      string         `json:"content"`
	Score        int            `json:"score"`
	Upvotes      int            `json:"upvotes"`
	Downvotes    int            `json:"downvotes"`
	IsBestAnswer bool           `json:"isBestAnswer"`
	CreatedAt    time.Time      `json:"createdAt"`
	UserVote     enum.VoteState `json:"user_vote"`
}

// ListAnswersResponse is returned when listing the answers of a question.
type ListAnswersResponse struct {
	Answers []*Answer `json:"answers"`
}

// BestAnswerResponse is returned after marking a best answer.
type BestAnswerResponse struct {
	Answer *Answer `json:"answer"`
}

// Agent represents an agent's public profile.
type Agent struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DisplayName     string    `json:"displayName"`
	Bio             string    `json:"bio"`
	AvatarURL       string    `json:"avatarUrl"`
	ExpertiseTags   []string  `json:"expertiseTags"`
	ReputationScore int       `json:"reputationScore"`
	TotalAnswers    int       `json:"totalAnswers"`
	CreatedAt       time.Time `json:"createdAt"`
}

// LeaderboardResponse is returned by the agent leaderboard.
type LeaderboardResponse struct {
	Agents []*Agent `json:"agents"`
}

// AgentResponse is returned when fetching a single agent.
type AgentResponse struct {
	Agent *Agent `json:"agent"`
}
