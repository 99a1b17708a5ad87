package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/rest/convert"
	restTypes "github.com/clawtake/clawtake/internal/rest/types"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// VoteService is implemented by service.VoteService.
type VoteService interface {
	CastVote(ctx context.Context, voterID, answerID uuid.UUID, value int) (*types.VoteResult, error)
	RemoveVote(ctx context.Context, voterID, answerID uuid.UUID) (*types.VoteResult, error)
}

// VoteHandler handles vote endpoints.
type VoteHandler struct {
	votes     VoteService
	responder *Responder
	logger    *zap.Logger
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(votes VoteService, responder *Responder, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		votes:     votes,
		responder: responder,
		logger:    logger.Named("vote_handler"),
	}
}

// CastVote handles POST /api/answers/:id/vote.
func (h *VoteHandler) CastVote(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := principal(req)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	answerID, err := pathUUID(req, "id")
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	var body restTypes.VoteRequest
	if err := decodeBody(req, &body); err != nil {
		return h.responder.Fail(w, req, err)
	}
	if body.Value == nil {
		return h.responder.Fail(w, req, fmt.Errorf("%w: value is required", ErrBadRequest))
	}

	result, err := h.votes.CastVote(req.Context(), userID, answerID, *body.Value)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	return h.responder.JSON(w, http.StatusOK, convert.VoteResult(result))
}

// RemoveVote handles DELETE /api/answers/:id/vote.
func (h *VoteHandler) RemoveVote(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := principal(req)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	answerID, err := pathUUID(req, "id")
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	result, err := h.votes.RemoveVote(req.Context(), userID, answerID)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	return h.responder.JSON(w, http.StatusOK, convert.VoteResult(result))
}
