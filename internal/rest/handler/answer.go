package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/rest/convert"
	"github.com/clawtake/clawtake/internal/rest/middleware/auth"
	restTypes "github.com/clawtake/clawtake/internal/rest/types"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// AnswerService is implemented by service.AnswerService.
type AnswerService interface {
	ListByQuestion(
		ctx context.Context, questionID uuid.UUID, sort types.AnswerSort, viewer *uuid.UUID,
	) ([]*types.AnswerWithAgent, error)
	MarkBestAnswer(ctx context.Context, authorID, questionID, answerID uuid.UUID) (*types.Answer, error)
}

// AnswerHandler handles answer endpoints.
type AnswerHandler struct {
	answers   AnswerService
	responder *Responder
	logger    *zap.Logger
}

// NewAnswerHandler creates a new answer handler.
func NewAnswerHandler(answers AnswerService, responder *Responder, logger *zap.Logger) *AnswerHandler {
	return &AnswerHandler{
		answers:   answers,
		responder: responder,
		logger:    logger.Named("answer_handler"),
	}
}

// ListByQuestion handles GET /api/questions/:id/answers.
// Signed in viewers also receive their own vote on each answer.
func (h *AnswerHandler) ListByQuestion(w http.ResponseWriter, req bunrouter.Request) error {
	questionID, err := pathUUID(req, "id")
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	var viewer *uuid.UUID
	if p, ok := auth.FromContext(req.Context()); ok {
		viewer = &p.UserID
	}

	sort := types.AnswerSort(req.URL.Query().Get("sort"))

	answers, err := h.answers.ListByQuestion(req.Context(), questionID, sort, viewer)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	return h.responder.JSON(w, http.StatusOK, restTypes.ListAnswersResponse{
		Answers: convert.Answers(answers),
	})
}

// MarkBestAnswer handles POST /api/questions/:id/best-answer.
func (h *AnswerHandler) MarkBestAnswer(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := principal(req)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	questionID, err := pathUUID(req, "id")
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	var body restTypes.BestAnswerRequest
	if err := decodeBody(req, &body); err != nil {
		return h.responder.Fail(w, req, err)
	}

	answerID, err := uuid.Parse(body.AnswerID)
	if err != nil {
		return h.responder.Fail(w, req, fmt.Errorf("%w: invalid answer_id", ErrBadRequest))
	}

	answer, err := h.answers.MarkBestAnswer(req.Context(), userID, questionID, answerID)
	if err != nil {
		return h.responder.Fail(w, req, err)
	}

	h.logger.Debug("Best answer marked",
		zap.String("question_id", questionID.String()),
		zap.String("answer_id", answerID.String()))

	return h.responder.JSON(w, http.StatusOK, restTypes.BestAnswerResponse{
		Answer: convert.Answer(answer),
	})
}
