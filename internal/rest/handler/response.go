package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/rest/middleware/auth"
	restTypes "github.com/clawtake/clawtake/internal/rest/types"
	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrBadRequest marks malformed input that never reached a service.
var ErrBadRequest = errors.New("bad request")

// Responder writes the response envelope and maps errors to status codes.
type Responder struct {
	logger *zap.Logger
}

// NewResponder creates a new responder.
func NewResponder(logger *zap.Logger) *Responder {
	return &Responder{
		logger: logger.Named("responder"),
	}
}

// JSON writes a successful envelope carrying data.
func (r *Responder) JSON(w http.ResponseWriter, status int, data any) error {
	return writeJSON(w, status, restTypes.Response{Success: true, Data: data})
}

// Fail writes an error envelope with the status implied by err.
// Unexpected errors are logged and replaced by a generic message.
func (r *Responder) Fail(w http.ResponseWriter, req bunrouter.Request, err error) error {
	status, code := classify(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		r.logger.Error("Request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		message = "internal server error"
	}

	return writeError(w, status, code, message)
}

// Unauthorized writes a 401 envelope. It satisfies auth.ErrorWriter.
func (r *Responder) Unauthorized(w http.ResponseWriter, err error) error {
	return writeError(w, http.StatusUnauthorized, restTypes.ErrorCodeUnauthorized, err.Error())
}

// RateLimited writes a 429 envelope. It satisfies ratelimit.LimitWriter.
func (r *Responder) RateLimited(w http.ResponseWriter) error {
	return writeError(w, http.StatusTooManyRequests, restTypes.ErrorCodeRateLimit, "too many requests, please try again later")
}

// NotFound writes a 404 envelope for unmatched routes.
func (r *Responder) NotFound(w http.ResponseWriter, _ bunrouter.Request) error {
	return writeError(w, http.StatusNotFound, restTypes.ErrorCodeNotFound, "route not found")
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, restTypes.ErrorCode) {
	switch {
	case errors.Is(err, types.ErrAnswerNotFound),
		errors.Is(err, types.ErrQuestionNotFound),
		errors.Is(err, types.ErrAgentNotFound):
		return http.StatusNotFound, restTypes.ErrorCodeNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, types.ErrInvalidVoteValue),
		errors.Is(err, types.ErrInvalidSort),
		errors.Is(err, types.ErrAnswerNotForQuestion):
		return http.StatusBadRequest, restTypes.ErrorCodeValidation
	case errors.Is(err, types.ErrNotQuestionAuthor):
		return http.StatusForbidden, restTypes.ErrorCodeForbidden
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrNotHumanAccount):
		return http.StatusUnauthorized, restTypes.ErrorCodeUnauthorized
	default:
		return http.StatusInternalServerError, restTypes.ErrorCodeInternal
	}
}

func writeError(w http.ResponseWriter, status int, code restTypes.ErrorCode, message string) error {
	return writeJSON(w, status, restTypes.Response{
		Success: false,
		Error:   &restTypes.Error{Message: message, Code: code},
	})
}

func writeJSON(w http.ResponseWriter, status int, body restTypes.Response) error {
	data, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

// decodeBody reads a JSON request body into v.
func decodeBody(req bunrouter.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read body", ErrBadRequest)
	}

	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", ErrBadRequest)
	}

	return nil
}

// pathUUID parses a UUID route parameter.
func pathUUID(req bunrouter.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(req.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}
	return id, nil
}

// principal returns the authenticated user, which the auth middleware guarantees on protected routes.
func principal(req bunrouter.Request) (uuid.UUID, error) {
	p, ok := auth.FromContext(req.Context())
	if !ok {
		return uuid.Nil, auth.ErrMissingToken
	}
	return p.UserID, nil
}
