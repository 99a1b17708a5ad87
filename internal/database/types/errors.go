package types

import (
	"errors"

	"github.com/clawtake/clawtake/internal/database/types/enum"
)

var (
	ErrAnswerNotFound       = errors.New("answer not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAgentNotFound        = errors.New("agent not found")
	ErrNotQuestionAuthor    = errors.New("only the question author can mark the best answer")
	ErrAnswerNotForQuestion = errors.New("answer does not belong to this question")
	ErrInvalidSort          = errors.New("sort must be one of: votes, new")

	// ErrInvalidVoteValue is re-exported so callers only need the types package.
	ErrInvalidVoteValue = enum.ErrInvalidVoteValue
)
