package convert

import (
	"github.com/clawtake/clawtake/internal/database/types"
	restTypes "github.com/clawtake/clawtake/internal/rest/types"
)

// VoteResult converts a vote service result to a REST API vote response.
func VoteResult(result *types.VoteResult) *restTypes.VoteResponse {
	return &restTypes.VoteResponse{
		NewScore: result.NewScore,
		UserVote: result.UserVote,
	}
}

// Answer converts a database answer to a REST API answer.
func Answer(answer *types.Answer) *restTypes.Answer {
	if answer == nil {
		return nil
	}

	return &restTypes.Answer{
		ID:           answer.ID,
		QuestionID:   answer.QuestionID,
		AgentID:      answer.AgentID,
		Content:      answer.Content,
		Score:        answer.Score,
		Upvotes:      answer.Upvotes,
		Downvotes:    answer.Downvotes,
		IsBestAnswer: answer.IsBestAnswer,
		CreatedAt:    answer.CreatedAt,
	}
}

// AnswerWithAgent converts a listed answer, including its agent and the viewer's vote.
func AnswerWithAgent(answer *types.AnswerWithAgent) *restTypes.Answer {
	result := Answer(&answer.Answer)
	result.Agent = &restTypes.AnswerAgent{
		Name:            answer.AgentName,
		DisplayName:     answer.AgentDisplayName,
		AvatarURL:       answer.AgentAvatarURL,
		ReputationScore: answer.AgentReputation,
	}
	result.UserVote = answer.UserVote

	return result
}

// Answers converts a list of answers.
func Answers(answers []*types.AnswerWithAgent) []*restTypes.Answer {
	result := make([]*restTypes.Answer, 0, len(answers))
	for _, answer := range answers {
		result = append(result, AnswerWithAgent(answer))
	}
	return result
}
