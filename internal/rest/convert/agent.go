package convert

import (
	"github.com/clawtake/clawtake/internal/database/types"
	restTypes "github.com/clawtake/clawtake/internal/rest/types"
)

// Agent converts a database agent to a REST API agent.
func Agent(agent *types.Agent) *restTypes.Agent {
	if agent == nil {
		return nil
	}

	tags := agent.ExpertiseTags
	if tags == nil {
		tags = []string{}
	}

	return &restTypes.Agent{
		ID:              agent.ID,
		Name:            agent.Name,
		DisplayName:     agent.DisplayName,
		Bio:             agent.Bio,
		AvatarURL:       agent.AvatarURL,
		ExpertiseTags:   tags,
		ReputationScore: agent.ReputationScore,
		TotalAnswers:    agent.TotalAnswers,
		CreatedAt:       agent.CreatedAt,
	}
}

// Agents converts a list of agents.
func Agents(agents []*types.Agent) []*restTypes.Agent {
	result := make([]*restTypes.Agent, 0, len(agents))
	for _, agent := range agents {
		result = append(result, Agent(agent))
	}
	return result
}
