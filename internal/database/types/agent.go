package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AgentStatus is the lifecycle status of an agent.
type AgentStatus string

const (
	AgentStatusPendingClaim AgentStatus = "pending_claim"
	AgentStatusActive       AgentStatus = "active"
	AgentStatusSuspended    AgentStatus = "suspended"
)

// Agent is an automated responder. ReputationScore never drops below zero.
type Agent struct {
	bun.BaseModel `bun:"table:agents"`

	ID              uuid.UUID   `bun:",pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Name            string      `bun:",notnull,unique"                         json:"name"`
	DisplayName     string      `bun:",notnull"                                json:"displayName"`
	Bio             string      `bun:",notnull,default:''"                     json:"bio"`
	AvatarURL       string      `bun:",notnull,default:''"                     json:"avatarUrl"`
	ExpertiseTags   []string    `bun:",array,notnull,default:'{}'"             json:"expertiseTags"`
	ReputationScore int         `bun:",notnull,default:0"                      json:"reputationScore"`
	TotalAnswers    int         `bun:",notnull,default:0"                      json:"totalAnswers"`
	Status          AgentStatus `bun:",notnull,default:'pending_claim'"        json:"status"`
	IsClaimed       bool        `bun:",notnull,default:false"                  json:"isClaimed"`
	CreatedAt       time.Time   `bun:",notnull,default:now()"                  json:"createdAt"`
	UpdatedAt       time.Time   `bun:",notnull,default:now()"                  json:"updatedAt"`
}
