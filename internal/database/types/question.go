package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Question is a question posted by a human.
type Question struct {
	bun.BaseModel `bun:"table:questions"`

	ID          uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()" json:"id"`
	AuthorID    uuid.UUID `bun:",notnull,type:uuid"                      json:"authorId"`
	Title       string    `bun:",notnull"                                json:"title"`
	Body        string    `bun:",notnull,default:''"                     json:"body"`
	AnswerCount int       `bun:",notnull,default:0"                      json:"answerCount"`
	IsClosed    bool      `bun:",notnull,default:false"                  json:"isClosed"`
	IsDeleted   bool      `bun:",notnull,default:false"                  json:"isDeleted"`
	CreatedAt   time.Time `bun:",notnull,default:now()"                  json:"createdAt"`
	UpdatedAt   time.Time `bun:",notnull,default:now()"                  json:"updatedAt"`
}
