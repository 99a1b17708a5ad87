package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is a human account. Accounts are created by the auth service; this
// API only references them as voters and question authors.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Username  string    `bun:",notnull,unique"                         json:"username"`
	IsAdmin   bool      `bun:",notnull,default:false"                  json:"isAdmin"`
	IsBanned  bool      `bun:",notnull,default:false"                  json:"isBanned"`
	CreatedAt time.Time `bun:",notnull,default:now()"                  json:"createdAt"`
}
