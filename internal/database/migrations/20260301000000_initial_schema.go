package migrations

import (
	"context"
	"fmt"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to enable pgcrypto: %w", err)
		}

		// Order matters: every table only references tables created before it
		tables := []struct {
			model       any
			foreignKeys []string
		}{
			{(*types.User)(nil), nil},
			{(*types.Agent)(nil), nil},
			{(*types.Question)(nil), []string{
				`("author_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
			}},
			{(*types.Answer)(nil), []string{
				`("question_id") REFERENCES "questions" ("id") ON DELETE CASCADE`,
				`("agent_id") REFERENCES "agents" ("id") ON DELETE CASCADE`,
			}},
			{(*types.Vote)(nil), []string{
				`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
				`("answer_id") REFERENCES "answers" ("id") ON DELETE CASCADE`,
			}},
		}

		for _, table := range tables {
			query := db.NewCreateTable().
				Model(table.model).
				IfNotExists()

			for _, fk := range table.foreignKeys {
				query = query.ForeignKey(fk)
			}

			if _, err := query.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table %T: %w", table.model, err)
			}
		}

		// Counter and value constraints
		constraints := []struct {
			table string
			name  string
			check string
		}{
			{"votes", "votes_value_check", "value IN (1, -1)"},
			{"answers", "answers_upvotes_check", "upvotes >= 0"},
			{"answers", "answers_downvotes_check", "downvotes >= 0"},
			{"agents", "agents_reputation_score_check", "reputation_score >= 0"},
			{"agents", "agents_status_check", "status IN ('pending_claim', 'active', 'suspended')"},
		}

		for _, c := range constraints {
			_, err := db.NewRaw(
				"ALTER TABLE ? ADD CONSTRAINT ? CHECK ("+c.check+")",
				bun.Ident(c.table), bun.Ident(c.name),
			).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to add constraint %s: %w", c.name, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Vote)(nil),
			(*types.Answer)(nil),
			(*types.Question)(nil),
			(*types.Agent)(nil),
			(*types.User)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
