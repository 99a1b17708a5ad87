package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Answer listing per question
			CREATE INDEX IF NOT EXISTS idx_answers_question_score
			ON answers (question_id, is_best_answer DESC, score DESC, created_at DESC)
			WHERE is_deleted = false;

			CREATE INDEX IF NOT EXISTS idx_answers_question_created
			ON answers (question_id, created_at DESC)
			WHERE is_deleted = false;

			-- At most one best answer per question
			CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_question_best
			ON answers (question_id)
			WHERE is_best_answer = true;

			CREATE INDEX IF NOT EXISTS idx_answers_agent
			ON answers (agent_id);

			-- Reverse lookup for cascades and per-answer vote scans
			CREATE INDEX IF NOT EXISTS idx_votes_answer
			ON votes (answer_id);

			-- Leaderboard
			CREATE INDEX IF NOT EXISTS idx_agents_leaderboard
			ON agents (reputation_score DESC, name)
			WHERE status = 'active' AND is_claimed = true;

			CREATE INDEX IF NOT EXISTS idx_questions_author
			ON questions (author_id);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_questions_author;
			DROP INDEX IF EXISTS idx_agents_leaderboard;
			DROP INDEX IF EXISTS idx_votes_answer;
			DROP INDEX IF EXISTS idx_answers_agent;
			DROP INDEX IF EXISTS idx_answers_question_best;
			DROP INDEX IF EXISTS idx_answers_question_created;
			DROP INDEX IF EXISTS idx_answers_question_score;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
