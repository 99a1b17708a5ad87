package commands

import (
	"context"
	"fmt"

	"github.com/clawtake/clawtake/internal/database/dbretry"
	"github.com/clawtake/clawtake/internal/database/models"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// MaintenanceCommands returns data repair commands.
func MaintenanceCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "reconcile-counters",
			Usage: "Recompute answer vote counters from the stored votes",
			Description: `Compares the upvotes, downvotes and score of every answer against its
vote records and rewrites any that disagree. Agent reputation is not touched.

Examples:
  db reconcile-counters            # Repair drifted answers
  db reconcile-counters --dry-run  # Only report how many answers drifted`,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "dry-run",
					Usage: "Report drift without writing",
				},
			},
			Action: handleReconcileCounters(deps),
		},
	}
}

// handleReconcileCounters handles the 'reconcile-counters' command.
func handleReconcileCounters(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		answers := deps.DB.Model().Answer()

		drift, err := dbretry.Operation(ctx, answers.CountCounterDrift)
		if err != nil {
			return err
		}

		deps.Logger.Info("Checked answer counters", zap.Int("drifted", drift))

		if drift == 0 || c.Bool("dry-run") {
			return nil
		}

		var fixed int64

		err = dbretry.Transaction(ctx, deps.DB.DB(), models.ReconcileTxOptions, func(ctx context.Context, tx bun.Tx) error {
			n, err := answers.ReconcileCounters(ctx, tx)
			fixed = n
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to reconcile counters: %w", err)
		}

		deps.Logger.Info("Reconciled answer counters", zap.Int64("fixed", fixed))

		return nil
	}
}
