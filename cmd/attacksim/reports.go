package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/combatsim/internal/app"
	"github.com/cory-johannsen/combatsim/internal/storage/postgres"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored simulation reports",
}

var listLimit int

var reportsListCmd = &cobra.Command{
	Use:   "list [action-id]",
	Short: "List the most recent reports for an action",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if listLimit < 1 {
			return fmt.Errorf("--limit must be >= 1, got %d", listLimit)
		}
		return withRepository(cmd, func(ctx context.Context, a *app.App, repo *postgres.ReportRepository) error {
			action := a.Config.Simulation.Action
			if len(args) == 1 {
				action = args[0]
			}
			reports, err := repo.ListByAction(ctx, action, listLimit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range reports {
				fmt.Fprintf(out, "%s  %s  %-10s  attempts=%d  seed=%d\n",
					r.ID, r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), r.Strategy, r.Attempts, r.Seed)
			}
			return nil
		})
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Print a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("parsing report id: %w", err)
		}
		return withRepository(cmd, func(ctx context.Context, a *app.App, repo *postgres.ReportRepository) error {
			r, err := repo.Get(ctx, id)
			if err != nil {
				return err
			}
			return app.WriteReport(cmd.OutOrStdout(), r)
		})
	},
}

func init() {
	reportsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of reports")
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
}

func withRepository(cmd *cobra.Command, fn func(context.Context, *app.App, *postgres.ReportRepository) error) error {
	a, logger, err := setup(cmd, map[string]string{})
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	ctx := cmd.Context()
	store, err := postgres.Open(ctx, a.Config.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()
	return fn(ctx, a, store.Reports())
}
