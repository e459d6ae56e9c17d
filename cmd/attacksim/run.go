package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatsim/internal/app"
	"github.com/cory-johannsen/combatsim/internal/sim"
	"github.com/cory-johannsen/combatsim/internal/storage/postgres"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate an action and print its outcome distribution",
	RunE:  runSimulation,
}

func init() {
	f := runCmd.Flags()
	f.Int("iterations", 0, "override simulation.iterations")
	f.Int("attacks", 0, "override simulation.attacks_per_iteration")
	f.Uint64("seed", 0, "override simulation.seed (0 draws a fresh seed)")
	f.String("strategy", "", "override simulation.strategy: direct or decomposed")
	f.Int("workers", 0, "override simulation.workers")
	f.Bool("store", false, "persist the report to PostgreSQL")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	a, logger, err := setup(cmd, map[string]string{
		"simulation.iterations":            "iterations",
		"simulation.attacks_per_iteration": "attacks",
		"simulation.seed":                  "seed",
		"simulation.strategy":              "strategy",
		"simulation.workers":               "workers",
		"database.store":                   "store",
	})
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := a.Scenario(a.Config.Simulation.Action)
	if err != nil {
		return err
	}
	report, err := sim.NewSimulator(a.Config.Simulation.Workers, logger).Run(ctx, sc)
	if err != nil {
		return err
	}

	if a.Config.Database.Store {
		if err := storeReport(ctx, a, logger, report); err != nil {
			return err
		}
	}
	return app.WriteReport(cmd.OutOrStdout(), report)
}

func storeReport(ctx context.Context, a *app.App, logger *zap.Logger, report *sim.Report) error {
	dbStart := time.Now()
	store, err := postgres.Open(ctx, a.Config.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	if err := store.Reports().Save(ctx, report); err != nil {
		return fmt.Errorf("storing report: %w", err)
	}
	logger.Info("report stored",
		zap.Stringer("run_id", report.ID),
		zap.String("host", a.Config.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	return nil
}
