package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var (
	migrationsDir string
	migrateSteps  int
)

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down>",
	Short:     "Apply or roll back the report store schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "migrations", "migrations", "path to migration SQL files")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of steps (0 = all)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg, err := loadConfig(cmd, map[string]string{})
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+migrationsDir, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	steps := migrateSteps
	switch {
	case args[0] == "up" && steps == 0:
		err = m.Up()
	case args[0] == "down" && steps == 0:
		err = m.Down()
	case args[0] == "down":
		err = m.Steps(-steps)
	default:
		err = m.Steps(steps)
	}
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return fmt.Errorf("migrating %s: %w", args[0], err)
	}

	version, dirty, _ := m.Version()
	out := cmd.OutOrStdout()
	if noChange {
		fmt.Fprintf(out, "no changes (version=%d dirty=%v) [%s]\n", version, dirty, time.Since(start))
		return nil
	}
	fmt.Fprintf(out, "migrated %s to version=%d dirty=%v [%s]\n", args[0], version, dirty, time.Since(start))
	return nil
}
