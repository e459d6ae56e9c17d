// Package main is the attacksim command: it simulates attack outcome
// distributions and inspects probability tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatsim/internal/app"
	"github.com/cory-johannsen/combatsim/internal/config"
	"github.com/cory-johannsen/combatsim/internal/observability"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "attacksim",
	Short: "Attack outcome simulator",
	Long: `attacksim builds the per-attack probability table (miss, dodge, parry,
glance, block, crit, hit) for an action and samples it repeatedly to report
the outcome distribution.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level")
	rootCmd.PersistentFlags().String("action", "", "override simulation.action")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads the config file and applies flag and COMBATSIM_ overrides.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (config.Config, error) {
	v := config.NewViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("reading config file: %w", err)
	}
	bindings["logging.level"] = "log-level"
	bindings["simulation.action"] = "action"
	if err := bindFlags(v, cmd, bindings); err != nil {
		return config.Config{}, err
	}
	return config.LoadFromViper(v)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// setup loads configuration, the logger and content.
func setup(cmd *cobra.Command, bindings map[string]string) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig(cmd, bindings)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	a, err := app.Load(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return a, logger, nil
}
