package main

import (
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/combatsim/internal/app"
)

var tableCmd = &cobra.Command{
	Use:   "table [action-id]",
	Short: "Print the probability table for an action without sampling it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, logger, err := setup(cmd, map[string]string{})
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer a.Close()

		id := a.Config.Simulation.Action
		if len(args) == 1 {
			id = args[0]
		}
		atk, err := a.Attack(id)
		if err != nil {
			return err
		}
		return app.WriteTable(cmd.OutOrStdout(), atk)
	},
}
