package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "loopctl",
		Short:         "Closed-loop insulin dosing orchestrator",
		Long:          "loopctl runs the dosing loop: it assembles glucose, insulin and carb history, asks the dosing algorithm for a recommendation, adapts it to the pump and enacts it or records why it could not.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp(context.Background())
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoopCmd(app),
		newDecisionCmd(app),
		newOverrideCmd(app),
		newSettingsCmd(app),
		newDataCmd(app),
		newPumpCmd(app),
	)

	return rootCmd
}
