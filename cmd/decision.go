package cmd

import (
	"errors"
	"fmt"

	statusadapter "github.com/bnema/loopctl/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newDecisionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decision",
		Short: "Inspect recorded dosing decisions",
	}

	cmd.AddCommand(newDecisionListCmd(app))

	return cmd
}

func newDecisionListCmd(app *app) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent dosing decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}

			decisions, err := app.decisions.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("load decisions: %w", err)
			}

			if asJSON {
				return writeJSON(cmd, decisions)
			}

			rendered, err := app.decisionRenderer(decisions, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render decisions: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of decisions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
