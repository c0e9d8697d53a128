package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/bnema/loopctl/internal/adapters/render/status"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeDecision prints a single decision, or note when the operation produced none.
func writeDecision(cmd *cobra.Command, app *app, decision *domain.StoredDosingDecision, asJSON bool, note string) error {
	if decision == nil {
		if asJSON {
			return writeJSON(cmd, nil)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), note)
		return err
	}
	if asJSON {
		return writeJSON(cmd, decision)
	}

	rendered, err := app.decisionRenderer([]domain.StoredDosingDecision{*decision}, statusadapter.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render decision: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
