package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/adapters/pump/simulator"
	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/spf13/cobra"
)

func newPumpCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pump",
		Short: "Control the simulated pump",
	}

	cmd.AddCommand(
		newPumpStatusCmd(app),
		newPumpActionCmd("suspend", "Suspend insulin delivery", "pump suspended", app.pump.Suspend),
		newPumpActionCmd("resume", "Resume insulin delivery", "pump resumed", app.pump.Resume),
		newPumpActionCmd("recover", "Clear a pending delivery recovery", "pump recovered", app.pump.Recover),
		newPumpConnectCmd(app),
		newPumpInjectFailureCmd(app),
		newPumpHeartbeatCmd(app),
	)

	return cmd
}

func newPumpStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the pump state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := app.pump.Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, state)
			}

			now := app.now()
			lines := []string{fmt.Sprintf("suspended: %t", state.Suspended)}
			if temp, ok := state.RunningTempBasal(now); ok {
				lines = append(lines, fmt.Sprintf("temp basal: %.2f U/hr until %s", temp.UnitsPerHour(), temp.EndDate.Format(time.RFC3339)))
			} else {
				lines = append(lines, "temp basal: none")
			}
			lines = append(lines,
				fmt.Sprintf("connected: %t", !state.Disconnected),
				fmt.Sprintf("pending recovery: %t", state.PendingRecovery),
			)
			if !state.LastSync.IsZero() {
				lines = append(lines, "last sync: "+state.LastSync.Format(time.RFC3339))
			}
			if state.InjectFailure != simulator.FailureNone {
				lines = append(lines, "next enactment fails: "+string(state.InjectFailure))
			}

			for _, line := range lines {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newPumpActionCmd(use, short, done string, action func(context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := action(cmd.Context()); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), done)
			return err
		},
	}
}

func newPumpConnectCmd(app *app) *cobra.Command {
	var disconnect bool

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect or disconnect the pump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.pump.SetConnected(cmd.Context(), !disconnect); err != nil {
				return err
			}

			state := "connected"
			if disconnect {
				state = "disconnected"
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "pump "+state)
			return err
		},
	}

	cmd.Flags().BoolVar(&disconnect, "off", false, "Disconnect instead")

	return cmd
}

func newPumpInjectFailureCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inject-failure error|uncertain|none",
		Short: "Make the next enactment fail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failure := simulator.Failure(args[0])
			if args[0] == "none" {
				failure = simulator.FailureNone
			}
			if !failure.Valid() {
				return fmt.Errorf("unsupported failure %q", args[0])
			}

			if err := app.pump.InjectFailure(cmd.Context(), failure); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "next enactment: %s\n", args[0])
			return err
		},
	}
}

func newPumpHeartbeatCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Deliver a pump heartbeat, looping if the last cycle is old enough",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var decision *domain.StoredDosingDecision
			err := app.withLoop(cmd.Context(), func(ctx context.Context, loop *application.LoopService) error {
				var err error
				decision, err = loop.OnPumpHeartbeat(ctx)
				return err
			})
			if err != nil {
				return err
			}

			return writeDecision(cmd, app, decision, false, loopSkippedNote)
		},
	}
}
