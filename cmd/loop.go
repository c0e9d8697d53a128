package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	statusadapter "github.com/bnema/loopctl/internal/adapters/render/status"
	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/spf13/cobra"
)

const (
	loopSkippedNote   = "loop skipped: automatic dosing is disabled or the pump is awaiting recovery"
	statusGlucoseSpan = 24 * time.Hour
	telemetryFlush    = 5 * time.Second
)

func newLoopCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Run and inspect the dosing loop",
	}

	cmd.AddCommand(
		newLoopOnceCmd(app),
		newLoopRunCmd(app),
		newLoopStatusCmd(app),
		newLoopForecastCmd(app),
		newLoopCancelTempCmd(app),
		newLoopReportCGMCmd(app),
	)

	return cmd
}

func newLoopOnceCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run one loop cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shutdown, err := app.startTelemetry(cmd.Context())
			if err != nil {
				return fmt.Errorf("start telemetry: %w", err)
			}
			defer flushTelemetry(cmd.Context(), app, shutdown)

			var decision *domain.StoredDosingDecision
			cycle := func(ctx context.Context) error {
				return app.withLoop(ctx, func(ctx context.Context, loop *application.LoopService) error {
					var err error
					decision, err = loop.Loop(ctx)
					return err
				})
			}

			if asJSON {
				err = cycle(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Running loop cycle...", cycle)
			}
			if err != nil {
				return err
			}

			return writeDecision(cmd, app, decision, asJSON, loopSkippedNote)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newLoopRunCmd(app *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := app.startTelemetry(ctx)
			if err != nil {
				return fmt.Errorf("start telemetry: %w", err)
			}
			defer flushTelemetry(ctx, app, shutdown)

			unsubscribe := app.startNotifier(ctx)
			defer unsubscribe()

			loop := app.newLoop(interval)
			stopped := make(chan struct{})
			go func() {
				defer close(stopped)
				loop.Run(ctx)
			}()

			app.logger.Info("loop started", "interval", interval, "algorithm", app.cfg.AlgorithmCommand)
			if _, err := loop.Loop(ctx); err != nil && ctx.Err() == nil {
				app.logger.Error("initial loop cycle", "error", err)
			}

			<-stopped
			app.logger.Info("loop stopped")

			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", app.cfg.Timing.LoopInterval, "Time between loop cycles")

	return cmd
}

func newLoopStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show loop, pump and glucose status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := loadLoopStatus(cmd.Context(), app)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, status)
			}

			rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{
				Now:        app.now(),
				StaleAfter: app.cfg.Timing.RecencyInterval,
			})
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func loadLoopStatus(ctx context.Context, app *app) (statusadapter.LoopStatus, error) {
	now := app.now()

	settings, err := app.settings.Load(ctx)
	if err != nil {
		return statusadapter.LoopStatus{}, err
	}

	basal, err := app.pump.BasalDeliveryState(ctx)
	if err != nil {
		return statusadapter.LoopStatus{}, fmt.Errorf("read basal delivery state: %w", err)
	}
	pumpState, err := app.pump.Status(ctx)
	if err != nil {
		return statusadapter.LoopStatus{}, fmt.Errorf("read pump state: %w", err)
	}

	samples, err := app.history.GlucoseSamples(ctx, now.Add(-statusGlucoseSpan), now)
	if err != nil {
		return statusadapter.LoopStatus{}, fmt.Errorf("load glucose: %w", err)
	}

	overrides, err := app.overrides.State(ctx)
	if err != nil {
		return statusadapter.LoopStatus{}, err
	}

	recent, err := app.decisions.Recent(ctx, 1)
	if err != nil {
		return statusadapter.LoopStatus{}, fmt.Errorf("load decisions: %w", err)
	}

	status := statusadapter.LoopStatus{
		Settings:        settings,
		Basal:           basal,
		PumpLastSync:    pumpState.LastSync,
		PendingRecovery: pumpState.PendingRecovery,
	}
	if latest, ok := domain.LatestGlucose(samples); ok {
		status.LatestGlucose = &latest
	}
	if active, ok := overrides.ActiveOverride(now); ok {
		status.Override = active
	}
	if preMeal, ok := overrides.ActivePreMeal(now); ok {
		status.PreMeal = preMeal
	}
	if len(recent) > 0 {
		status.LastDecision = &recent[0]
	}

	return status, nil
}

func newLoopForecastCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Recompute the glucose forecast without dosing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var state application.DisplayState
			err := app.withLoop(cmd.Context(), func(ctx context.Context, loop *application.LoopService) error {
				err := loop.Refresh(ctx, application.ChangePreferences)
				state = loop.DisplayState()
				return err
			})
			if err != nil {
				return fmt.Errorf("refresh forecast: %w", err)
			}

			return writeForecast(cmd, state)
		},
	}

	return cmd
}

func writeForecast(cmd *cobra.Command, state application.DisplayState) error {
	out := cmd.OutOrStdout()
	if state.Output == nil {
		_, err := fmt.Fprintln(out, "forecast unavailable")
		return err
	}

	lines := []string{fmt.Sprintf("forecast at %s", state.UpdatedAt.Format(time.RFC3339))}
	if predicted := state.Output.PredictedGlucose; len(predicted) > 0 {
		eventual := predicted[len(predicted)-1]
		lines = append(lines, fmt.Sprintf("eventual glucose: %.0f mg/dL at %s", eventual.Quantity, eventual.StartDate.Format("15:04")))
	}
	if state.Output.ActiveInsulin != nil {
		lines = append(lines, fmt.Sprintf("insulin on board: %.2f U", *state.Output.ActiveInsulin))
	}
	if state.Output.ActiveCarbs != nil {
		lines = append(lines, fmt.Sprintf("carbs on board: %.0f g", *state.Output.ActiveCarbs))
	}
	if rec, err := state.Output.RecommendationResult(); err == nil && rec.Manual != nil {
		lines = append(lines, fmt.Sprintf("suggested bolus: %.2f U", rec.Manual.Amount))
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

func newLoopCancelTempCmd(app *app) *cobra.Command {
	var reason string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cancel-temp",
		Short: "Cancel the running automatic temp basal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cancelReason := domain.CancelActiveTempBasalReason(reason)
			if !cancelReason.Valid() {
				return fmt.Errorf("unsupported cancel reason %q", reason)
			}

			var decision *domain.StoredDosingDecision
			err := app.withLoop(cmd.Context(), func(ctx context.Context, loop *application.LoopService) error {
				var err error
				decision, err = loop.CancelActiveTempBasal(ctx, cancelReason)
				return err
			})
			if err != nil {
				return err
			}

			return writeDecision(cmd, app, decision, asJSON, "no automatic temp basal running")
		},
	}

	cmd.Flags().StringVar(&reason, "reason", string(domain.CancelReasonAutomaticDosingDisabled), "Cancel reason (automaticDosingDisabled|unreliableCGMData|maximumBasalRateChanged)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newLoopReportCGMCmd(app *app) *cobra.Command {
	var unreliable bool

	cmd := &cobra.Command{
		Use:   "report-cgm",
		Short: "Report CGM reliability; unreliable data cancels the automatic temp basal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var decision *domain.StoredDosingDecision
			err := app.withLoop(cmd.Context(), func(ctx context.Context, loop *application.LoopService) error {
				var err error
				decision, err = loop.ReportCGMReliability(ctx, !unreliable)
				return err
			})
			if err != nil {
				return err
			}

			return writeDecision(cmd, app, decision, false, "no action needed")
		},
	}

	cmd.Flags().BoolVar(&unreliable, "unreliable", false, "CGM data cannot be trusted")

	return cmd
}

func flushTelemetry(ctx context.Context, app *app, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlush)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		app.logger.Warn("flush telemetry", "error", err)
	}
}
