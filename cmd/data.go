package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newDataCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Record glucose and carb entries",
	}

	glucose := &cobra.Command{
		Use:   "glucose",
		Short: "Glucose readings",
	}
	glucose.AddCommand(newGlucoseAddCmd(app))

	carbs := &cobra.Command{
		Use:   "carbs",
		Short: "Carb entries",
	}
	carbs.AddCommand(newCarbsAddCmd(app))

	cmd.AddCommand(glucose, carbs)

	return cmd
}

func newGlucoseAddCmd(app *app) *cobra.Command {
	var value float64
	var at string
	var userEntered, trigger bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a glucose reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value <= 0 {
				return errors.New("--value must be positive")
			}
			startDate, err := parseAt(at, app.now())
			if err != nil {
				return err
			}

			sample := domain.GlucoseSample{
				StartDate:      startDate,
				Quantity:       value,
				WasUserEntered: userEntered,
				Provenance:     serviceName,
				SyncIdentifier: uuid.NewString(),
			}
			if err := app.history.AddGlucoseSamples(cmd.Context(), []domain.GlucoseSample{sample}); err != nil {
				return fmt.Errorf("add glucose: %w", err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "recorded %.0f mg/dL at %s\n", value, startDate.Format(time.RFC3339)); err != nil {
				return err
			}

			if !trigger {
				return nil
			}

			var decision *domain.StoredDosingDecision
			err = app.withLoop(cmd.Context(), func(ctx context.Context, loop *application.LoopService) error {
				var err error
				decision, err = loop.OnGlucoseDataReceived(ctx)
				return err
			})
			if err != nil {
				return err
			}

			return writeDecision(cmd, app, decision, false, loopSkippedNote)
		},
	}

	cmd.Flags().Float64Var(&value, "value", 0, "Glucose value (mg/dL)")
	cmd.Flags().StringVar(&at, "at", "", "Reading time (RFC3339, default now)")
	cmd.Flags().BoolVar(&userEntered, "user-entered", false, "Reading was entered by hand")
	cmd.Flags().BoolVar(&trigger, "loop", false, "Run a loop cycle for the new reading")

	return cmd
}

func newCarbsAddCmd(app *app) *cobra.Command {
	var grams float64
	var absorption time.Duration
	var at, foodType string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a carb entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := app.now()
			startDate, err := parseAt(at, now)
			if err != nil {
				return err
			}

			entry := domain.CarbEntry{
				StartDate:       startDate,
				Grams:           grams,
				AbsorptionTime:  absorption,
				FoodType:        foodType,
				UserCreatedDate: now,
				SyncIdentifier:  uuid.NewString(),
			}
			if err := app.history.AddCarbEntry(cmd.Context(), entry); err != nil {
				return fmt.Errorf("add carbs: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "recorded %.0f g at %s\n", grams, startDate.Format(time.RFC3339))
			return err
		},
	}

	cmd.Flags().Float64Var(&grams, "grams", 0, "Carbohydrates (g)")
	cmd.Flags().DurationVar(&absorption, "absorption", 3*time.Hour, "Expected absorption time")
	cmd.Flags().StringVar(&at, "at", "", "Meal time (RFC3339, default now)")
	cmd.Flags().StringVar(&foodType, "food", "", "Food description")

	return cmd
}

func parseAt(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now.UTC(), nil
	}

	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --at: %w", err)
	}

	return at.UTC(), nil
}
