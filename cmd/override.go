package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/spf13/cobra"
)

func newOverrideCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage temporary schedule overrides",
	}

	cmd.AddCommand(
		newOverrideShowCmd(app),
		newOverridePreMealCmd(app),
		newOverrideEnableCmd(app),
		newOverrideCancelCmd(app),
	)

	return cmd
}

func newOverrideShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show active overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := app.overrides.State(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, state)
			}

			now := app.now()
			out := cmd.OutOrStdout()
			printed := false
			if preMeal, ok := state.ActivePreMeal(now); ok {
				printed = true
				if _, err := fmt.Fprintln(out, describeOverride(*preMeal)); err != nil {
					return err
				}
			}
			if active, ok := state.ActiveOverride(now); ok {
				printed = true
				if _, err := fmt.Fprintln(out, describeOverride(*active)); err != nil {
					return err
				}
			}
			if !printed {
				_, err = fmt.Fprintln(out, "no active override")
			}

			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newOverridePreMealCmd(app *app) *cobra.Command {
	var minTarget, maxTarget float64
	var duration time.Duration
	var remoteSource string

	cmd := &cobra.Command{
		Use:   "premeal",
		Short: "Enable the pre-meal target range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if duration <= 0 {
				return errors.New("--duration must be positive")
			}

			enabled, err := app.overrides.EnablePreMeal(cmd.Context(),
				domain.GlucoseRange{Min: minTarget, Max: maxTarget},
				duration,
				enactTrigger(remoteSource),
			)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "enabled "+describeOverride(enabled))
			return err
		},
	}

	cmd.Flags().Float64Var(&minTarget, "min", 80, "Target range minimum (mg/dL)")
	cmd.Flags().Float64Var(&maxTarget, "max", 100, "Target range maximum (mg/dL)")
	cmd.Flags().DurationVar(&duration, "duration", time.Hour, "How long the pre-meal range stays active")
	cmd.Flags().StringVar(&remoteSource, "remote-source", "", "Mark the override as remotely enacted from this source")

	return cmd
}

func newOverrideEnableCmd(app *app) *cobra.Command {
	var name, overrideContext, remoteSource string
	var minTarget, maxTarget, scale float64
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Enable a preset, custom or workout override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctxKind := domain.OverrideContext(overrideContext)
			if !ctxKind.Valid() || ctxKind == domain.OverrideContextPreMeal {
				return fmt.Errorf("unsupported override context %q", overrideContext)
			}

			override := domain.TemporaryScheduleOverride{
				Context:      ctxKind,
				PresetName:   name,
				Duration:     domain.IndefiniteDuration(),
				EnactTrigger: enactTrigger(remoteSource),
			}
			if duration > 0 {
				override.Duration = domain.FiniteDuration(duration)
			}
			if cmd.Flags().Changed("min") || cmd.Flags().Changed("max") {
				override.Settings.TargetRange = &domain.GlucoseRange{Min: minTarget, Max: maxTarget}
			}
			if cmd.Flags().Changed("scale") {
				override.Settings.InsulinNeedsScaleFactor = &scale
			}

			enabled, err := app.overrides.Enable(cmd.Context(), override)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "enabled "+describeOverride(enabled))
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Preset name")
	cmd.Flags().StringVar(&overrideContext, "context", string(domain.OverrideContextPreset), "Override context (preset|custom|legacyWorkout)")
	cmd.Flags().Float64Var(&minTarget, "min", 0, "Target range minimum (mg/dL)")
	cmd.Flags().Float64Var(&maxTarget, "max", 0, "Target range maximum (mg/dL)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Insulin needs scale factor")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Override duration (0 = until cancelled)")
	cmd.Flags().StringVar(&remoteSource, "remote-source", "", "Mark the override as remotely enacted from this source")

	return cmd
}

func newOverrideCancelCmd(app *app) *cobra.Command {
	var preMeal bool

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if preMeal {
				if err := app.overrides.CancelPreMeal(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "cancelled pre-meal override")
				return err
			}

			ended, err := app.overrides.CancelActive(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "cancelled "+describeOverride(ended))
			return err
		},
	}

	cmd.Flags().BoolVar(&preMeal, "premeal", false, "Cancel the pre-meal override instead")

	return cmd
}

func enactTrigger(remoteSource string) domain.EnactTrigger {
	if remoteSource == "" {
		return domain.LocalTrigger()
	}

	return domain.RemoteTrigger(remoteSource)
}

func describeOverride(o domain.TemporaryScheduleOverride) string {
	label := string(o.Context)
	if o.PresetName != "" {
		label = fmt.Sprintf("%s %q", o.Context, o.PresetName)
	}
	if o.Settings.TargetRange != nil {
		label += " target " + o.Settings.TargetRange.String()
	}
	if o.Settings.InsulinNeedsScaleFactor != nil {
		label += fmt.Sprintf(" scale %.2f", *o.Settings.InsulinNeedsScaleFactor)
	}
	if end, ok := o.EffectiveEndDate(); ok {
		label += " until " + end.Format(time.RFC3339)
	} else {
		label += " until cancelled"
	}

	return label
}
