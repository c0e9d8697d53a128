package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/spf13/cobra"
)

func newSettingsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change therapy settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(app),
		newSettingsDosingCmd(app),
		newSettingsStrategyCmd(app),
		newSettingsLimitCmd(app, "max-basal", "Set the maximum basal rate (U/hr)", func(s *domain.LoopSettings, v float64) {
			s.Limits.MaxBasalRate = &v
		}),
		newSettingsLimitCmd(app, "max-bolus", "Set the maximum bolus (U)", func(s *domain.LoopSettings, v float64) {
			s.Limits.MaxBolus = &v
		}),
		newSettingsLimitCmd(app, "suspend-threshold", "Set the suspend threshold (mg/dL)", func(s *domain.LoopSettings, v float64) {
			s.Limits.SuspendThreshold = &v
		}),
		newSettingsScheduleCmd(app),
	)

	return cmd
}

func newSettingsShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show therapy settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.settings.Load(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, settingsView(settings))
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(describeSettings(settings), "\n"))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newSettingsDosingCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:       "dosing on|off",
		Short:     "Turn automatic dosing on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}

			return updateSettings(cmd, app, func(s *domain.LoopSettings) {
				s.DosingEnabled = enabled
			})
		},
	}
}

func newSettingsStrategyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strategy tempBasalOnly|automaticBolus",
		Short: "Choose how automatic doses are delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy := domain.DosingStrategy(args[0])
			if !strategy.Valid() {
				return fmt.Errorf("unsupported dosing strategy %q", args[0])
			}

			return updateSettings(cmd, app, func(s *domain.LoopSettings) {
				s.DosingStrategy = strategy
			})
		},
	}
}

func newSettingsLimitCmd(app *app, use, short string, apply func(*domain.LoopSettings, float64)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <value>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("parse %s: %w", use, err)
			}

			return updateSettings(cmd, app, func(s *domain.LoopSettings) {
				apply(s, value)
			})
		},
	}
}

func newSettingsScheduleCmd(app *app) *cobra.Command {
	var timeZone string

	cmd := &cobra.Command{
		Use:   "schedule basal|sensitivity|carb-ratio|target HH:MM=value...",
		Short: "Replace a daily therapy schedule",
		Long:  "Replace a daily therapy schedule. Entries are HH:MM=value; target entries are HH:MM=min-max. The first entry must start at 00:00.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(timeZone)
			if err != nil {
				return fmt.Errorf("load time zone: %w", err)
			}

			kind, entries := args[0], args[1:]
			if kind == "target" {
				items, err := parseScheduleItems(entries, parseRange)
				if err != nil {
					return err
				}
				schedule := domain.NewDailySchedule(loc, items...)
				return updateSettings(cmd, app, func(s *domain.LoopSettings) {
					s.Schedules.TargetRange = &schedule
				})
			}

			items, err := parseScheduleItems(entries, func(raw string) (float64, error) {
				return strconv.ParseFloat(raw, 64)
			})
			if err != nil {
				return err
			}
			schedule := domain.NewDailySchedule(loc, items...)

			var apply func(*domain.LoopSettings)
			switch kind {
			case "basal":
				apply = func(s *domain.LoopSettings) { s.Schedules.Basal = &schedule }
			case "sensitivity":
				apply = func(s *domain.LoopSettings) { s.Schedules.InsulinSensitivity = &schedule }
			case "carb-ratio":
				apply = func(s *domain.LoopSettings) { s.Schedules.CarbRatio = &schedule }
			default:
				return fmt.Errorf("unknown schedule %q", kind)
			}

			return updateSettings(cmd, app, apply)
		},
	}

	cmd.Flags().StringVar(&timeZone, "tz", "UTC", "IANA time zone the schedule repeats in")

	return cmd
}

func parseScheduleItems[T any](entries []string, parse func(string) (T, error)) ([]domain.ScheduleItem[T], error) {
	items := make([]domain.ScheduleItem[T], 0, len(entries))
	for _, entry := range entries {
		start, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("schedule entry %q: expected HH:MM=value", entry)
		}

		offset, err := domain.ParseScheduleOffset(start)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", entry, err)
		}
		value, err := parse(raw)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", entry, err)
		}

		items = append(items, domain.ScheduleItem[T]{StartOffset: offset, Value: value})
	}

	return items, nil
}

func parseRange(raw string) (domain.GlucoseRange, error) {
	minRaw, maxRaw, ok := strings.Cut(raw, "-")
	if !ok {
		return domain.GlucoseRange{}, fmt.Errorf("expected min-max, got %q", raw)
	}

	minValue, err := strconv.ParseFloat(minRaw, 64)
	if err != nil {
		return domain.GlucoseRange{}, fmt.Errorf("parse range minimum: %w", err)
	}
	maxValue, err := strconv.ParseFloat(maxRaw, 64)
	if err != nil {
		return domain.GlucoseRange{}, fmt.Errorf("parse range maximum: %w", err)
	}

	return domain.GlucoseRange{Min: minValue, Max: maxValue}, nil
}

// updateSettings saves the change, then lets the loop cancel a temp basal the
// new settings no longer allow.
func updateSettings(cmd *cobra.Command, app *app, fn func(*domain.LoopSettings)) error {
	old, next, err := app.settings.Update(cmd.Context(), fn)
	if err != nil {
		return err
	}

	var decision *domain.StoredDosingDecision
	err = app.withLoop(cmd.Context(), func(ctx context.Context, loop *application.LoopService) error {
		var err error
		decision, err = loop.HandleSettingsChange(ctx, old, next)
		return err
	})
	if err != nil {
		return fmt.Errorf("apply settings change: %w", err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, "settings saved"); err != nil {
		return err
	}
	if decision != nil {
		_, err = fmt.Fprintf(out, "cancelled automatic temp basal (%s)\n", decision.Reason)
	}

	return err
}

type scheduleItemView struct {
	Start string `json:"start"`
	Value any    `json:"value"`
}

type settingsJSON struct {
	DosingEnabled      bool                  `json:"dosingEnabled"`
	DosingStrategy     domain.DosingStrategy `json:"dosingStrategy"`
	InsulinType        domain.InsulinType    `json:"insulinType"`
	MaxBasalRate       *float64              `json:"maxBasalRate,omitempty"`
	MaxBolus           *float64              `json:"maxBolus,omitempty"`
	SuspendThreshold   *float64              `json:"suspendThreshold,omitempty"`
	Basal              []scheduleItemView    `json:"basal,omitempty"`
	InsulinSensitivity []scheduleItemView    `json:"insulinSensitivity,omitempty"`
	CarbRatio          []scheduleItemView    `json:"carbRatio,omitempty"`
	TargetRange        []scheduleItemView    `json:"targetRange,omitempty"`
	Fingerprint        string                `json:"fingerprint"`
}

func settingsView(s domain.LoopSettings) settingsJSON {
	return settingsJSON{
		DosingEnabled:      s.DosingEnabled,
		DosingStrategy:     s.DosingStrategy,
		InsulinType:        s.InsulinType,
		MaxBasalRate:       s.Limits.MaxBasalRate,
		MaxBolus:           s.Limits.MaxBolus,
		SuspendThreshold:   s.Limits.SuspendThreshold,
		Basal:              scheduleView(s.Schedules.Basal),
		InsulinSensitivity: scheduleView(s.Schedules.InsulinSensitivity),
		CarbRatio:          scheduleView(s.Schedules.CarbRatio),
		TargetRange:        scheduleView(s.Schedules.TargetRange),
		Fingerprint:        s.Fingerprint(),
	}
}

func scheduleView[T any](schedule *domain.DailySchedule[T]) []scheduleItemView {
	if schedule == nil {
		return nil
	}

	out := make([]scheduleItemView, 0, len(schedule.Items))
	for _, item := range schedule.Items {
		out = append(out, scheduleItemView{Start: domain.FormatScheduleOffset(item.StartOffset), Value: item.Value})
	}

	return out
}

func describeSettings(s domain.LoopSettings) []string {
	dosing := "off"
	if s.DosingEnabled {
		dosing = "on"
	}

	lines := []string{
		"automatic dosing: " + dosing,
		"strategy: " + string(s.DosingStrategy),
		"max basal rate: " + formatLimit(s.Limits.MaxBasalRate, "U/hr"),
		"max bolus: " + formatLimit(s.Limits.MaxBolus, "U"),
		"suspend threshold: " + formatLimit(s.Limits.SuspendThreshold, "mg/dL"),
	}
	lines = append(lines, describeSchedule("basal", s.Schedules.Basal)...)
	lines = append(lines, describeSchedule("sensitivity", s.Schedules.InsulinSensitivity)...)
	lines = append(lines, describeSchedule("carb ratio", s.Schedules.CarbRatio)...)
	lines = append(lines, describeSchedule("target", s.Schedules.TargetRange)...)

	return lines
}

func formatLimit(v *float64, unit string) string {
	if v == nil {
		return "not set"
	}

	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

func describeSchedule[T any](name string, schedule *domain.DailySchedule[T]) []string {
	if schedule == nil {
		return []string{name + ": not set"}
	}

	lines := []string{name + ":"}
	for _, item := range schedule.Items {
		lines = append(lines, fmt.Sprintf("  %s %v", domain.FormatScheduleOffset(item.StartOffset), item.Value))
	}

	return lines
}
