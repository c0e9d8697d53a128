package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// LoopStatus is a point-in-time view of the loop and the pump.
type LoopStatus struct {
	Settings        domain.LoopSettings
	Basal           domain.BasalDeliveryState
	PumpLastSync    time.Time
	PendingRecovery bool
	LatestGlucose   *domain.GlucoseSample
	Override        *domain.TemporaryScheduleOverride
	PreMeal         *domain.TemporaryScheduleOverride
	LastDecision    *domain.StoredDosingDecision
}

type RenderOptions struct {
	Now time.Time
	// StaleAfter marks glucose and pump data older than this.
	StaleAfter time.Duration
}

func renderStatus(status LoopStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Loop Status"),
		s.header.Render(loopModeLine(status.Settings)),
		s.section.Render(glucoseLine(status.LatestGlucose, opts, s)),
		pumpSection(status, opts, s),
	}

	if line := overrideLine(status, opts, s); line != "" {
		lines = append(lines, line)
	}

	if status.LastDecision == nil {
		lines = append(lines, s.section.Render(s.empty.Render("No dosing decision recorded yet.")))
	} else {
		lines = append(lines, s.section.Render(renderDecision(*status.LastDecision, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDecisions(decisions []domain.StoredDosingDecision, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Dosing Decisions"),
		s.header.Render(fmt.Sprintf("decisions: %d", len(decisions))),
	}

	if len(decisions) == 0 {
		lines = append(lines, s.empty.Render("No dosing decisions recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, decision := range decisions {
		lines = append(lines, s.section.Render(renderDecision(decision, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func loopModeLine(settings domain.LoopSettings) string {
	if !settings.DosingEnabled {
		return "open loop (automatic dosing disabled)"
	}

	return fmt.Sprintf("closed loop (%s)", settings.DosingStrategy)
}

func glucoseLine(sample *domain.GlucoseSample, opts RenderOptions, s styles) string {
	label := s.label.Render("Glucose:")
	if sample == nil {
		return label + " " + s.empty.Render("no readings")
	}

	value := fmt.Sprintf("%.0f mg/dL (%.1f mmol/L)", sample.Quantity, sample.MmolL())
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		s.detail.Render(value),
		" ",
		lipgloss.NewStyle().Foreground(ageColor(sample.StartDate, opts)).Render(formatAge(sample.StartDate, opts.Now)),
	)

	if isStale(sample.StartDate, opts) {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func pumpSection(status LoopStatus, opts RenderOptions, s styles) string {
	parts := []string{s.label.Render("Pump:") + " " + basalLine(status, opts, s)}

	sync := s.meta.Render("last sync " + formatAge(status.PumpLastSync, opts.Now))
	if status.PumpLastSync.IsZero() {
		sync = s.meta.Render("never synced")
	}
	if isStale(status.PumpLastSync, opts) {
		sync += " " + s.warning.Render("[stale]")
	}
	parts = append(parts, "  "+sync)

	if status.PendingRecovery {
		parts = append(parts, "  "+s.warning.Render("awaiting recovery: dosing paused"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func basalLine(status LoopStatus, opts RenderOptions, s styles) string {
	switch status.Basal.Kind {
	case domain.BasalDeliverySuspended:
		return s.warning.Render("suspended since " + formatClock(status.Basal.At, opts.Now))
	case domain.BasalDeliveryTempBasal:
		dose, ok := status.Basal.ActiveTempBasal()
		if !ok {
			break
		}
		return tempBasalLine(dose, status.Settings.Limits.MaxBasalRate, opts, s)
	case domain.BasalDeliveryInitiating, domain.BasalDeliveryCanceling:
		return s.detail.Render(string(status.Basal.Kind))
	}

	return s.ok.Render("scheduled basal")
}

func tempBasalLine(dose domain.DoseEntry, maxBasal *float64, opts RenderOptions, s styles) string {
	parts := []string{
		s.detail.Render(fmt.Sprintf("temp basal %.2f U/hr until %s", dose.UnitsPerHour(), formatClock(dose.EndDate, opts.Now))),
	}

	if maxBasal != nil && *maxBasal > 0 {
		percent := clampPercent(dose.UnitsPerHour() / *maxBasal * 100)
		parts = append(parts,
			" ",
			renderProgressBar(percent, 20, s),
			" ",
			s.meta.Render(fmt.Sprintf("%2.0f%% of max", percent)),
		)
	}

	if !dose.IsAutomatic() {
		parts = append(parts, " ", s.meta.Render("(manual)"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func overrideLine(status LoopStatus, opts RenderOptions, s styles) string {
	var lines []string
	for _, override := range []*domain.TemporaryScheduleOverride{status.PreMeal, status.Override} {
		if override == nil {
			continue
		}
		lines = append(lines, s.label.Render("Override:")+" "+s.detail.Render(describeOverride(*override, opts.Now)))
	}

	if len(lines) == 0 {
		return ""
	}

	return s.section.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func describeOverride(o domain.TemporaryScheduleOverride, now time.Time) string {
	name := string(o.Context)
	if o.PresetName != "" {
		name = o.PresetName
	}

	parts := []string{name}
	if o.Settings.TargetRange != nil {
		parts = append(parts, o.Settings.TargetRange.String())
	}
	if o.Settings.InsulinNeedsScaleFactor != nil {
		parts = append(parts, fmt.Sprintf("%.0f%% insulin", *o.Settings.InsulinNeedsScaleFactor*100))
	}
	if end, ok := o.EffectiveEndDate(); ok {
		parts = append(parts, "until "+formatClock(end, now))
	} else {
		parts = append(parts, "until cancelled")
	}
	if o.EnactTrigger.Remote {
		parts = append(parts, "via "+o.EnactTrigger.Source)
	}

	return strings.Join(parts, " ")
}

func renderDecision(decision domain.StoredDosingDecision, opts RenderOptions, s styles) string {
	outcome := s.meta.Render("not enacted")
	if decision.Enacted {
		outcome = s.ok.Render("enacted")
	}
	if decision.HasErrors() {
		outcome = s.warning.Render("failed")
	}

	parts := []string{
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.label.Render(formatClock(decision.Date, opts.Now)),
			" ",
			s.detail.Render(decision.Reason),
			" ",
			outcome,
		),
	}

	if rec := decision.AutomaticDoseRecommendation; rec != nil {
		parts = append(parts, "  "+s.detail.Render("recommendation: "+rec.String()))
	}
	if line := onBoardLine(decision); line != "" {
		parts = append(parts, "  "+s.meta.Render(line))
	}
	if n := len(decision.PredictedGlucose); n > 0 {
		eventual := decision.PredictedGlucose[n-1]
		parts = append(parts, "  "+s.meta.Render(fmt.Sprintf("eventual glucose %.0f mg/dL at %s", eventual.Quantity, eventual.StartDate.Format("15:04"))))
	}
	for _, issue := range decision.Errors {
		parts = append(parts, "  "+s.warning.Render(issue.Kind+": ")+s.detail.Render(issue.Message))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func onBoardLine(decision domain.StoredDosingDecision) string {
	var parts []string
	if decision.InsulinOnBoard != nil {
		parts = append(parts, fmt.Sprintf("IOB %.2f U", *decision.InsulinOnBoard))
	}
	if decision.CarbsOnBoard != nil {
		parts = append(parts, fmt.Sprintf("COB %.0f g", *decision.CarbsOnBoard))
	}

	return strings.Join(parts, "  ")
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isStale(at time.Time, opts RenderOptions) bool {
	if opts.Now.IsZero() || opts.StaleAfter <= 0 || at.IsZero() {
		return false
	}

	return opts.Now.Sub(at) > opts.StaleAfter
}

func formatClock(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := at.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return at.Format("15:04")
	}

	return at.Format("15:04 on 02 Jan")
}

func formatAge(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return "at " + at.Format(time.RFC3339)
	}
	if at.After(now) {
		return "in the future"
	}

	age := now.Sub(at)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		minutes := int(age.Minutes())
		return fmt.Sprintf("%d min ago", minutes)
	case age < 24*time.Hour:
		hours := int(age.Hours())
		suffix := "hours"
		if hours == 1 {
			suffix = "hour"
		}
		return fmt.Sprintf("%d %s ago", hours, suffix)
	default:
		days := int(age.Hours() / 24)
		suffix := "days"
		if days == 1 {
			suffix = "day"
		}
		return fmt.Sprintf("%d %s ago", days, suffix)
	}
}

// ageColor fades from bright white for fresh data to grey at StaleAfter.
func ageColor(at time.Time, opts RenderOptions) lipgloss.Color {
	if opts.Now.IsZero() || opts.StaleAfter <= 0 || at.After(opts.Now) {
		return lipgloss.Color("255")
	}

	remaining := opts.StaleAfter.Seconds() - opts.Now.Sub(at).Seconds()
	return interpolateColor(remaining, 0, opts.StaleAfter.Seconds())
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 (faded) to 255 (bright white)
	interpolated := 240.0 + 15.0*normalized
	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}
