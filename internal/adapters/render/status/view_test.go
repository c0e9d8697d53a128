package status

import (
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var renderNow = time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

func closedLoopSettings() domain.LoopSettings {
	settings := domain.DefaultLoopSettings()
	settings.DosingEnabled = true
	settings.Limits.MaxBasalRate = domain.Float64Ptr(4)
	return settings
}

func TestRenderClosedLoopWithTempBasal(t *testing.T) {
	temp := domain.DoseEntry{
		Type:      domain.DoseTypeTempBasal,
		StartDate: renderNow.Add(-10 * time.Minute),
		EndDate:   renderNow.Add(20 * time.Minute),
		Value:     1.2,
		Unit:      domain.DoseUnitUnitsPerHour,
	}

	output, err := Render(LoopStatus{
		Settings:      closedLoopSettings(),
		Basal:         domain.BasalDeliveryState{Kind: domain.BasalDeliveryTempBasal, At: temp.StartDate, Dose: &temp},
		PumpLastSync:  renderNow.Add(-2 * time.Minute),
		LatestGlucose: &domain.GlucoseSample{StartDate: renderNow.Add(-3 * time.Minute), Quantity: 142},
	}, RenderOptions{Now: renderNow, StaleAfter: 15 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "Loop Status")
	assert.Contains(t, output, "closed loop (tempBasalOnly)")
	assert.Contains(t, output, "142 mg/dL (7.9 mmol/L)")
	assert.Contains(t, output, "3 min ago")
	assert.Contains(t, output, "temp basal 1.20 U/hr until 11:20")
	assert.Contains(t, output, "30% of max")
	assert.Contains(t, output, "last sync 2 min ago")
	assert.Contains(t, output, "No dosing decision recorded yet.")
	assert.NotContains(t, output, "[stale]")
}

func TestRenderMarksStaleData(t *testing.T) {
	output, err := Render(LoopStatus{
		Settings:      closedLoopSettings(),
		Basal:         domain.BasalDeliveryState{Kind: domain.BasalDeliveryActive},
		PumpLastSync:  renderNow.Add(-2 * time.Hour),
		LatestGlucose: &domain.GlucoseSample{StartDate: renderNow.Add(-40 * time.Minute), Quantity: 110},
	}, RenderOptions{Now: renderNow, StaleAfter: 15 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "40 min ago [stale]")
	assert.Contains(t, output, "last sync 2 hours ago [stale]")
	assert.Contains(t, output, "scheduled basal")
}

func TestRenderOpenLoopSuspendedPump(t *testing.T) {
	output, err := Render(LoopStatus{
		Settings:        domain.DefaultLoopSettings(),
		Basal:           domain.BasalDeliveryState{Kind: domain.BasalDeliverySuspended, At: renderNow.Add(-time.Hour)},
		PendingRecovery: true,
	}, RenderOptions{Now: renderNow, StaleAfter: 15 * time.Minute})

	require.NoError(t, err)
	assert.Contains(t, output, "open loop (automatic dosing disabled)")
	assert.Contains(t, output, "suspended since 10:00")
	assert.Contains(t, output, "never synced")
	assert.Contains(t, output, "awaiting recovery")
	assert.Contains(t, output, "no readings")
}

func TestRenderShowsOverrides(t *testing.T) {
	preMeal := domain.TemporaryScheduleOverride{
		ID:        uuid.New(),
		Context:   domain.OverrideContextPreMeal,
		Settings:  domain.OverrideSettings{TargetRange: &domain.GlucoseRange{Min: 80, Max: 100}},
		StartDate: renderNow.Add(-10 * time.Minute),
		Duration:  domain.FiniteDuration(time.Hour),
	}
	workout := domain.TemporaryScheduleOverride{
		ID:           uuid.New(),
		Context:      domain.OverrideContextPreset,
		PresetName:   "Running",
		Settings:     domain.OverrideSettings{InsulinNeedsScaleFactor: domain.Float64Ptr(0.5)},
		StartDate:    renderNow.Add(-time.Hour),
		Duration:     domain.IndefiniteDuration(),
		EnactTrigger: domain.RemoteTrigger("caregiver"),
	}

	output, err := Render(LoopStatus{
		Settings: closedLoopSettings(),
		PreMeal:  &preMeal,
		Override: &workout,
	}, RenderOptions{Now: renderNow})

	require.NoError(t, err)
	assert.Contains(t, output, "preMeal 80-100 mg/dL until 11:50")
	assert.Contains(t, output, "Running 50% insulin until cancelled via caregiver")
}

func TestRenderDecisions(t *testing.T) {
	enacted := domain.StoredDosingDecision{
		ID:             uuid.New(),
		Date:           renderNow.Add(-5 * time.Minute),
		Reason:         domain.DecisionReasonLoop,
		InsulinOnBoard: domain.Float64Ptr(1.5),
		CarbsOnBoard:   domain.Float64Ptr(20),
		PredictedGlucose: []domain.PredictedGlucoseValue{
			{StartDate: renderNow.Add(-5 * time.Minute), Quantity: 140},
			{StartDate: renderNow.Add(3 * time.Hour), Quantity: 118},
		},
		AutomaticDoseRecommendation: &domain.AutomaticDoseRecommendation{
			BasalAdjustment: &domain.TempBasalRecommendation{UnitsPerHour: 1.8, Duration: 30 * time.Minute},
		},
		Enacted: true,
	}
	failed := domain.StoredDosingDecision{
		ID:     uuid.New(),
		Date:   renderNow.Add(-24 * time.Hour),
		Reason: domain.DecisionReasonLoop,
		Errors: []domain.DecisionIssue{{Kind: "glucoseTooOld", Message: "glucose data is too old"}},
	}

	output, err := RenderDecisions([]domain.StoredDosingDecision{enacted, failed}, RenderOptions{Now: renderNow})

	require.NoError(t, err)
	assert.Contains(t, output, "decisions: 2")
	assert.Contains(t, output, "10:55 loop enacted")
	assert.Contains(t, output, "recommendation: basal: 1.8 U/hr for 30m0s")
	assert.Contains(t, output, "IOB 1.50 U  COB 20 g")
	assert.Contains(t, output, "eventual glucose 118 mg/dL at 14:00")
	assert.Contains(t, output, "11:00 on 13 Feb loop failed")
	assert.Contains(t, output, "glucoseTooOld: glucose data is too old")
}

func TestRenderDecisionsEmpty(t *testing.T) {
	output, err := RenderDecisions(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "decisions: 0")
	assert.Contains(t, output, "No dosing decisions recorded.")
}

func TestFormatAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "zero", at: time.Time{}, want: "unknown"},
		{name: "fresh", at: renderNow.Add(-20 * time.Second), want: "just now"},
		{name: "minutes", at: renderNow.Add(-7 * time.Minute), want: "7 min ago"},
		{name: "one hour", at: renderNow.Add(-90 * time.Minute), want: "1 hour ago"},
		{name: "days", at: renderNow.Add(-50 * time.Hour), want: "2 days ago"},
		{name: "future", at: renderNow.Add(time.Minute), want: "in the future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatAge(tt.at, renderNow))
		})
	}
}
