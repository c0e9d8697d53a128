package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSchedules struct {
	*SettingsSchedules

	mu     sync.Mutex
	ranges map[string]queryRange
}

func newRecordingSchedules(repo *fakeSettingsRepository) *recordingSchedules {
	return &recordingSchedules{SettingsSchedules: NewSettingsSchedules(repo), ranges: map[string]queryRange{}}
}

func (r *recordingSchedules) record(name string, start, end time.Time) {
	r.mu.Lock()
	r.ranges[name] = queryRange{start, end}
	r.mu.Unlock()
}

func (r *recordingSchedules) BasalHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error) {
	r.record("basal", start, end)
	return r.SettingsSchedules.BasalHistory(ctx, start, end)
}

func (r *recordingSchedules) InsulinSensitivityHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error) {
	r.record("sensitivity", start, end)
	return r.SettingsSchedules.InsulinSensitivityHistory(ctx, start, end)
}

func (r *recordingSchedules) TargetRangeHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[domain.GlucoseRange], error) {
	r.record("target", start, end)
	return r.SettingsSchedules.TargetRangeHistory(ctx, start, end)
}

func TestAssembleComputesWindows(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	schedules := newRecordingSchedules(f.settings)
	a := f.assembler()
	a.schedules = schedules

	_, err := a.assemble(context.Background(), testNow, false)
	require.NoError(t, err)

	forecastEnd := time.Date(2026, 3, 1, 18, 15, 0, 0, time.UTC)
	dosesStart := testNow.Add(-(10*time.Hour + 6*time.Hour + 10*time.Minute))
	assert.Equal(t, queryRange{dosesStart, testNow}, schedules.ranges["basal"])
	assert.Equal(t, queryRange{dosesStart, forecastEnd}, schedules.ranges["sensitivity"])
	assert.Equal(t, queryRange{testNow, forecastEnd}, schedules.ranges["target"])
	require.Len(t, f.glucose.queries, 1)
	assert.Equal(t, testNow.Add(-10*time.Hour), f.glucose.queries[0].start)
}

func TestAssembleNarrowsDoseWindowToEarliestDose(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	f.doses.doses = []domain.DoseEntry{
		{Type: domain.DoseTypeBolus, StartDate: testNow.Add(-2 * time.Hour), EndDate: testNow.Add(-2 * time.Hour), Value: 2, Unit: domain.DoseUnitUnits},
		{Type: domain.DoseTypeBolus, StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(-time.Hour), Value: 1, Unit: domain.DoseUnitUnits},
	}
	schedules := newRecordingSchedules(f.settings)
	a := f.assembler()
	a.schedules = schedules

	window, err := a.assemble(context.Background(), testNow, false)
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(-2*time.Hour), schedules.ranges["basal"].start)
	assert.Equal(t, testNow.Add(-10*time.Hour), schedules.ranges["sensitivity"].start, "sensitivity starts at the earlier carb window")
	require.Len(t, window.Input.Doses, 2)
	assert.True(t, window.Input.Doses[0].StartDate.Before(window.Input.Doses[1].StartDate))
}

func TestAssembleExcludesCarbsEnteredAfterBase(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	f.carbs.entries = []domain.CarbEntry{
		{StartDate: testNow.Add(-time.Hour), Grams: 30, SyncIdentifier: "past"},
		{StartDate: testNow.Add(30 * time.Minute), Grams: 45, UserCreatedDate: testNow.Add(-5 * time.Minute), SyncIdentifier: "planned"},
		{StartDate: testNow.Add(30 * time.Minute), Grams: 20, UserCreatedDate: testNow.Add(5 * time.Minute), SyncIdentifier: "later"},
	}

	window, err := f.assembler().assemble(context.Background(), testNow, false)
	require.NoError(t, err)

	ids := make([]string, 0, len(window.Input.CarbEntries))
	for _, entry := range window.Input.CarbEntries {
		ids = append(ids, entry.SyncIdentifier)
	}
	assert.Equal(t, []string{"past", "planned"}, ids)
}

func TestAssembleAppliesActiveOverride(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	override := domain.TemporaryScheduleOverride{
		ID:        uuid.New(),
		Context:   domain.OverrideContextPreset,
		Settings:  domain.OverrideSettings{InsulinNeedsScaleFactor: domain.Float64Ptr(2)},
		StartDate: testNow.Add(-30 * time.Minute),
		Duration:  domain.FiniteDuration(2 * time.Hour),
	}
	f.overrides.state = domain.OverrideState{Active: &override}

	window, err := f.assembler().assemble(context.Background(), testNow, false)
	require.NoError(t, err)
	require.NotNil(t, window.ActiveOverride)
	assert.Equal(t, override.ID, window.ActiveOverride.ID)

	basal, ok := domain.ClosestPrior(window.Input.Basal, testNow)
	require.True(t, ok)
	assert.Equal(t, 2.0, basal.Value)

	isf, ok := domain.ClosestPrior(window.Input.Sensitivity, testNow)
	require.True(t, ok)
	assert.Equal(t, 25.0, isf.Value)

	cr, ok := domain.ClosestPrior(window.Input.CarbRatio, testNow.Add(3*time.Hour))
	require.True(t, ok)
	assert.Equal(t, 10.0, cr.Value, "scaling stops when the override ends")
}

func TestAssembleReportsFirstMissingSchedule(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	f.settings.settings.Schedules.TargetRange = nil
	f.settings.settings.Schedules.CarbRatio = nil

	_, err := f.assembler().assemble(context.Background(), testNow, false)

	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, domain.SettingCarbRatioSchedule, configErr.Setting)
}

func TestAssembleRequiresMaxBasal(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	f.settings.settings.Limits.MaxBasalRate = nil

	_, err := f.assembler().assemble(context.Background(), testNow, false)

	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, domain.SettingMaximumBasalRatePerHour, configErr.Setting)
}

func TestAssembleCanLeaveOutPreMeal(t *testing.T) {
	t.Parallel()

	f := newLoopFixture()
	preMeal := domain.TemporaryScheduleOverride{
		Context:   domain.OverrideContextPreMeal,
		Settings:  domain.OverrideSettings{TargetRange: &domain.GlucoseRange{Min: 80, Max: 90}},
		StartDate: testNow.Add(-10 * time.Minute),
		Duration:  domain.FiniteDuration(time.Hour),
	}
	f.overrides.state = domain.OverrideState{PreMeal: &preMeal}

	with, err := f.assembler().assemble(context.Background(), testNow, false)
	require.NoError(t, err)
	require.NotNil(t, with.PreMealOverride)
	assert.Equal(t, domain.GlucoseRange{Min: 80, Max: 90}, targetAt(t, with.Input.Target, testNow))

	without, err := f.assembler().assemble(context.Background(), testNow, true)
	require.NoError(t, err)
	assert.Nil(t, without.PreMealOverride)
	assert.Equal(t, domain.GlucoseRange{Min: 100, Max: 110}, targetAt(t, without.Input.Target, testNow))
}
