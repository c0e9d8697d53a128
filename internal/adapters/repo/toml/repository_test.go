package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/adapters/pump/simulator"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSettings() domain.LoopSettings {
	basal := domain.NewDailySchedule(time.UTC,
		domain.ScheduleItem[float64]{StartOffset: 0, Value: 0.8},
		domain.ScheduleItem[float64]{StartOffset: 6 * time.Hour, Value: 1.1},
	)
	sensitivity := domain.NewDailySchedule(time.UTC, domain.ScheduleItem[float64]{Value: 45})
	carbRatio := domain.NewDailySchedule(time.UTC, domain.ScheduleItem[float64]{Value: 10})
	target := domain.NewDailySchedule(time.UTC,
		domain.ScheduleItem[domain.GlucoseRange]{Value: domain.GlucoseRange{Min: 100, Max: 110}},
		domain.ScheduleItem[domain.GlucoseRange]{StartOffset: 22*time.Hour + 30*time.Minute, Value: domain.GlucoseRange{Min: 110, Max: 120}},
	)

	return domain.LoopSettings{
		DosingEnabled:  true,
		DosingStrategy: domain.DosingStrategyAutomaticBolus,
		InsulinType:    domain.InsulinTypeFiasp,
		Limits: domain.DosingLimits{
			MaxBolus:         domain.Float64Ptr(8),
			MaxBasalRate:     domain.Float64Ptr(4.5),
			SuspendThreshold: domain.Float64Ptr(70),
		},
		Schedules: domain.TherapySchedules{
			Basal:              &basal,
			InsulinSensitivity: &sensitivity,
			CarbRatio:          &carbRatio,
			TargetRange:        &target,
		},
	}
}

func TestSettingsRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, err := NewSettingsRepository(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)

	want := testSettings()
	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsRepositoryMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	repo, err := NewSettingsRepository(filepath.Join(t.TempDir(), "missing", "settings.toml"))
	require.NoError(t, err)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLoopSettings(), got)
}

func TestSettingsRepositoryReadsHandWrittenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 1",
		"dosing_enabled = true",
		"",
		"[limits]",
		"max_basal_rate = 3.0",
		"",
		"[[basal]]",
		"start = \"00:00\"",
		"value = 0.9",
		"",
		"[[basal]]",
		"start = \"07:30\"",
		"value = 1.2",
		"",
	}, "\n")), 0o600))

	repo, err := NewSettingsRepository(path)
	require.NoError(t, err)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.DosingEnabled)
	assert.Equal(t, domain.DosingStrategyTempBasalOnly, got.DosingStrategy)
	assert.Equal(t, domain.InsulinTypeNovolog, got.InsulinType)
	require.NotNil(t, got.Limits.MaxBasalRate)
	assert.InDelta(t, 3.0, *got.Limits.MaxBasalRate, 1e-9)
	assert.Nil(t, got.Limits.MaxBolus)
	require.NotNil(t, got.Schedules.Basal)
	require.Len(t, got.Schedules.Basal.Items, 2)
	assert.Equal(t, 7*time.Hour+30*time.Minute, got.Schedules.Basal.Items[1].StartOffset)
	assert.Nil(t, got.Schedules.CarbRatio)
}

func TestSettingsRepositoryRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: "limits = [", wantErr: "decode settings file"},
		{name: "future version", content: "version = 999\n", wantErr: "unsupported settings schema version"},
		{name: "bad offset", content: "[[basal]]\nstart = \"25:00\"\nvalue = 1.0\n", wantErr: "decode basal schedule"},
		{name: "schedule not starting at midnight", content: "[[carb_ratio]]\nstart = \"06:00\"\nvalue = 10.0\n", wantErr: "validate settings file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "settings.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			repo, err := NewSettingsRepository(path)
			require.NoError(t, err)

			_, err = repo.Load(context.Background())
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSettingsRepositorySaveRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.toml")
	repo, err := NewSettingsRepository(path)
	require.NoError(t, err)

	invalid := testSettings()
	invalid.Limits.MaxBasalRate = domain.Float64Ptr(-1)

	require.Error(t, repo.Save(context.Background(), invalid))
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSettingsRepositorySaveEnforcesPermissionsAndVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	repo, err := NewSettingsRepository(path)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), testSettings()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "22:30")
}

func TestSettingsRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo, err := NewSettingsRepository(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = repo.Save(ctx, testSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewDocumentRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewSettingsRepository("")
	require.Error(t, err)
	assert.ErrorContains(t, err, "settings path is empty")
}

func TestOverrideRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, err := NewOverrideRepository(filepath.Join(t.TempDir(), "overrides.toml"))
	require.NoError(t, err)

	ended := testNow.Add(-time.Hour)
	want := domain.OverrideState{
		PreMeal: &domain.TemporaryScheduleOverride{
			ID:           uuid.New(),
			Context:      domain.OverrideContextPreMeal,
			Settings:     domain.OverrideSettings{TargetRange: &domain.GlucoseRange{Min: 80, Max: 90}},
			StartDate:    testNow,
			Duration:     domain.FiniteDuration(time.Hour),
			EnactTrigger: domain.LocalTrigger(),
		},
		Active: &domain.TemporaryScheduleOverride{
			ID:           uuid.New(),
			Context:      domain.OverrideContextPreset,
			PresetName:   "running",
			Settings:     domain.OverrideSettings{InsulinNeedsScaleFactor: domain.Float64Ptr(0.5)},
			StartDate:    testNow.Add(-30 * time.Minute),
			Duration:     domain.IndefiniteDuration(),
			EnactTrigger: domain.RemoteTrigger("nightscout"),
		},
		History: []domain.TemporaryScheduleOverride{
			{
				ID:      uuid.New(),
				Context: domain.OverrideContextCustom,
				Settings: domain.OverrideSettings{
					TargetRange:             &domain.GlucoseRange{Min: 140, Max: 160},
					InsulinNeedsScaleFactor: domain.Float64Ptr(1.2),
				},
				StartDate:    testNow.Add(-3 * time.Hour),
				Duration:     domain.FiniteDuration(4 * time.Hour),
				EnactTrigger: domain.LocalTrigger(),
				ActualEnd:    &ended,
			},
		},
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOverrideRepositoryMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo, err := NewOverrideRepository(filepath.Join(t.TempDir(), "overrides.toml"))
	require.NoError(t, err)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OverrideState{}, got)
}

func TestOverrideRepositoryRejectsBadDuration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "overrides.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[active]",
		"id = \"" + uuid.NewString() + "\"",
		"context = \"custom\"",
		"insulin_needs_scale_factor = 0.8",
		"start_date = \"2026-03-01T10:00:00Z\"",
		"duration = \"soon\"",
		"",
	}, "\n")), 0o600))

	repo, err := NewOverrideRepository(path)
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "duration")
}

func TestPumpStateRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, err := NewPumpStateRepository(filepath.Join(t.TempDir(), "pump.toml"))
	require.NoError(t, err)

	temp := domain.DoseEntry{
		Type:           domain.DoseTypeTempBasal,
		StartDate:      testNow,
		EndDate:        testNow.Add(30 * time.Minute),
		Value:          1.35,
		Unit:           domain.DoseUnitUnitsPerHour,
		Automatic:      domain.BoolPtr(true),
		SyncIdentifier: "temp-1",
	}
	want := simulator.State{
		TempBasal:       &temp,
		LastSync:        testNow,
		PendingRecovery: true,
		InjectFailure:   simulator.FailureError,
	}

	_, err = repo.UpdateState(context.Background(), func(state *simulator.State) error {
		*state = want
		return nil
	})
	require.NoError(t, err)

	got, err := repo.LoadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPumpStateRepositoryFailedUpdateIsNotPersisted(t *testing.T) {
	t.Parallel()

	repo, err := NewPumpStateRepository(filepath.Join(t.TempDir(), "pump.toml"))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = repo.UpdateState(context.Background(), func(state *simulator.State) error {
		state.Suspended = true
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.LoadState(context.Background())
	require.NoError(t, err)
	assert.False(t, got.Suspended)
}

func TestPumpStateRepositoryConcurrentUpdatesAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pump.toml")
	newRepo := func() *PumpStateRepository {
		repo, err := NewPumpStateRepository(path)
		require.NoError(t, err)
		return repo
	}

	repoA := newRepo()
	repoB := newRepo()

	_, err := repoA.UpdateState(context.Background(), func(state *simulator.State) error {
		state.LastSync = testNow
		return nil
	})
	require.NoError(t, err)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup

	for _, repo := range []*PumpStateRepository{repoA, repoB} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < perRepoWrites; i++ {
				_, err := repo.UpdateState(context.Background(), func(state *simulator.State) error {
					state.LastSync = state.LastSync.Add(time.Second)
					return nil
				})
				errCh <- err
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := repoB.LoadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(perRepoWrites*2*time.Second), got.LastSync)
}
