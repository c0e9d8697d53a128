package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

// SettingsSchedules expands the user's daily therapy schedules into absolute
// timelines.
type SettingsSchedules struct {
	repo ports.SettingsRepository
}

var _ ports.ScheduleStore = (*SettingsSchedules)(nil)

func NewSettingsSchedules(repo ports.SettingsRepository) *SettingsSchedules {
	return &SettingsSchedules{repo: repo}
}

func (s *SettingsSchedules) BasalHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	return expand(settings.Schedules.Basal, domain.SettingBasalRateSchedule, start, end)
}

func (s *SettingsSchedules) CarbRatioHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	return expand(settings.Schedules.CarbRatio, domain.SettingCarbRatioSchedule, start, end)
}

func (s *SettingsSchedules) InsulinSensitivityHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	return expand(settings.Schedules.InsulinSensitivity, domain.SettingInsulinSensitivity, start, end)
}

func (s *SettingsSchedules) TargetRangeHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[domain.GlucoseRange], error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	return expand(settings.Schedules.TargetRange, domain.SettingGlucoseTargetRange, start, end)
}

func (s *SettingsSchedules) DosingLimits(ctx context.Context, _ time.Time) (domain.DosingLimits, error) {
	settings, err := s.load(ctx)
	if err != nil {
		return domain.DosingLimits{}, err
	}

	return settings.Limits, nil
}

func (s *SettingsSchedules) load(ctx context.Context) (domain.LoopSettings, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return domain.LoopSettings{}, fmt.Errorf("load settings: %w", err)
	}

	return settings, nil
}

func expand[T any](schedule *domain.DailySchedule[T], setting string, start, end time.Time) ([]domain.TimeBoundedValue[T], error) {
	if schedule == nil || len(schedule.Items) == 0 {
		return nil, &domain.ConfigurationError{Setting: setting}
	}

	return schedule.Between(start, end), nil
}
