package toml

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

type SettingsRepository struct {
	doc *document
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(path string) (*SettingsRepository, error) {
	doc, err := newDocument(path, "settings")
	if err != nil {
		return nil, err
	}

	return &SettingsRepository{doc: doc}, nil
}

func (r *SettingsRepository) Load(ctx context.Context) (domain.LoopSettings, error) {
	if err := ctx.Err(); err != nil {
		return domain.LoopSettings{}, err
	}

	r.doc.mu.RLock()
	defer r.doc.mu.RUnlock()

	var file settingsFileSchema
	if err := r.doc.read(&file); err != nil {
		return domain.LoopSettings{}, err
	}

	return settingsFromSchema(file)
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.LoopSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	file := settingsToSchema(settings)
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.doc.write(&file)
}

func settingsToSchema(settings domain.LoopSettings) settingsFileSchema {
	file := settingsFileSchema{
		DosingEnabled:  settings.DosingEnabled,
		DosingStrategy: string(settings.DosingStrategy),
		InsulinType:    string(settings.InsulinType),
		Limits: limitsSchema{
			MaxBolus:         settings.Limits.MaxBolus,
			MaxBasalRate:     settings.Limits.MaxBasalRate,
			SuspendThreshold: settings.Limits.SuspendThreshold,
		},
		Basal:       floatItemsToSchema(settings.Schedules.Basal),
		Sensitivity: floatItemsToSchema(settings.Schedules.InsulinSensitivity),
		CarbRatio:   floatItemsToSchema(settings.Schedules.CarbRatio),
	}

	if target := settings.Schedules.TargetRange; target != nil {
		for _, item := range target.Items {
			file.TargetRange = append(file.TargetRange, targetItemSchema{
				Start: domain.FormatScheduleOffset(item.StartOffset),
				Min:   item.Value.Min,
				Max:   item.Value.Max,
			})
		}
	}

	file.TimeZone = scheduleZone(settings.Schedules)
	return file
}

func settingsFromSchema(file settingsFileSchema) (domain.LoopSettings, error) {
	loc := time.UTC
	if file.TimeZone != "" {
		loaded, err := time.LoadLocation(file.TimeZone)
		if err != nil {
			return domain.LoopSettings{}, fmt.Errorf("load settings time zone: %w", err)
		}
		loc = loaded
	}

	settings := domain.DefaultLoopSettings()
	settings.DosingEnabled = file.DosingEnabled
	settings.DosingStrategy = domain.DosingStrategy(file.DosingStrategy)
	if file.InsulinType != "" {
		settings.InsulinType = domain.InsulinType(file.InsulinType)
	}
	settings.Limits = domain.DosingLimits{
		MaxBolus:         file.Limits.MaxBolus,
		MaxBasalRate:     file.Limits.MaxBasalRate,
		SuspendThreshold: file.Limits.SuspendThreshold,
	}

	var err error
	if settings.Schedules.Basal, err = floatItemsFromSchema(file.Basal, loc); err != nil {
		return domain.LoopSettings{}, fmt.Errorf("decode basal schedule: %w", err)
	}
	if settings.Schedules.InsulinSensitivity, err = floatItemsFromSchema(file.Sensitivity, loc); err != nil {
		return domain.LoopSettings{}, fmt.Errorf("decode insulin sensitivity schedule: %w", err)
	}
	if settings.Schedules.CarbRatio, err = floatItemsFromSchema(file.CarbRatio, loc); err != nil {
		return domain.LoopSettings{}, fmt.Errorf("decode carb ratio schedule: %w", err)
	}

	if len(file.TargetRange) > 0 {
		items := make([]domain.ScheduleItem[domain.GlucoseRange], 0, len(file.TargetRange))
		for _, item := range file.TargetRange {
			offset, err := domain.ParseScheduleOffset(item.Start)
			if err != nil {
				return domain.LoopSettings{}, fmt.Errorf("decode target range schedule: %w", err)
			}
			items = append(items, domain.ScheduleItem[domain.GlucoseRange]{
				StartOffset: offset,
				Value:       domain.GlucoseRange{Min: item.Min, Max: item.Max},
			})
		}
		schedule := domain.NewDailySchedule(loc, items...)
		settings.Schedules.TargetRange = &schedule
	}

	if err := settings.Validate(); err != nil {
		return domain.LoopSettings{}, fmt.Errorf("validate settings file: %w", err)
	}

	return settings, nil
}

func floatItemsToSchema(schedule *domain.DailySchedule[float64]) []scheduleItemSchema {
	if schedule == nil {
		return nil
	}

	items := make([]scheduleItemSchema, 0, len(schedule.Items))
	for _, item := range schedule.Items {
		items = append(items, scheduleItemSchema{
			Start: domain.FormatScheduleOffset(item.StartOffset),
			Value: item.Value,
		})
	}

	return items
}

func floatItemsFromSchema(raw []scheduleItemSchema, loc *time.Location) (*domain.DailySchedule[float64], error) {
	if len(raw) == 0 {
		return nil, nil
	}

	items := make([]domain.ScheduleItem[float64], 0, len(raw))
	for _, item := range raw {
		offset, err := domain.ParseScheduleOffset(item.Start)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ScheduleItem[float64]{StartOffset: offset, Value: item.Value})
	}

	schedule := domain.NewDailySchedule(loc, items...)
	return &schedule, nil
}

// scheduleZone picks the zone of the first configured schedule; all
// schedules share one zone on disk.
func scheduleZone(schedules domain.TherapySchedules) string {
	var loc *time.Location
	switch {
	case schedules.Basal != nil:
		loc = schedules.Basal.TimeZone
	case schedules.InsulinSensitivity != nil:
		loc = schedules.InsulinSensitivity.TimeZone
	case schedules.CarbRatio != nil:
		loc = schedules.CarbRatio.TimeZone
	case schedules.TargetRange != nil:
		loc = schedules.TargetRange.TimeZone
	}
	if loc == nil || loc == time.UTC {
		return ""
	}

	return loc.String()
}
