package toml

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/google/uuid"
)

type OverrideRepository struct {
	doc *document
}

var _ ports.OverrideRepository = (*OverrideRepository)(nil)

func NewOverrideRepository(path string) (*OverrideRepository, error) {
	doc, err := newDocument(path, "overrides")
	if err != nil {
		return nil, err
	}

	return &OverrideRepository{doc: doc}, nil
}

func (r *OverrideRepository) Load(ctx context.Context) (domain.OverrideState, error) {
	if err := ctx.Err(); err != nil {
		return domain.OverrideState{}, err
	}

	r.doc.mu.RLock()
	defer r.doc.mu.RUnlock()

	var file overridesFileSchema
	if err := r.doc.read(&file); err != nil {
		return domain.OverrideState{}, err
	}

	var state domain.OverrideState
	if file.PreMeal != nil {
		preMeal, err := overrideFromSchema(*file.PreMeal)
		if err != nil {
			return domain.OverrideState{}, err
		}
		state.PreMeal = &preMeal
	}
	if file.Active != nil {
		active, err := overrideFromSchema(*file.Active)
		if err != nil {
			return domain.OverrideState{}, err
		}
		state.Active = &active
	}
	for _, entry := range file.History {
		o, err := overrideFromSchema(entry)
		if err != nil {
			return domain.OverrideState{}, err
		}
		state.History = append(state.History, o)
	}

	return state, nil
}

func (r *OverrideRepository) Save(ctx context.Context, state domain.OverrideState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	var file overridesFileSchema
	if state.PreMeal != nil {
		encoded := overrideToSchema(*state.PreMeal)
		file.PreMeal = &encoded
	}
	if state.Active != nil {
		encoded := overrideToSchema(*state.Active)
		file.Active = &encoded
	}
	for _, o := range state.History {
		file.History = append(file.History, overrideToSchema(o))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.doc.write(&file)
}

func overrideToSchema(o domain.TemporaryScheduleOverride) overrideSchema {
	encoded := overrideSchema{
		ID:           o.ID.String(),
		Context:      string(o.Context),
		PresetName:   o.PresetName,
		ScaleFactor:  o.Settings.InsulinNeedsScaleFactor,
		StartDate:    formatTime(o.StartDate),
		Duration:     indefiniteDuration,
		Remote:       o.EnactTrigger.Remote,
		RemoteSource: o.EnactTrigger.Source,
		ActualEnd:    formatTimePtr(o.ActualEnd),
	}
	if !o.Duration.Indefinite {
		encoded.Duration = o.Duration.Finite.String()
	}
	if o.Settings.TargetRange != nil {
		encoded.TargetMin = domain.Float64Ptr(o.Settings.TargetRange.Min)
		encoded.TargetMax = domain.Float64Ptr(o.Settings.TargetRange.Max)
	}

	return encoded
}

func overrideFromSchema(raw overrideSchema) (domain.TemporaryScheduleOverride, error) {
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return domain.TemporaryScheduleOverride{}, fmt.Errorf("decode override id %q: %w", raw.ID, err)
	}

	duration := domain.IndefiniteDuration()
	if raw.Duration != indefiniteDuration {
		finite, err := time.ParseDuration(raw.Duration)
		if err != nil {
			return domain.TemporaryScheduleOverride{}, fmt.Errorf("decode override %s duration: %w", id, err)
		}
		duration = domain.FiniteDuration(finite)
	}

	o := domain.TemporaryScheduleOverride{
		ID:         id,
		Context:    domain.OverrideContext(raw.Context),
		PresetName: raw.PresetName,
		Settings: domain.OverrideSettings{
			InsulinNeedsScaleFactor: raw.ScaleFactor,
		},
		StartDate:    parseTime(raw.StartDate),
		Duration:     duration,
		EnactTrigger: domain.EnactTrigger{Remote: raw.Remote, Source: raw.RemoteSource},
		ActualEnd:    parseTimePtr(raw.ActualEnd),
	}
	if raw.TargetMin != nil && raw.TargetMax != nil {
		o.Settings.TargetRange = &domain.GlucoseRange{Min: *raw.TargetMin, Max: *raw.TargetMax}
	}

	if err := o.Validate(); err != nil {
		return domain.TemporaryScheduleOverride{}, fmt.Errorf("decode override %s: %w", id, err)
	}

	return o, nil
}
