package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OverrideContext string

const (
	OverrideContextPreMeal       OverrideContext = "preMeal"
	OverrideContextLegacyWorkout OverrideContext = "legacyWorkout"
	OverrideContextPreset        OverrideContext = "preset"
	OverrideContextCustom        OverrideContext = "custom"
)

func (c OverrideContext) Valid() bool {
	switch c {
	case OverrideContextPreMeal, OverrideContextLegacyWorkout, OverrideContextPreset, OverrideContextCustom:
		return true
	default:
		return false
	}
}

type OverrideSettings struct {
	TargetRange             *GlucoseRange
	InsulinNeedsScaleFactor *float64
}

func (s OverrideSettings) EffectiveInsulinNeedsScaleFactor() float64 {
	if s.InsulinNeedsScaleFactor == nil {
		return 1
	}

	return *s.InsulinNeedsScaleFactor
}

func (s OverrideSettings) Validate() error {
	if s.TargetRange == nil && s.InsulinNeedsScaleFactor == nil {
		return fmt.Errorf("override changes neither target range nor insulin needs")
	}
	if s.TargetRange != nil {
		if err := s.TargetRange.Validate(); err != nil {
			return fmt.Errorf("override target range: %w", err)
		}
	}
	if s.InsulinNeedsScaleFactor != nil && *s.InsulinNeedsScaleFactor <= 0 {
		return fmt.Errorf("insulin needs scale factor must be positive")
	}

	return nil
}

type OverrideDuration struct {
	Indefinite bool
	Finite     time.Duration
}

func FiniteDuration(d time.Duration) OverrideDuration {
	return OverrideDuration{Finite: d}
}

func IndefiniteDuration() OverrideDuration {
	return OverrideDuration{Indefinite: true}
}

type EnactTrigger struct {
	Remote bool
	Source string
}

func LocalTrigger() EnactTrigger {
	return EnactTrigger{}
}

func RemoteTrigger(source string) EnactTrigger {
	return EnactTrigger{Remote: true, Source: source}
}

type TemporaryScheduleOverride struct {
	ID           uuid.UUID
	Context      OverrideContext
	PresetName   string
	Settings     OverrideSettings
	StartDate    time.Time
	Duration     OverrideDuration
	EnactTrigger EnactTrigger
	// ActualEnd is set when the override is cancelled or superseded early.
	ActualEnd *time.Time
}

func (o TemporaryScheduleOverride) Validate() error {
	if !o.Context.Valid() {
		return fmt.Errorf("unsupported override context %q", o.Context)
	}
	if o.StartDate.IsZero() {
		return fmt.Errorf("override start date is required")
	}
	if !o.Duration.Indefinite && o.Duration.Finite <= 0 {
		return fmt.Errorf("override duration must be positive")
	}
	if o.Context == OverrideContextPreMeal && o.Settings.TargetRange == nil {
		return fmt.Errorf("pre-meal override requires a target range")
	}

	return o.Settings.Validate()
}

func (o TemporaryScheduleOverride) IsPreMeal() bool {
	return o.Context == OverrideContextPreMeal
}

// ScheduledEndDate ignores early cancellation; ok is false for indefinite overrides.
func (o TemporaryScheduleOverride) ScheduledEndDate() (time.Time, bool) {
	if o.Duration.Indefinite {
		return time.Time{}, false
	}

	return o.StartDate.Add(o.Duration.Finite), true
}

// EffectiveEndDate accounts for early cancellation; ok is false while open-ended.
func (o TemporaryScheduleOverride) EffectiveEndDate() (time.Time, bool) {
	scheduled, finite := o.ScheduledEndDate()
	if o.ActualEnd == nil {
		return scheduled, finite
	}
	if finite && scheduled.Before(*o.ActualEnd) {
		return scheduled, true
	}

	return *o.ActualEnd, true
}

func (o TemporaryScheduleOverride) IsActive(at time.Time) bool {
	if at.Before(o.StartDate) {
		return false
	}

	end, ok := o.EffectiveEndDate()
	return !ok || at.Before(end)
}

func (o TemporaryScheduleOverride) Overlaps(start, end time.Time) bool {
	if o.StartDate.After(end) {
		return false
	}

	overrideEnd, ok := o.EffectiveEndDate()
	return !ok || overrideEnd.After(start)
}

// EndedAt returns a copy ending no later than at.
func (o TemporaryScheduleOverride) EndedAt(at time.Time) TemporaryScheduleOverride {
	if end, ok := o.EffectiveEndDate(); ok && !end.After(at) {
		return o
	}
	if at.Before(o.StartDate) {
		at = o.StartDate
	}

	ended := o
	ended.ActualEnd = &at
	return ended
}

// OverrideState holds the live overrides plus the ended general overrides
// still needed for historical windows.
type OverrideState struct {
	PreMeal *TemporaryScheduleOverride
	Active  *TemporaryScheduleOverride
	History []TemporaryScheduleOverride
}

// OverridesBetween returns the general overrides overlapping [start, end],
// oldest first. The pre-meal override is never included.
func (s OverrideState) OverridesBetween(start, end time.Time) []TemporaryScheduleOverride {
	var result []TemporaryScheduleOverride
	for _, o := range s.History {
		if o.Overlaps(start, end) {
			result = append(result, o)
		}
	}
	if s.Active != nil && s.Active.Overlaps(start, end) {
		result = append(result, *s.Active)
	}

	return result
}

// ActiveOverride returns the general override active at t.
func (s OverrideState) ActiveOverride(at time.Time) (*TemporaryScheduleOverride, bool) {
	if s.Active == nil || !s.Active.IsActive(at) {
		return nil, false
	}

	return s.Active, true
}

func (s OverrideState) ActivePreMeal(at time.Time) (*TemporaryScheduleOverride, bool) {
	if s.PreMeal == nil || !s.PreMeal.IsActive(at) {
		return nil, false
	}

	return s.PreMeal, true
}

// Prune drops expired live overrides into history and forgets history ending before cutoff.
func (s OverrideState) Prune(at, cutoff time.Time) OverrideState {
	out := OverrideState{PreMeal: s.PreMeal, Active: s.Active}
	if out.PreMeal != nil {
		if end, ok := out.PreMeal.EffectiveEndDate(); ok && !end.After(at) {
			out.PreMeal = nil
		}
	}

	history := make([]TemporaryScheduleOverride, 0, len(s.History)+1)
	for _, o := range s.History {
		if end, ok := o.EffectiveEndDate(); ok && end.Before(cutoff) {
			continue
		}
		history = append(history, o)
	}
	if out.Active != nil {
		if end, ok := out.Active.EffectiveEndDate(); ok && !end.After(at) {
			if !end.Before(cutoff) {
				history = append(history, *out.Active)
			}
			out.Active = nil
		}
	}
	if len(history) > 0 {
		out.History = history
	}

	return out
}
