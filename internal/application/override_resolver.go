package application

import (
	"sort"
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

// overrideResolver merges therapy timelines with temporary overrides. General
// overrides scale basal, sensitivity and carb ratio; the target range is
// replaced by the pre-meal override while it runs, then by the general one.
type overrideResolver struct {
	overrides []domain.TemporaryScheduleOverride
	preMeal   *domain.TemporaryScheduleOverride
}

func newOverrideResolver(overrides []domain.TemporaryScheduleOverride, preMeal *domain.TemporaryScheduleOverride) overrideResolver {
	sorted := append([]domain.TemporaryScheduleOverride(nil), overrides...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	return overrideResolver{overrides: sorted, preMeal: preMeal}
}

func (r overrideResolver) generalAt(t time.Time) *domain.TemporaryScheduleOverride {
	var active *domain.TemporaryScheduleOverride
	for i := range r.overrides {
		if r.overrides[i].IsActive(t) {
			active = &r.overrides[i]
		}
	}

	return active
}

func (r overrideResolver) scaleFactorAt(t time.Time) float64 {
	if o := r.generalAt(t); o != nil {
		return o.Settings.EffectiveInsulinNeedsScaleFactor()
	}

	return 1
}

func (r overrideResolver) targetAt(t time.Time) *domain.GlucoseRange {
	if r.preMeal != nil && r.preMeal.IsActive(t) && r.preMeal.Settings.TargetRange != nil {
		return r.preMeal.Settings.TargetRange
	}
	if o := r.generalAt(t); o != nil && o.Settings.TargetRange != nil {
		return o.Settings.TargetRange
	}

	return nil
}

func (r overrideResolver) boundaries() []time.Time {
	all := r.overrides
	if r.preMeal != nil {
		all = append(append([]domain.TemporaryScheduleOverride(nil), all...), *r.preMeal)
	}

	points := make([]time.Time, 0, len(all)*2)
	for _, o := range all {
		points = append(points, o.StartDate)
		if end, ok := o.EffectiveEndDate(); ok {
			points = append(points, end)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Before(points[j]) })

	return points
}

func (r overrideResolver) applyBasal(timeline []domain.TimeBoundedValue[float64]) []domain.TimeBoundedValue[float64] {
	return applyOverrides(timeline, r.boundaries(), func(at time.Time, v float64) float64 {
		return v * r.scaleFactorAt(at)
	})
}

func (r overrideResolver) applySensitivity(timeline []domain.TimeBoundedValue[float64]) []domain.TimeBoundedValue[float64] {
	return applyOverrides(timeline, r.boundaries(), func(at time.Time, v float64) float64 {
		return v / r.scaleFactorAt(at)
	})
}

func (r overrideResolver) applyCarbRatio(timeline []domain.TimeBoundedValue[float64]) []domain.TimeBoundedValue[float64] {
	return applyOverrides(timeline, r.boundaries(), func(at time.Time, v float64) float64 {
		return v / r.scaleFactorAt(at)
	})
}

func (r overrideResolver) applyTarget(timeline []domain.TimeBoundedValue[domain.GlucoseRange]) []domain.TimeBoundedValue[domain.GlucoseRange] {
	return applyOverrides(timeline, r.boundaries(), func(at time.Time, v domain.GlucoseRange) domain.GlucoseRange {
		if target := r.targetAt(at); target != nil {
			return *target
		}
		return v
	})
}

// applyOverrides splits every segment at override boundaries and rewrites each
// piece with the value in effect at its start.
func applyOverrides[T any](timeline []domain.TimeBoundedValue[T], boundaries []time.Time, transform func(time.Time, T) T) []domain.TimeBoundedValue[T] {
	if len(timeline) == 0 {
		return timeline
	}

	result := make([]domain.TimeBoundedValue[T], 0, len(timeline)+len(boundaries))
	for _, segment := range timeline {
		start := segment.StartDate
		for _, point := range boundaries {
			if !point.After(start) || !point.Before(segment.EndDate) {
				continue
			}
			result = append(result, domain.TimeBoundedValue[T]{StartDate: start, EndDate: point, Value: transform(start, segment.Value)})
			start = point
		}
		result = append(result, domain.TimeBoundedValue[T]{StartDate: start, EndDate: segment.EndDate, Value: transform(start, segment.Value)})
	}

	return result
}
