package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"golang.org/x/sync/errgroup"
)

// DataWindow is the assembled view of one cycle.
type DataWindow struct {
	Input           domain.AlgorithmInput
	LastPumpData    time.Time
	ActiveOverride  *domain.TemporaryScheduleOverride
	PreMealOverride *domain.TemporaryScheduleOverride
}

type dataWindowAssembler struct {
	glucose   ports.GlucoseStore
	doses     ports.DoseStore
	carbs     ports.CarbStore
	schedules ports.ScheduleStore
	overrides ports.OverrideRepository
	timing    Timing
}

// assemble fetches everything the algorithm needs around base. When
// disablingPreMeal is set the pre-meal override is left out, as for a meal
// bolus that already accounts for the carbs.
func (a dataWindowAssembler) assemble(ctx context.Context, base time.Time, disablingPreMeal bool) (DataWindow, error) {
	dosesStart := base.Add(-(a.timing.MaxCarbAbsorptionTime + a.timing.InsulinActivityDuration))
	doses, err := a.doses.NormalizedDoseEntries(ctx, dosesStart, base)
	if err != nil {
		return DataWindow{}, fmt.Errorf("fetch doses: %w", err)
	}
	if earliest, ok := earliestDoseStart(doses); ok && earliest.After(dosesStart) {
		dosesStart = earliest
	}

	forecastEnd := domain.CeilTime(base.Add(a.timing.InsulinActivityDuration), a.timing.GlucoseDelta)
	carbsStart := base.Add(-a.timing.MaxCarbAbsorptionTime)
	sensitivityStart := domain.MinTime(carbsStart, dosesStart)

	var (
		basal, carbRatio, sensitivity          []domain.TimeBoundedValue[float64]
		target                                 []domain.TimeBoundedValue[domain.GlucoseRange]
		basalErr, carbRatioErr, sensitivityErr error
		targetErr                              error
		glucose                                []domain.GlucoseSample
		carbs                                  []domain.CarbEntry
		limits                                 domain.DosingLimits
		state                                  domain.OverrideState
		lastPumpData                           time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		basal, basalErr = a.schedules.BasalHistory(gctx, dosesStart, base)
		return scheduleFetchError("basal history", basalErr)
	})
	g.Go(func() error {
		carbRatio, carbRatioErr = a.schedules.CarbRatioHistory(gctx, carbsStart, forecastEnd)
		return scheduleFetchError("carb ratio history", carbRatioErr)
	})
	g.Go(func() error {
		sensitivity, sensitivityErr = a.schedules.InsulinSensitivityHistory(gctx, sensitivityStart, forecastEnd)
		return scheduleFetchError("insulin sensitivity history", sensitivityErr)
	})
	g.Go(func() error {
		target, targetErr = a.schedules.TargetRangeHistory(gctx, base, forecastEnd)
		return scheduleFetchError("target range history", targetErr)
	})
	g.Go(func() error {
		var err error
		// Samples after base are kept so validation can reject future-dated data.
		glucose, err = a.glucose.GlucoseSamples(gctx, carbsStart, forecastEnd)
		if err != nil {
			return fmt.Errorf("fetch glucose samples: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		entries, err := a.carbs.CarbEntries(gctx, carbsStart, forecastEnd)
		if err != nil {
			return fmt.Errorf("fetch carb entries: %w", err)
		}
		for _, entry := range entries {
			if entry.EnteredAt().After(base) {
				continue
			}
			carbs = append(carbs, entry)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		limits, err = a.schedules.DosingLimits(gctx, base)
		if err != nil {
			return fmt.Errorf("fetch dosing limits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		state, err = a.overrides.Load(gctx)
		if err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lastPumpData, err = a.doses.LastAddedPumpData(gctx)
		if err != nil {
			return fmt.Errorf("fetch last pump data date: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return DataWindow{}, err
	}

	for _, err := range []error{basalErr, carbRatioErr, sensitivityErr, targetErr} {
		if err != nil {
			return DataWindow{}, err
		}
	}
	if limits.MaxBolus == nil {
		return DataWindow{}, &domain.ConfigurationError{Setting: domain.SettingMaximumBolus}
	}
	if limits.MaxBasalRate == nil {
		return DataWindow{}, &domain.ConfigurationError{Setting: domain.SettingMaximumBasalRatePerHour}
	}

	var preMeal *domain.TemporaryScheduleOverride
	if !disablingPreMeal {
		preMeal = state.PreMeal
	}
	resolver := newOverrideResolver(state.OverridesBetween(sensitivityStart, forecastEnd), preMeal)

	sortByStart(doses, func(d domain.DoseEntry) time.Time { return d.StartDate })
	sortByStart(glucose, func(g domain.GlucoseSample) time.Time { return g.StartDate })
	sortByStart(carbs, func(c domain.CarbEntry) time.Time { return c.StartDate })
	domain.SortTimeline(basal)
	domain.SortTimeline(carbRatio)
	domain.SortTimeline(sensitivity)
	domain.SortTimeline(target)

	window := DataWindow{
		Input: domain.AlgorithmInput{
			PredictionStart:  base,
			GlucoseHistory:   glucose,
			Doses:            doses,
			CarbEntries:      carbs,
			Basal:            resolver.applyBasal(basal),
			Sensitivity:      resolver.applySensitivity(sensitivity),
			CarbRatio:        resolver.applyCarbRatio(carbRatio),
			Target:           resolver.applyTarget(target),
			SuspendThreshold: limits.SuspendThreshold,
			MaxBolus:         *limits.MaxBolus,
			MaxBasalRate:     *limits.MaxBasalRate,
		},
		LastPumpData:   lastPumpData,
		ActiveOverride: resolver.generalAt(base),
	}
	if preMeal != nil && preMeal.IsActive(base) {
		window.PreMealOverride = preMeal
	}

	return window, nil
}

// scheduleFetchError lets configuration errors through to the ordered check
// after all fetches finish; anything else aborts the group.
func scheduleFetchError(what string, err error) error {
	if err == nil || errors.Is(err, domain.ErrConfiguration) {
		return nil
	}

	return fmt.Errorf("fetch %s: %w", what, err)
}

func earliestDoseStart(doses []domain.DoseEntry) (time.Time, bool) {
	if len(doses) == 0 {
		return time.Time{}, false
	}

	earliest := doses[0].StartDate
	for _, dose := range doses[1:] {
		if dose.StartDate.Before(earliest) {
			earliest = dose.StartDate
		}
	}

	return earliest, true
}

func sortByStart[T any](items []T, start func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return start(items[i]).Before(start(items[j]))
	})
}
