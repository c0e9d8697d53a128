package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/google/uuid"
)

var ErrNoActiveOverride = errors.New("no active override")

// OverrideService manages temporary schedule overrides. At most one general
// override and one pre-meal override run at a time.
type OverrideService struct {
	repo      ports.OverrideRepository
	clock     ports.Clock
	bus       *EventBus
	retention time.Duration
}

func NewOverrideService(repo ports.OverrideRepository, clock ports.Clock, bus *EventBus, retention time.Duration) *OverrideService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if retention <= 0 {
		retention = DefaultTiming().OverrideHistoryRetention
	}

	return &OverrideService{repo: repo, clock: clock, bus: bus, retention: retention}
}

func (s *OverrideService) State(ctx context.Context) (domain.OverrideState, error) {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return domain.OverrideState{}, fmt.Errorf("load overrides: %w", err)
	}

	now := s.clock.Now()
	return state.Prune(now, now.Add(-s.retention)), nil
}

func (s *OverrideService) EnablePreMeal(ctx context.Context, target domain.GlucoseRange, duration time.Duration, trigger domain.EnactTrigger) (domain.TemporaryScheduleOverride, error) {
	return s.Enable(ctx, domain.TemporaryScheduleOverride{
		Context:      domain.OverrideContextPreMeal,
		Settings:     domain.OverrideSettings{TargetRange: &target},
		Duration:     domain.FiniteDuration(duration),
		EnactTrigger: trigger,
	})
}

// Enable starts override now unless it carries its own start date. A general
// override ends the previous one at its start; a legacy workout also ends the
// pre-meal override.
func (s *OverrideService) Enable(ctx context.Context, override domain.TemporaryScheduleOverride) (domain.TemporaryScheduleOverride, error) {
	now := s.clock.Now()
	if override.ID == uuid.Nil {
		override.ID = uuid.New()
	}
	if override.StartDate.IsZero() {
		override.StartDate = now
	}
	override.ActualEnd = nil
	if err := override.Validate(); err != nil {
		return domain.TemporaryScheduleOverride{}, fmt.Errorf("validate override: %w", err)
	}

	err := s.mutate(ctx, now, func(state *domain.OverrideState) {
		if override.IsPreMeal() {
			state.PreMeal = &override
			return
		}

		if state.Active != nil {
			state.History = append(state.History, state.Active.EndedAt(override.StartDate))
		}
		state.Active = &override
		if override.Context == domain.OverrideContextLegacyWorkout {
			state.PreMeal = nil
		}
	})
	if err != nil {
		return domain.TemporaryScheduleOverride{}, err
	}

	return override, nil
}

// CancelActive ends the running general override now.
func (s *OverrideService) CancelActive(ctx context.Context) (domain.TemporaryScheduleOverride, error) {
	now := s.clock.Now()

	var ended domain.TemporaryScheduleOverride
	err := s.mutate(ctx, now, func(state *domain.OverrideState) {
		if state.Active == nil {
			return
		}
		ended = state.Active.EndedAt(now)
		state.History = append(state.History, ended)
		state.Active = nil
	})
	if err != nil {
		return domain.TemporaryScheduleOverride{}, err
	}
	if ended.ID == uuid.Nil {
		return domain.TemporaryScheduleOverride{}, ErrNoActiveOverride
	}

	return ended, nil
}

func (s *OverrideService) CancelPreMeal(ctx context.Context) error {
	var found bool
	err := s.mutate(ctx, s.clock.Now(), func(state *domain.OverrideState) {
		found = state.PreMeal != nil
		state.PreMeal = nil
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNoActiveOverride
	}

	return nil
}

func (s *OverrideService) mutate(ctx context.Context, now time.Time, fn func(*domain.OverrideState)) error {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}

	state = state.Prune(now, now.Add(-s.retention))
	fn(&state)

	if err := s.repo.Save(ctx, state); err != nil {
		return fmt.Errorf("save overrides: %w", err)
	}
	if s.bus != nil {
		s.bus.Publish(Event{Kind: EventLoopDataUpdated, Change: ChangePreferences, At: now})
	}

	return nil
}
