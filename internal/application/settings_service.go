package application

import (
	"context"
	"fmt"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
	bus  *EventBus
}

func NewSettingsService(repo ports.SettingsRepository, bus *EventBus) *SettingsService {
	return &SettingsService{repo: repo, bus: bus}
}

func (s *SettingsService) Load(ctx context.Context) (domain.LoopSettings, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return domain.LoopSettings{}, fmt.Errorf("load settings: %w", err)
	}

	return settings, nil
}

// Update persists the result of fn and returns the settings before and after.
// Side effects of the change are up to the caller; see LoopService.HandleSettingsChange.
func (s *SettingsService) Update(ctx context.Context, fn func(*domain.LoopSettings)) (domain.LoopSettings, domain.LoopSettings, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return domain.LoopSettings{}, domain.LoopSettings{}, err
	}

	old, next := domain.MutateSettings(current, fn)
	if err := next.Validate(); err != nil {
		return domain.LoopSettings{}, domain.LoopSettings{}, fmt.Errorf("validate settings: %w", err)
	}
	if err := s.repo.Save(ctx, next); err != nil {
		return domain.LoopSettings{}, domain.LoopSettings{}, fmt.Errorf("save settings: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(Event{Kind: EventLoopDataUpdated, Change: ChangePreferences})
	}

	return old, next, nil
}
