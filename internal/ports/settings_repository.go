package ports

import (
	"context"

	"github.com/bnema/loopctl/internal/domain"
)

type SettingsRepository interface {
	Load(ctx context.Context) (domain.LoopSettings, error)
	Save(ctx context.Context, settings domain.LoopSettings) error
}

type OverrideRepository interface {
	Load(ctx context.Context) (domain.OverrideState, error)
	Save(ctx context.Context, state domain.OverrideState) error
}
