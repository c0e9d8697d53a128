package ports

import (
	"context"

	"github.com/bnema/loopctl/internal/domain"
)

type DeliveryDelegate interface {
	IsSuspended(ctx context.Context) (bool, error)
	BasalDeliveryState(ctx context.Context) (domain.BasalDeliveryState, error)
	RoundBasalRate(unitsPerHour float64) float64
	RoundBolusVolume(units float64) float64
	// Enact failures should be *domain.EnactmentError so uncertain delivery is visible.
	Enact(ctx context.Context, recommendation domain.AutomaticDoseRecommendation) error
	EnsureCurrentPumpData(ctx context.Context) error
}

type RecoveryMonitor interface {
	PendingRecovery(ctx context.Context) (bool, error)
}
