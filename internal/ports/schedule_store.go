package ports

import (
	"context"
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

// ScheduleStore returns absolute therapy timelines. A schedule that was never
// configured yields a *domain.ConfigurationError.
type ScheduleStore interface {
	BasalHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error)
	CarbRatioHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error)
	InsulinSensitivityHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[float64], error)
	TargetRangeHistory(ctx context.Context, start, end time.Time) ([]domain.TimeBoundedValue[domain.GlucoseRange], error)
	DosingLimits(ctx context.Context, at time.Time) (domain.DosingLimits, error)
}
