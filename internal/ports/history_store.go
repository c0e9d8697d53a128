package ports

import (
	"context"
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

type GlucoseStore interface {
	GlucoseSamples(ctx context.Context, start, end time.Time) ([]domain.GlucoseSample, error)
	AddGlucoseSamples(ctx context.Context, samples []domain.GlucoseSample) error
}

type DoseStore interface {
	// NormalizedDoseEntries returns doses overlapping [start, end] sorted by start date.
	NormalizedDoseEntries(ctx context.Context, start, end time.Time) ([]domain.DoseEntry, error)
	// LastAddedPumpData is zero when the pump never reported.
	LastAddedPumpData(ctx context.Context) (time.Time, error)
	AddDoses(ctx context.Context, doses []domain.DoseEntry, reportedAt time.Time) error
}

type CarbStore interface {
	CarbEntries(ctx context.Context, start, end time.Time) ([]domain.CarbEntry, error)
	AddCarbEntry(ctx context.Context, entry domain.CarbEntry) error
}
