package ports

import (
	"context"

	"github.com/bnema/loopctl/internal/domain"
)

type DecisionStore interface {
	Store(ctx context.Context, decision domain.StoredDosingDecision) error
	// Recent returns up to limit decisions, newest first.
	Recent(ctx context.Context, limit int) ([]domain.StoredDosingDecision, error)
}
