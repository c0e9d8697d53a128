package simulator

import (
	"context"
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

// Failure makes the next enactment fail the given way.
type Failure string

const (
	FailureNone      Failure = ""
	FailureError     Failure = "error"
	FailureUncertain Failure = "uncertain"
)

func (f Failure) Valid() bool {
	return f == FailureNone || f == FailureError || f == FailureUncertain
}

type State struct {
	Suspended   bool
	SuspendedAt time.Time
	// Disconnected pumps stop reporting, so pump data goes stale.
	Disconnected    bool
	TempBasal       *domain.DoseEntry
	LastSync        time.Time
	PendingRecovery bool
	InjectFailure   Failure
}

// RunningTempBasal returns the temp basal still delivering at t.
func (s State) RunningTempBasal(at time.Time) (domain.DoseEntry, bool) {
	if s.TempBasal == nil || !s.TempBasal.EndDate.After(at) {
		return domain.DoseEntry{}, false
	}

	return *s.TempBasal, true
}

type StateStore interface {
	LoadState(ctx context.Context) (State, error)
	// UpdateState persists the state fn leaves behind unless fn fails.
	UpdateState(ctx context.Context, fn func(*State) error) (State, error)
}
