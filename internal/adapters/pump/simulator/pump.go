package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/google/uuid"
)

const (
	BasalRateIncrement   = 0.05
	BolusVolumeIncrement = 0.05
	// bolusDeliveryRate is units delivered per minute.
	bolusDeliveryRate = 1.5
)

var (
	ErrAwaitingRecovery = errors.New("pump is awaiting recovery")
	ErrInjectedFailure  = errors.New("injected enactment failure")
)

// Pump simulates an insulin pump backed by persisted state. Delivered doses
// are written to the dose store the way a real pump manager reports them.
type Pump struct {
	store  StateStore
	doses  ports.DoseStore
	clock  ports.Clock
	logger *slog.Logger
}

var (
	_ ports.DeliveryDelegate = (*Pump)(nil)
	_ ports.RecoveryMonitor  = (*Pump)(nil)
)

func New(store StateStore, doses ports.DoseStore, clock ports.Clock, logger *slog.Logger) *Pump {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Pump{store: store, doses: doses, clock: clock, logger: logger}
}

func (p *Pump) Status(ctx context.Context) (State, error) {
	return p.store.LoadState(ctx)
}

func (p *Pump) IsSuspended(ctx context.Context) (bool, error) {
	state, err := p.store.LoadState(ctx)
	if err != nil {
		return false, fmt.Errorf("load pump state: %w", err)
	}

	return state.Suspended, nil
}

func (p *Pump) BasalDeliveryState(ctx context.Context) (domain.BasalDeliveryState, error) {
	state, err := p.store.LoadState(ctx)
	if err != nil {
		return domain.BasalDeliveryState{}, fmt.Errorf("load pump state: %w", err)
	}

	now := p.clock.Now()
	if state.Suspended {
		return domain.BasalDeliveryState{Kind: domain.BasalDeliverySuspended, At: state.SuspendedAt}, nil
	}
	if temp, ok := state.RunningTempBasal(now); ok {
		return domain.BasalDeliveryState{Kind: domain.BasalDeliveryTempBasal, At: temp.StartDate, Dose: &temp}, nil
	}

	return domain.BasalDeliveryState{Kind: domain.BasalDeliveryActive, At: now}, nil
}

func (p *Pump) RoundBasalRate(unitsPerHour float64) float64 {
	return domain.RoundToIncrement(unitsPerHour, BasalRateIncrement)
}

func (p *Pump) RoundBolusVolume(units float64) float64 {
	return domain.RoundToIncrement(units, BolusVolumeIncrement)
}

func (p *Pump) Enact(ctx context.Context, recommendation domain.AutomaticDoseRecommendation) error {
	now := p.clock.Now()

	var (
		delivered []domain.DoseEntry
		enactErr  error
	)
	_, err := p.store.UpdateState(ctx, func(state *State) error {
		delivered = nil
		enactErr = nil

		switch {
		case state.PendingRecovery:
			enactErr = &domain.EnactmentError{Err: ErrAwaitingRecovery}
			return nil
		case state.InjectFailure == FailureUncertain:
			state.InjectFailure = FailureNone
			state.PendingRecovery = true
			enactErr = &domain.EnactmentError{Err: ErrInjectedFailure, Uncertain: true}
			return nil
		case state.InjectFailure == FailureError:
			state.InjectFailure = FailureNone
			enactErr = &domain.EnactmentError{Err: ErrInjectedFailure}
			return nil
		case state.Suspended:
			enactErr = &domain.EnactmentError{Err: domain.ErrPumpSuspended}
			return nil
		}

		if basal := recommendation.BasalAdjustment; basal != nil {
			if ended, ok := endTempBasal(state, now); ok {
				delivered = append(delivered, ended)
			}
			if !basal.IsCancel() {
				temp := domain.DoseEntry{
					Type:           domain.DoseTypeTempBasal,
					StartDate:      now,
					EndDate:        now.Add(basal.Duration),
					Value:          p.RoundBasalRate(basal.UnitsPerHour),
					Unit:           domain.DoseUnitUnitsPerHour,
					Automatic:      domain.BoolPtr(true),
					SyncIdentifier: uuid.NewString(),
				}
				state.TempBasal = &temp
				delivered = append(delivered, temp)
			}
		}

		if units := recommendation.BolusUnits; units != nil && *units > 0 {
			volume := p.RoundBolusVolume(*units)
			delivered = append(delivered, domain.DoseEntry{
				Type:           domain.DoseTypeBolus,
				StartDate:      now,
				EndDate:        now.Add(time.Duration(math.Round(volume/bolusDeliveryRate*60)) * time.Second),
				Value:          volume,
				Unit:           domain.DoseUnitUnits,
				Automatic:      domain.BoolPtr(true),
				SyncIdentifier: uuid.NewString(),
			})
		}

		state.LastSync = now
		return nil
	})
	if err != nil {
		return &domain.EnactmentError{Err: fmt.Errorf("update pump state: %w", err)}
	}
	if enactErr != nil {
		p.logger.Warn("pump rejected enactment", "error", enactErr)
		return enactErr
	}

	if err := p.doses.AddDoses(ctx, delivered, now); err != nil {
		// The pump already delivered; only the record is missing.
		return &domain.EnactmentError{Err: fmt.Errorf("record delivered doses: %w", err), Uncertain: true}
	}

	p.logger.Debug("pump enacted", "recommendation", recommendation.String(), "doses", len(delivered))
	return nil
}

// EnsureCurrentPumpData syncs the pump unless it is disconnected.
func (p *Pump) EnsureCurrentPumpData(ctx context.Context) error {
	now := p.clock.Now()

	state, err := p.store.UpdateState(ctx, func(state *State) error {
		if state.Disconnected {
			return nil
		}
		if state.TempBasal != nil && !state.TempBasal.EndDate.After(now) {
			state.TempBasal = nil
		}
		state.LastSync = now
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync pump state: %w", err)
	}
	if state.Disconnected {
		p.logger.Debug("pump disconnected, skipping sync")
		return nil
	}

	if err := p.doses.AddDoses(ctx, nil, now); err != nil {
		return fmt.Errorf("record pump sync: %w", err)
	}

	return nil
}

func (p *Pump) PendingRecovery(ctx context.Context) (bool, error) {
	state, err := p.store.LoadState(ctx)
	if err != nil {
		return false, fmt.Errorf("load pump state: %w", err)
	}

	return state.PendingRecovery, nil
}

// Suspend stops all delivery, ending any running temp basal.
func (p *Pump) Suspend(ctx context.Context) error {
	now := p.clock.Now()

	var doses []domain.DoseEntry
	_, err := p.store.UpdateState(ctx, func(state *State) error {
		doses = nil
		if state.Suspended {
			return nil
		}
		if ended, ok := endTempBasal(state, now); ok {
			doses = append(doses, ended)
		}
		state.Suspended = true
		state.SuspendedAt = now
		state.LastSync = now
		doses = append(doses, domain.DoseEntry{
			Type:           domain.DoseTypeSuspend,
			StartDate:      now,
			EndDate:        now,
			Unit:           domain.DoseUnitUnits,
			Automatic:      domain.BoolPtr(false),
			SyncIdentifier: uuid.NewString(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("suspend pump: %w", err)
	}

	return p.doses.AddDoses(ctx, doses, now)
}

func (p *Pump) Resume(ctx context.Context) error {
	now := p.clock.Now()

	var doses []domain.DoseEntry
	_, err := p.store.UpdateState(ctx, func(state *State) error {
		doses = nil
		if !state.Suspended {
			return nil
		}
		state.Suspended = false
		state.SuspendedAt = time.Time{}
		state.LastSync = now
		doses = append(doses, domain.DoseEntry{
			Type:           domain.DoseTypeResume,
			StartDate:      now,
			EndDate:        now,
			Unit:           domain.DoseUnitUnits,
			Automatic:      domain.BoolPtr(false),
			SyncIdentifier: uuid.NewString(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("resume pump: %w", err)
	}

	return p.doses.AddDoses(ctx, doses, now)
}

// Recover clears a pending recovery after an uncertain delivery.
func (p *Pump) Recover(ctx context.Context) error {
	_, err := p.store.UpdateState(ctx, func(state *State) error {
		state.PendingRecovery = false
		return nil
	})
	if err != nil {
		return fmt.Errorf("recover pump: %w", err)
	}

	return nil
}

func (p *Pump) SetConnected(ctx context.Context, connected bool) error {
	_, err := p.store.UpdateState(ctx, func(state *State) error {
		state.Disconnected = !connected
		return nil
	})
	if err != nil {
		return fmt.Errorf("update pump connection: %w", err)
	}

	return nil
}

func (p *Pump) InjectFailure(ctx context.Context, failure Failure) error {
	if !failure.Valid() {
		return fmt.Errorf("unsupported failure %q", failure)
	}

	_, err := p.store.UpdateState(ctx, func(state *State) error {
		state.InjectFailure = failure
		return nil
	})
	if err != nil {
		return fmt.Errorf("inject pump failure: %w", err)
	}

	return nil
}

// endTempBasal truncates the running temp basal at now. The returned entry
// reuses the sync identifier so stores replace the original record.
func endTempBasal(state *State, now time.Time) (domain.DoseEntry, bool) {
	temp, ok := state.RunningTempBasal(now)
	state.TempBasal = nil
	if !ok {
		return domain.DoseEntry{}, false
	}

	temp.EndDate = now
	return temp, true
}
