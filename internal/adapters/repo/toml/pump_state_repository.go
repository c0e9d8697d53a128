package toml

import (
	"context"

	"github.com/bnema/loopctl/internal/adapters/pump/simulator"
	"github.com/bnema/loopctl/internal/domain"
)

type PumpStateRepository struct {
	doc *document
}

var _ simulator.StateStore = (*PumpStateRepository)(nil)

func NewPumpStateRepository(path string) (*PumpStateRepository, error) {
	doc, err := newDocument(path, "pump")
	if err != nil {
		return nil, err
	}

	return &PumpStateRepository{doc: doc}, nil
}

func (r *PumpStateRepository) LoadState(ctx context.Context) (simulator.State, error) {
	if err := ctx.Err(); err != nil {
		return simulator.State{}, err
	}

	r.doc.mu.RLock()
	defer r.doc.mu.RUnlock()

	var file pumpFileSchema
	if err := r.doc.read(&file); err != nil {
		return simulator.State{}, err
	}

	return pumpStateFromSchema(file), nil
}

func (r *PumpStateRepository) UpdateState(ctx context.Context, fn func(*simulator.State) error) (simulator.State, error) {
	if err := ctx.Err(); err != nil {
		return simulator.State{}, err
	}

	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()

	var file pumpFileSchema
	if err := r.doc.read(&file); err != nil {
		return simulator.State{}, err
	}

	state := pumpStateFromSchema(file)
	if err := fn(&state); err != nil {
		return simulator.State{}, err
	}

	if err := ctx.Err(); err != nil {
		return simulator.State{}, err
	}

	updated := pumpStateToSchema(state)
	if err := r.doc.write(&updated); err != nil {
		return simulator.State{}, err
	}

	return state, nil
}

func pumpStateToSchema(state simulator.State) pumpFileSchema {
	file := pumpFileSchema{
		Suspended:       state.Suspended,
		SuspendedAt:     formatTime(state.SuspendedAt),
		Disconnected:    state.Disconnected,
		LastSync:        formatTime(state.LastSync),
		PendingRecovery: state.PendingRecovery,
		InjectFailure:   string(state.InjectFailure),
	}
	if temp := state.TempBasal; temp != nil {
		file.TempBasal = &tempBasalSchema{
			Rate:           temp.Value,
			StartDate:      formatTime(temp.StartDate),
			EndDate:        formatTime(temp.EndDate),
			Automatic:      temp.IsAutomatic(),
			SyncIdentifier: temp.SyncIdentifier,
		}
	}

	return file
}

func pumpStateFromSchema(file pumpFileSchema) simulator.State {
	state := simulator.State{
		Suspended:       file.Suspended,
		SuspendedAt:     parseTime(file.SuspendedAt),
		Disconnected:    file.Disconnected,
		LastSync:        parseTime(file.LastSync),
		PendingRecovery: file.PendingRecovery,
		InjectFailure:   simulator.Failure(file.InjectFailure),
	}
	if temp := file.TempBasal; temp != nil {
		state.TempBasal = &domain.DoseEntry{
			Type:           domain.DoseTypeTempBasal,
			StartDate:      parseTime(temp.StartDate),
			EndDate:        parseTime(temp.EndDate),
			Value:          temp.Rate,
			Unit:           domain.DoseUnitUnitsPerHour,
			Automatic:      domain.BoolPtr(temp.Automatic),
			SyncIdentifier: temp.SyncIdentifier,
		}
	}

	return state
}
