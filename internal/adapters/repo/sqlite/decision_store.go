package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

// DecisionStore keeps dosing decisions as JSON payloads.
type DecisionStore struct {
	db *DB
}

var _ ports.DecisionStore = (*DecisionStore)(nil)

func NewDecisionStore(db *DB) *DecisionStore {
	return &DecisionStore{db: db}
}

func (s *DecisionStore) Store(ctx context.Context, decision domain.StoredDosingDecision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	if _, err := s.db.db.ExecContext(ctx, `INSERT INTO dosing_decisions(id, recorded_ns, payload) VALUES(?,?,?)
		ON CONFLICT(id) DO UPDATE SET recorded_ns=excluded.recorded_ns, payload=excluded.payload`,
		decision.ID.String(), toNanos(decision.Date), payload,
	); err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}

	return nil
}

func (s *DecisionStore) Recent(ctx context.Context, limit int) ([]domain.StoredDosingDecision, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.db.QueryContext(ctx, `SELECT payload FROM dosing_decisions ORDER BY recorded_ns DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []domain.StoredDosingDecision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		var decision domain.StoredDosingDecision
		if err := json.Unmarshal(payload, &decision); err != nil {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
		decisions = append(decisions, decision)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}

	return decisions, nil
}
