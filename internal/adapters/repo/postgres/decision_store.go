// Package postgres stores dosing decisions in PostgreSQL for setups where
// several loop hosts report to one database.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDecisionsTable = `CREATE TABLE IF NOT EXISTS dosing_decisions (
	id UUID PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL,
	reason TEXT NOT NULL,
	enacted BOOLEAN NOT NULL DEFAULT FALSE,
	payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS dosing_decisions_recorded_at ON dosing_decisions (recorded_at DESC)`

type DecisionStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ports.DecisionStore = (*DecisionStore)(nil)

// NewDecisionStore connects to dsn and creates the decisions table if needed.
func NewDecisionStore(ctx context.Context, dsn string, logger *slog.Logger) (*DecisionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createDecisionsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate decisions table: %w", err)
	}

	return &DecisionStore{pool: pool, logger: logger}, nil
}

func (s *DecisionStore) Store(ctx context.Context, decision domain.StoredDosingDecision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("postgres: encode decision: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `INSERT INTO dosing_decisions (id, recorded_at, reason, enacted, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET recorded_at = EXCLUDED.recorded_at, reason = EXCLUDED.reason,
			enacted = EXCLUDED.enacted, payload = EXCLUDED.payload`,
		decision.ID, decision.Date, decision.Reason, decision.Enacted, payload,
	); err != nil {
		return fmt.Errorf("postgres: insert decision: %w", err)
	}

	return nil
}

func (s *DecisionStore) Recent(ctx context.Context, limit int) ([]domain.StoredDosingDecision, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT payload FROM dosing_decisions ORDER BY recorded_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: select decisions: %w", err)
	}
	defer rows.Close()

	var decisions []domain.StoredDosingDecision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("postgres: scan decision: %w", err)
		}
		var decision domain.StoredDosingDecision
		if err := json.Unmarshal(payload, &decision); err != nil {
			return nil, fmt.Errorf("postgres: decode decision: %w", err)
		}
		decisions = append(decisions, decision)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate decisions: %w", err)
	}

	return decisions, nil
}

func (s *DecisionStore) Close() {
	s.pool.Close()
}
