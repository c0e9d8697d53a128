package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/google/uuid"
)

// HistoryStore keeps glucose, insulin and carb history in sqlite.
type HistoryStore struct {
	db *DB
}

var (
	_ ports.GlucoseStore = (*HistoryStore)(nil)
	_ ports.DoseStore    = (*HistoryStore)(nil)
	_ ports.CarbStore    = (*HistoryStore)(nil)
)

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) GlucoseSamples(ctx context.Context, start, end time.Time) ([]domain.GlucoseSample, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT sync_id, start_ns, quantity, display_only, user_entered, provenance
		FROM glucose_samples WHERE start_ns BETWEEN ? AND ? ORDER BY start_ns`, toNanos(start), toNanos(end))
	if err != nil {
		return nil, fmt.Errorf("select glucose samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var samples []domain.GlucoseSample
	for rows.Next() {
		var (
			sample      domain.GlucoseSample
			startNanos  int64
			displayOnly int
			userEntered int
		)
		if err := rows.Scan(&sample.SyncIdentifier, &startNanos, &sample.Quantity, &displayOnly, &userEntered, &sample.Provenance); err != nil {
			return nil, fmt.Errorf("scan glucose sample: %w", err)
		}
		sample.StartDate = fromNanos(startNanos)
		sample.IsDisplayOnly = displayOnly != 0
		sample.WasUserEntered = userEntered != 0
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate glucose samples: %w", err)
	}

	return samples, nil
}

func (s *HistoryStore) AddGlucoseSamples(ctx context.Context, samples []domain.GlucoseSample) error {
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		for _, sample := range samples {
			syncID := sample.SyncIdentifier
			if syncID == "" {
				syncID = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO glucose_samples(sync_id, start_ns, quantity, display_only, user_entered, provenance)
				VALUES(?,?,?,?,?,?)
				ON CONFLICT(sync_id) DO UPDATE SET start_ns=excluded.start_ns, quantity=excluded.quantity,
					display_only=excluded.display_only, user_entered=excluded.user_entered, provenance=excluded.provenance`,
				syncID, toNanos(sample.StartDate), sample.Quantity,
				boolToInt(sample.IsDisplayOnly), boolToInt(sample.WasUserEntered), sample.Provenance,
			); err != nil {
				return fmt.Errorf("upsert glucose sample: %w", err)
			}
		}

		return nil
	})
}

func (s *HistoryStore) NormalizedDoseEntries(ctx context.Context, start, end time.Time) ([]domain.DoseEntry, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT sync_id, type, start_ns, end_ns, value, unit, delivered_units, automatic, insulin_type
		FROM doses WHERE start_ns <= ? AND end_ns >= ? ORDER BY start_ns, sync_id`, toNanos(end), toNanos(start))
	if err != nil {
		return nil, fmt.Errorf("select doses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var doses []domain.DoseEntry
	for rows.Next() {
		var (
			dose        domain.DoseEntry
			doseType    string
			unit        string
			insulinType string
			startNanos  int64
			endNanos    int64
			delivered   sql.NullFloat64
			automatic   sql.NullBool
		)
		if err := rows.Scan(&dose.SyncIdentifier, &doseType, &startNanos, &endNanos, &dose.Value, &unit, &delivered, &automatic, &insulinType); err != nil {
			return nil, fmt.Errorf("scan dose: %w", err)
		}
		dose.Type = domain.DoseType(doseType)
		dose.Unit = domain.DoseUnit(unit)
		dose.InsulinType = domain.InsulinType(insulinType)
		dose.StartDate = fromNanos(startNanos)
		dose.EndDate = fromNanos(endNanos)
		if delivered.Valid {
			dose.DeliveredUnits = domain.Float64Ptr(delivered.Float64)
		}
		if automatic.Valid {
			dose.Automatic = domain.BoolPtr(automatic.Bool)
		}
		doses = append(doses, dose)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doses: %w", err)
	}

	return doses, nil
}

func (s *HistoryStore) LastAddedPumpData(ctx context.Context) (time.Time, error) {
	var ns int64
	err := s.db.db.QueryRowContext(ctx, `SELECT last_reported_ns FROM pump_reports WHERE id = 1`).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("select last pump report: %w", err)
	}

	return fromNanos(ns), nil
}

// AddDoses upserts by sync identifier so corrected entries replace the
// originals, and advances the last pump report time.
func (s *HistoryStore) AddDoses(ctx context.Context, doses []domain.DoseEntry, reportedAt time.Time) error {
	return s.db.inTx(ctx, func(tx *sql.Tx) error {
		for _, dose := range doses {
			if !dose.Type.Valid() {
				return fmt.Errorf("unsupported dose type %q", dose.Type)
			}
			syncID := dose.SyncIdentifier
			if syncID == "" {
				syncID = uuid.NewString()
			}

			var delivered sql.NullFloat64
			if dose.DeliveredUnits != nil {
				delivered = sql.NullFloat64{Float64: *dose.DeliveredUnits, Valid: true}
			}
			var automatic sql.NullBool
			if dose.Automatic != nil {
				automatic = sql.NullBool{Bool: *dose.Automatic, Valid: true}
			}

			if _, err := tx.ExecContext(ctx, `INSERT INTO doses(sync_id, type, start_ns, end_ns, value, unit, delivered_units, automatic, insulin_type)
				VALUES(?,?,?,?,?,?,?,?,?)
				ON CONFLICT(sync_id) DO UPDATE SET type=excluded.type, start_ns=excluded.start_ns, end_ns=excluded.end_ns,
					value=excluded.value, unit=excluded.unit, delivered_units=excluded.delivered_units,
					automatic=excluded.automatic, insulin_type=excluded.insulin_type`,
				syncID, string(dose.Type), toNanos(dose.StartDate), toNanos(dose.EndDate), dose.Value, string(dose.Unit),
				delivered, automatic, string(dose.InsulinType),
			); err != nil {
				return fmt.Errorf("upsert dose: %w", err)
			}
		}

		if reportedAt.IsZero() {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO pump_reports(id, last_reported_ns) VALUES(1, ?)
			ON CONFLICT(id) DO UPDATE SET last_reported_ns = MAX(last_reported_ns, excluded.last_reported_ns)`,
			toNanos(reportedAt),
		); err != nil {
			return fmt.Errorf("record pump report: %w", err)
		}

		return nil
	})
}

func (s *HistoryStore) CarbEntries(ctx context.Context, start, end time.Time) ([]domain.CarbEntry, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT sync_id, start_ns, grams, absorption_ns, food_type, user_created_ns
		FROM carb_entries WHERE start_ns BETWEEN ? AND ? ORDER BY start_ns`, toNanos(start), toNanos(end))
	if err != nil {
		return nil, fmt.Errorf("select carb entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.CarbEntry
	for rows.Next() {
		var (
			entry         domain.CarbEntry
			startNanos    int64
			absorption    int64
			userCreatedNs int64
		)
		if err := rows.Scan(&entry.SyncIdentifier, &startNanos, &entry.Grams, &absorption, &entry.FoodType, &userCreatedNs); err != nil {
			return nil, fmt.Errorf("scan carb entry: %w", err)
		}
		entry.StartDate = fromNanos(startNanos)
		entry.AbsorptionTime = time.Duration(absorption)
		entry.UserCreatedDate = fromNanos(userCreatedNs)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate carb entries: %w", err)
	}

	return entries, nil
}

func (s *HistoryStore) AddCarbEntry(ctx context.Context, entry domain.CarbEntry) error {
	if entry.Grams <= 0 {
		return fmt.Errorf("carb entry must be positive, got %v g", entry.Grams)
	}

	syncID := entry.SyncIdentifier
	if syncID == "" {
		syncID = uuid.NewString()
	}

	if _, err := s.db.db.ExecContext(ctx, `INSERT INTO carb_entries(sync_id, start_ns, grams, absorption_ns, food_type, user_created_ns)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(sync_id) DO UPDATE SET start_ns=excluded.start_ns, grams=excluded.grams,
			absorption_ns=excluded.absorption_ns, food_type=excluded.food_type, user_created_ns=excluded.user_created_ns`,
		syncID, toNanos(entry.StartDate), entry.Grams, int64(entry.AbsorptionTime), entry.FoodType, toNanos(entry.UserCreatedDate),
	); err != nil {
		return fmt.Errorf("upsert carb entry: %w", err)
	}

	return nil
}
