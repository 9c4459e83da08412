// internal/repository/postgres/record_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/report"
	"github.com/edusupply/backend-go/internal/repository"
)

// recordRepository reads and writes the records table. Each row keeps the
// raw upstream payload as JSONB next to the scope/date columns the queries
// filter on; the aggregation core resolves everything else from the payload.
type recordRepository struct {
	db *DB
}

func NewRecordRepository(db *DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

func NewIngestRepository(db *DB) repository.IngestRepository {
	return &recordRepository{db: db}
}

type recordRow struct {
	ID      string `db:"id"`
	Kind    string `db:"kind"`
	Payload []byte `db:"payload"`
}

func (r *recordRepository) ListRecords(ctx context.Context, kind domain.RecordKind, scope domain.Scope, rng domain.DateRange) ([]domain.Record, error) {
	query := `
        SELECT id, kind, payload
        FROM records
        WHERE kind = $1
    `

	args := []interface{}{string(kind)}
	var conditions []string
	argCounter := 2

	if id := scope.ID(); id != "" {
		column := scopeColumn(scope.Kind)
		conditions = append(conditions, fmt.Sprintf("(%s = $%d OR %s IS NULL)", column, argCounter, column))
		args = append(args, id)
		argCounter++
	}

	if !rng.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("(event_date >= $%d::date OR event_date IS NULL)", argCounter))
		args = append(args, rng.From)
		argCounter++
	}

	if !rng.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("(event_date <= $%d::date OR event_date IS NULL)", argCounter))
		args = append(args, rng.To)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY id"

	var rows []recordRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error listing %s records: %w", kind, err)
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return nil, fmt.Errorf("error decoding payload of record %s: %w", row.ID, err)
		}
		records = append(records, domain.NewRecordFromPayload(row.ID, domain.RecordKind(row.Kind), payload))
	}

	return records, nil
}

func (r *recordRepository) CountSchools(ctx context.Context, scope domain.Scope) (int, error) {
	query := `SELECT COUNT(*) FROM schools`
	var args []interface{}

	if scope.Kind == domain.ScopeCouncil && scope.CouncilID != "" {
		query += ` WHERE council_id = $1`
		args = append(args, scope.CouncilID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("error counting schools: %w", err)
	}

	return total, nil
}

func (r *recordRepository) UpsertRecords(ctx context.Context, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
        INSERT INTO records (
            id, kind, warehouse_id, council_id, school_id, event_date, payload, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, NOW()
        )
        ON CONFLICT (id, kind)
        DO UPDATE SET
            warehouse_id = EXCLUDED.warehouse_id,
            council_id = EXCLUDED.council_id,
            school_id = EXCLUDED.school_id,
            event_date = EXCLUDED.event_date,
            payload = EXCLUDED.payload,
            updated_at = NOW()
    `

	processed := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			payload, err := json.Marshal(rec.Data)
			if err != nil {
				return fmt.Errorf("failed to encode payload of record %s: %w", rec.ID, err)
			}

			index := report.IndexRecord(rec)
			if _, err := stmt.ExecContext(
				ctx,
				rec.ID,
				string(rec.Kind),
				nullIfEmpty(index.WarehouseID),
				nullIfEmpty(index.CouncilID),
				nullIfEmpty(index.SchoolID),
				nullTime(index.EventDate),
				payload,
			); err != nil {
				return fmt.Errorf("failed to upsert record %s: %w", rec.ID, err)
			}
			processed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return processed, nil
}

func (r *recordRepository) UpsertSchools(ctx context.Context, schools []domain.School) (int, error) {
	if len(schools) == 0 {
		return 0, nil
	}

	query := `
        INSERT INTO schools (id, name, council_id, school_type, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (id)
        DO UPDATE SET
            name = EXCLUDED.name,
            council_id = EXCLUDED.council_id,
            school_type = EXCLUDED.school_type,
            updated_at = NOW()
    `

	processed := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, school := range schools {
			if school.ID == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, school.ID, school.Name, nullIfEmpty(school.CouncilID), nullIfEmpty(school.Type)); err != nil {
				return fmt.Errorf("failed to upsert school %s: %w", school.ID, err)
			}
			processed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return processed, nil
}

func scopeColumn(kind domain.ScopeKind) string {
	switch kind {
	case domain.ScopeCouncil:
		return "council_id"
	case domain.ScopeSchool:
		return "school_id"
	default:
		return "warehouse_id"
	}
}

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
