// internal/repository/records.go
package repository

import (
	"context"

	"github.com/edusupply/backend-go/internal/domain"
)

// RecordRepository is the boundary the aggregation core sits behind: it
// fetches fully materialized record collections which the core then
// aggregates synchronously. Network failures and timeouts surface here, not
// inside the core.
type RecordRepository interface {
	// ListRecords returns the records of one kind matching the scope and
	// date range. Over-fetch is acceptable; the assembler re-filters.
	ListRecords(ctx context.Context, kind domain.RecordKind, scope domain.Scope, rng domain.DateRange) ([]domain.Record, error)

	// CountSchools returns the school denominator for coverage metrics,
	// restricted to the scope's council when one is set.
	CountSchools(ctx context.Context, scope domain.Scope) (int, error)
}

// IngestRepository persists normalized records arriving from upstream dumps.
type IngestRepository interface {
	UpsertRecords(ctx context.Context, records []domain.Record) (int, error)
	UpsertSchools(ctx context.Context, schools []domain.School) (int, error)
}
