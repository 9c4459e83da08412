// internal/report/index.go
package report

import (
	"time"

	"github.com/edusupply/backend-go/internal/domain"
)

// RecordIndex is the small set of columns the record store filters on,
// resolved once at ingest time through the same candidate chains the
// aggregation uses.
type RecordIndex struct {
	WarehouseID string
	CouncilID   string
	SchoolID    string
	EventDate   time.Time
}

// IndexRecord resolves a record's scope identifiers and business date.
// Absent values stay zero; an unparsable date leaves EventDate zero so the
// row is never attributed to a default period.
func IndexRecord(rec domain.Record) RecordIndex {
	index := RecordIndex{
		WarehouseID: ResolveString(rec.Data, WarehouseIDFields, "", nil),
		CouncilID:   ResolveString(rec.Data, CouncilIDFields, "", nil),
		SchoolID:    ResolveString(rec.Data, SchoolIDFields, "", nil),
	}
	if date, ok := ResolveDate(rec.Data, DateFieldsFor(rec.Kind), nil); ok {
		index.EventDate = date
	}
	return index
}
