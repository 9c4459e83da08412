// internal/report/bucket.go
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/edusupply/backend-go/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultTopN bounds the supplier/destination/school-type breakdowns.
	DefaultTopN = 10
	// DefaultQuantityTolerance is the allowed gap between a record's cached
	// total and the sum of its line items before the record is flagged.
	DefaultQuantityTolerance = 0.5

	unclassifiedKey = "Unclassified"
)

// DateFieldsFor returns the date candidate chain for a record kind.
func DateFieldsFor(kind domain.RecordKind) []string {
	switch kind {
	case domain.KindDistribution:
		return DistributionDateFields
	case domain.KindShipment:
		return ShipmentDateFields
	case domain.KindReceipt:
		return ReceiptDateFields
	case domain.KindInventory:
		return SnapshotDateFields
	}
	return DistributionDateFields
}

// RecordTotals is the resolved quantity and monetary value of one record.
type RecordTotals struct {
	Quantity float64
	Value    decimal.Decimal
}

// ResolveRecordTotals sums a record's line item quantities through the field
// resolver. The record's own cached total is only a fallback for records
// without line items; when both sources exist and disagree beyond tolerance
// the record is flagged on the audit instead of silently preferring either.
func ResolveRecordTotals(rec domain.Record, audit *Audit) RecordTotals {
	tolerance := DefaultQuantityTolerance
	if audit != nil && audit.Tolerance > 0 {
		tolerance = audit.Tolerance
	}

	cached, cachedOK := lookupNumber(rec.Data, CachedTotalFields)

	if len(rec.Items) == 0 {
		if cachedOK {
			return RecordTotals{Quantity: math.Max(0, cached)}
		}
		// Flat movement records carry their quantity at the top level.
		if flat, ok := lookupNumber(rec.Data, QuantityFields); ok {
			return RecordTotals{Quantity: math.Max(0, flat)}
		}
		audit.missingField()
		return RecordTotals{}
	}

	var qty float64
	value := decimal.Zero
	for _, item := range rec.Items {
		itemQty := ResolveNumber(item.Data, QuantityFields, 0, audit)
		if itemQty < 0 {
			itemQty = 0
		}
		qty += itemQty

		if cost, ok := lookupNumber(item.Data, UnitCostFields); ok {
			value = value.Add(decimal.NewFromFloat(cost).Mul(decimal.NewFromFloat(itemQty)))
		}
	}

	if cachedOK && math.Abs(cached-qty) > tolerance {
		audit.mismatch(QuantityMismatch{RecordID: rec.ID, Cached: cached, Computed: qty})
	}

	return RecordTotals{Quantity: qty, Value: value}
}

// AggregateByMonth groups records into YYYY-MM buckets by the first parsable
// date among dateCandidates. Records without a usable date are excluded from
// the series and counted, never attributed to a default period. Buckets are
// returned ascending by period.
func AggregateByMonth(records []domain.Record, dateCandidates []string, audit *Audit) domain.MonthSeries {
	buckets := make(map[string]*domain.MonthBucket)
	excluded := 0

	for _, rec := range records {
		date, ok := ResolveDate(rec.Data, dateCandidates, audit)
		if !ok {
			excluded++
			audit.unclassified()
			continue
		}

		period := fmt.Sprintf("%04d-%02d", date.Year(), int(date.Month()))
		bucket, exists := buckets[period]
		if !exists {
			bucket = &domain.MonthBucket{Period: period}
			buckets[period] = bucket
		}

		totals := ResolveRecordTotals(rec, audit)
		bucket.Count++
		bucket.ItemTotal += totals.Quantity
	}

	series := domain.MonthSeries{
		Buckets:  make([]domain.MonthBucket, 0, len(buckets)),
		Excluded: excluded,
	}
	for _, bucket := range buckets {
		series.Buckets = append(series.Buckets, *bucket)
	}
	sort.Slice(series.Buckets, func(i, j int) bool {
		return series.Buckets[i].Period < series.Buckets[j].Period
	})

	return series
}

// AggregateByCategory groups line item quantities by category. A line item
// without its own category falls back to the parent record's, then to
// "Unclassified", so quantity is conserved across buckets.
func AggregateByCategory(records []domain.Record, audit *Audit) []domain.KeyBucket {
	buckets := make(map[string]*domain.KeyBucket)
	counted := make(map[string]map[string]bool) // bucket key -> record ids

	countOnce := func(key, recordID string) {
		if counted[key] == nil {
			counted[key] = make(map[string]bool)
		}
		if !counted[key][recordID] {
			counted[key][recordID] = true
			buckets[key].Count++
		}
	}

	ensure := func(key string) *domain.KeyBucket {
		bucket, ok := buckets[key]
		if !ok {
			bucket = &domain.KeyBucket{Name: key, Value: decimal.Zero}
			buckets[key] = bucket
		}
		return bucket
	}

	for _, rec := range records {
		parentCategory := ResolveString(rec.Data, CategoryFields, "", nil)

		if len(rec.Items) == 0 {
			key := normalizeName(parentCategory)
			if key == "" {
				key = unclassifiedKey
			}
			totals := ResolveRecordTotals(rec, audit)
			bucket := ensure(key)
			bucket.ItemTotal += totals.Quantity
			bucket.Value = bucket.Value.Add(totals.Value)
			countOnce(key, rec.ID)
			continue
		}

		for _, item := range rec.Items {
			category := ResolveString(item.Data, CategoryFields, parentCategory, nil)
			key := normalizeName(category)
			if key == "" {
				key = unclassifiedKey
			}

			qty := ResolveNumber(item.Data, QuantityFields, 0, audit)
			if qty < 0 {
				qty = 0
			}

			bucket := ensure(key)
			bucket.ItemTotal += qty
			if cost, ok := lookupNumber(item.Data, UnitCostFields); ok {
				bucket.Value = bucket.Value.Add(decimal.NewFromFloat(cost).Mul(decimal.NewFromFloat(qty)))
			}
			countOnce(key, rec.ID)
		}
	}

	return sortBuckets(buckets, 0)
}

// AggregateBySupplier groups whole records by supplier/source name,
// truncated to the topN largest buckets.
func AggregateBySupplier(records []domain.Record, topN int, audit *Audit) []domain.KeyBucket {
	return aggregateByRecordKey(records, SupplierFields, topN, audit)
}

// AggregateByDestination groups whole records by destination name.
func AggregateByDestination(records []domain.Record, topN int, audit *Audit) []domain.KeyBucket {
	return aggregateByRecordKey(records, DestinationFields, topN, audit)
}

// AggregateBySchoolType groups whole records by destination school type.
func AggregateBySchoolType(records []domain.Record, topN int, audit *Audit) []domain.KeyBucket {
	return aggregateByRecordKey(records, SchoolTypeFields, topN, audit)
}

func aggregateByRecordKey(records []domain.Record, fieldCandidates []string, topN int, audit *Audit) []domain.KeyBucket {
	if topN <= 0 {
		topN = DefaultTopN
	}

	buckets := make(map[string]*domain.KeyBucket)
	for _, rec := range records {
		key := normalizeName(ResolveString(rec.Data, fieldCandidates, "", audit))
		if key == "" {
			key = unclassifiedKey
		}

		bucket, ok := buckets[key]
		if !ok {
			bucket = &domain.KeyBucket{Name: key, Value: decimal.Zero}
			buckets[key] = bucket
		}

		totals := ResolveRecordTotals(rec, audit)
		bucket.Count++
		bucket.ItemTotal += totals.Quantity
		bucket.Value = bucket.Value.Add(totals.Value)
	}

	return sortBuckets(buckets, topN)
}

// sortBuckets orders buckets descending by accumulated quantity with lexical
// tie-break, truncating to topN when topN > 0.
func sortBuckets(buckets map[string]*domain.KeyBucket, topN int) []domain.KeyBucket {
	out := make([]domain.KeyBucket, 0, len(buckets))
	for _, bucket := range buckets {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemTotal != out[j].ItemTotal {
			return out[i].ItemTotal > out[j].ItemTotal
		}
		return out[i].Name < out[j].Name
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// normalizeName trims and title-cases a bucket key so variant casing does
// not fragment a bucket ("FREETOWN council" and "Freetown Council" merge).
func normalizeName(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// lookupNumber is ResolveNumber without default/audit semantics: it reports
// whether any candidate held a usable number.
func lookupNumber(data map[string]any, candidates []string) (float64, bool) {
	for _, field := range candidates {
		raw, ok := data[field]
		if !ok || raw == nil {
			continue
		}
		if v, ok := asNumber(raw); ok {
			return v, true
		}
	}
	return 0, false
}
