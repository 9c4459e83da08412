package report

import (
	"sort"
	"testing"

	"github.com/edusupply/backend-go/internal/domain"
)

func distRecord(id string, data map[string]any, quantities ...any) domain.Record {
	rec := domain.Record{ID: id, Kind: domain.KindDistribution, Data: data}
	for _, q := range quantities {
		itemData := map[string]any{}
		if q != nil {
			itemData["quantity"] = q
		}
		rec.Items = append(rec.Items, domain.LineItem{Data: itemData})
	}
	return rec
}

func TestAggregateByMonth_SingleBucket(t *testing.T) {
	// Three March 2025 distributions with quantities [10, 20, missing with
	// candidate fallback 5] land in one bucket with itemTotal 35.
	records := []domain.Record{
		distRecord("d1", map[string]any{"distributionDate": "2025-03-01"}, 10.0),
		distRecord("d2", map[string]any{"distributionDate": "2025-03-15"}, 20.0),
		{
			ID:   "d3",
			Kind: domain.KindDistribution,
			Data: map[string]any{"distributionDate": "2025-03-20"},
			Items: []domain.LineItem{
				{Data: map[string]any{"quantityDistributed": "", "quantity": 5.0}},
			},
		},
	}

	series := AggregateByMonth(records, DistributionDateFields, nil)

	if len(series.Buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(series.Buckets))
	}
	bucket := series.Buckets[0]
	if bucket.Period != "2025-03" {
		t.Errorf("period = %q, want 2025-03", bucket.Period)
	}
	if bucket.Count != 3 {
		t.Errorf("count = %d, want 3", bucket.Count)
	}
	if bucket.ItemTotal != 35 {
		t.Errorf("itemTotal = %v, want 35", bucket.ItemTotal)
	}
	if series.Excluded != 0 {
		t.Errorf("excluded = %d, want 0", series.Excluded)
	}
}

func TestAggregateByMonth_OrderedAndUnique(t *testing.T) {
	records := []domain.Record{
		distRecord("a", map[string]any{"distributionDate": "2025-11-02"}, 1.0),
		distRecord("b", map[string]any{"distributionDate": "2024-01-09"}, 1.0),
		distRecord("c", map[string]any{"distributionDate": "2025-03-01"}, 1.0),
		distRecord("d", map[string]any{"distributionDate": "2025-03-30"}, 1.0),
		distRecord("e", map[string]any{"distributionDate": "2024-12-31"}, 1.0),
	}

	series := AggregateByMonth(records, DistributionDateFields, nil)

	periods := make([]string, 0, len(series.Buckets))
	seen := make(map[string]bool)
	for _, b := range series.Buckets {
		if seen[b.Period] {
			t.Fatalf("duplicate period %q", b.Period)
		}
		seen[b.Period] = true
		periods = append(periods, b.Period)
	}
	if !sort.StringsAreSorted(periods) {
		t.Errorf("periods not ascending: %v", periods)
	}
	if want := []string{"2024-01", "2024-12", "2025-03", "2025-11"}; len(periods) != len(want) {
		t.Errorf("periods = %v, want %v", periods, want)
	}
}

func TestAggregateByMonth_UnparsableDateExcluded(t *testing.T) {
	audit := &Audit{}
	records := []domain.Record{
		distRecord("ok", map[string]any{"distributionDate": "2025-03-01"}, 10.0),
		distRecord("bad", map[string]any{"distributionDate": "soon"}, 40.0),
		distRecord("none", map[string]any{}, 40.0),
	}

	series := AggregateByMonth(records, DistributionDateFields, audit)

	if len(series.Buckets) != 1 || series.Buckets[0].ItemTotal != 10 {
		t.Fatalf("buckets = %+v, want single 2025-03 bucket with total 10", series.Buckets)
	}
	if series.Excluded != 2 {
		t.Errorf("excluded = %d, want 2", series.Excluded)
	}
	if audit.UnclassifiedCount != 2 {
		t.Errorf("unclassified = %d, want 2", audit.UnclassifiedCount)
	}
}

func TestAggregateByCategory_ConservesQuantity(t *testing.T) {
	records := []domain.Record{
		{
			ID:   "r1",
			Kind: domain.KindDistribution,
			Data: map[string]any{"category": "Mathematics Textbooks"},
			Items: []domain.LineItem{
				{Data: map[string]any{"quantity": 10.0}},
				{Data: map[string]any{"quantity": 5.0, "category": "exercise books"}},
			},
		},
		{
			ID:   "r2",
			Kind: domain.KindDistribution,
			Data: map[string]any{"category": "EXERCISE BOOKS"},
			Items: []domain.LineItem{
				{Data: map[string]any{"quantity": 7.0}},
			},
		},
		// No items: cached total is the fallback source.
		{
			ID:   "r3",
			Kind: domain.KindDistribution,
			Data: map[string]any{"category": "Chalk", "totalQuantity": 3.0},
		},
	}

	buckets := AggregateByCategory(records, nil)

	var total float64
	for _, b := range buckets {
		total += b.ItemTotal
	}
	if total != 25 {
		t.Errorf("sum of bucket totals = %v, want 25 (conservation)", total)
	}

	byName := make(map[string]domain.KeyBucket)
	for _, b := range buckets {
		byName[b.Name] = b
	}
	// Variant casing must merge into one bucket.
	if b, ok := byName["Exercise Books"]; !ok || b.ItemTotal != 12 {
		t.Errorf("Exercise Books bucket = %+v, want itemTotal 12", b)
	}
	if b, ok := byName["Mathematics Textbooks"]; !ok || b.ItemTotal != 10 {
		t.Errorf("Mathematics Textbooks bucket = %+v, want itemTotal 10", b)
	}
	if b, ok := byName["Chalk"]; !ok || b.ItemTotal != 3 {
		t.Errorf("Chalk bucket = %+v, want itemTotal 3", b)
	}
}

func TestAggregateByDestination_TopNAndOrdering(t *testing.T) {
	records := []domain.Record{
		distRecord("a", map[string]any{"destination": "Bo Council"}, 5.0),
		distRecord("b", map[string]any{"destination": "freetown council"}, 50.0),
		distRecord("c", map[string]any{"destination": "Freetown Council"}, 10.0),
		distRecord("d", map[string]any{"destination": "Kenema Council"}, 20.0),
		distRecord("e", map[string]any{"destination": "Makeni Council"}, 20.0),
	}

	buckets := AggregateByDestination(records, 3, nil)

	if len(buckets) != 3 {
		t.Fatalf("len = %d, want 3 (topN truncation)", len(buckets))
	}
	if buckets[0].Name != "Freetown Council" || buckets[0].ItemTotal != 60 {
		t.Errorf("top bucket = %+v, want Freetown Council with 60", buckets[0])
	}
	// Kenema and Makeni tie at 20: lexical order breaks the tie.
	if buckets[1].Name != "Kenema Council" || buckets[2].Name != "Makeni Council" {
		t.Errorf("tie break wrong: %q then %q", buckets[1].Name, buckets[2].Name)
	}
}

func TestResolveRecordTotals_MismatchFlagged(t *testing.T) {
	audit := &Audit{}
	rec := domain.Record{
		ID:   "r9",
		Kind: domain.KindShipment,
		Data: map[string]any{"totalQuantity": 100.0},
		Items: []domain.LineItem{
			{Data: map[string]any{"quantity": 40.0}},
			{Data: map[string]any{"quantity": 40.0}},
		},
	}

	totals := ResolveRecordTotals(rec, audit)

	// Line item sum is the primary source even when the cached total says
	// otherwise.
	if totals.Quantity != 80 {
		t.Errorf("quantity = %v, want 80", totals.Quantity)
	}
	if len(audit.QuantityMismatches) != 1 {
		t.Fatalf("mismatches = %d, want 1", len(audit.QuantityMismatches))
	}
	m := audit.QuantityMismatches[0]
	if m.RecordID != "r9" || m.Cached != 100 || m.Computed != 80 {
		t.Errorf("mismatch = %+v", m)
	}
}

func TestResolveRecordTotals_WithinTolerance(t *testing.T) {
	audit := &Audit{Tolerance: 1.0}
	rec := domain.Record{
		ID:    "r10",
		Kind:  domain.KindShipment,
		Data:  map[string]any{"totalQuantity": 80.5},
		Items: []domain.LineItem{{Data: map[string]any{"quantity": 80.0}}},
	}

	ResolveRecordTotals(rec, audit)

	if len(audit.QuantityMismatches) != 0 {
		t.Errorf("mismatches = %d, want 0 within tolerance", len(audit.QuantityMismatches))
	}
}

func TestResolveRecordTotals_CachedFallbackOnly(t *testing.T) {
	rec := domain.Record{
		ID:   "r11",
		Kind: domain.KindReceipt,
		Data: map[string]any{"totalQuantity": 42.0},
	}
	if got := ResolveRecordTotals(rec, nil).Quantity; got != 42 {
		t.Errorf("quantity = %v, want 42 from cached fallback", got)
	}
}
