package report

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestResolveNumber_CandidateOrder(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want float64
	}{
		{
			name: "prefers specific field over generic",
			data: map[string]any{"quantityDistributed": 12.0, "quantity": 99.0},
			want: 12,
		},
		{
			name: "falls back to generic quantity",
			data: map[string]any{"quantity": 7.0},
			want: 7,
		},
		{
			name: "skips nil candidates",
			data: map[string]any{"quantityDistributed": nil, "quantity": 3.0},
			want: 3,
		},
		{
			name: "skips NaN",
			data: map[string]any{"quantityDistributed": math.NaN(), "quantity": 4.0},
			want: 4,
		},
		{
			name: "numeric string",
			data: map[string]any{"quantity": "15"},
			want: 15,
		},
		{
			name: "json.Number",
			data: map[string]any{"quantity": json.Number("21")},
			want: 21,
		},
		{
			name: "missing everywhere returns default",
			data: map[string]any{"unrelated": 1.0},
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveNumber(tt.data, QuantityFields, -1, nil)
			if got != tt.want {
				t.Errorf("ResolveNumber() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveNumber_NeverSumsCandidates(t *testing.T) {
	// Two candidates present must resolve to exactly one, never their sum.
	data := map[string]any{"quantityShipped": 10.0, "quantity": 10.0}
	if got := ResolveNumber(data, QuantityFields, 0, nil); got != 10 {
		t.Fatalf("ResolveNumber() = %v, want 10 (no double counting)", got)
	}
}

func TestResolveDate(t *testing.T) {
	ref := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		data   map[string]any
		wantOK bool
		want   time.Time
	}{
		{
			name:   "business date preferred over created_at",
			data:   map[string]any{"distributionDate": "2025-03-14", "createdAt": "2020-01-01"},
			wantOK: true,
			want:   ref,
		},
		{
			name:   "falls back to created_at",
			data:   map[string]any{"createdAt": "2025-03-14"},
			wantOK: true,
			want:   ref,
		},
		{
			name:   "time.Time value",
			data:   map[string]any{"distributionDate": ref},
			wantOK: true,
			want:   ref,
		},
		{
			name:   "rfc3339 string",
			data:   map[string]any{"distributionDate": "2025-03-14T00:00:00Z"},
			wantOK: true,
			want:   ref,
		},
		{
			name:   "unparsable is absent not epoch",
			data:   map[string]any{"distributionDate": "not-a-date"},
			wantOK: false,
		},
		{
			name:   "zeroed mysql date is absent",
			data:   map[string]any{"distributionDate": "0000-00-00 00:00:00"},
			wantOK: false,
		},
		{
			name:   "missing entirely",
			data:   map[string]any{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveDate(tt.data, DistributionDateFields, nil)
			if ok != tt.wantOK {
				t.Fatalf("ResolveDate() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ResolveDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveDate_UnparsableCountsOnAudit(t *testing.T) {
	audit := &Audit{}
	_, ok := ResolveDate(map[string]any{"distributionDate": "garbage"}, DistributionDateFields, audit)
	if ok {
		t.Fatal("expected no date")
	}
	if audit.UnparsableDates != 1 {
		t.Errorf("UnparsableDates = %d, want 1", audit.UnparsableDates)
	}
}

func TestResolveString(t *testing.T) {
	data := map[string]any{"supplier": "  Acme Ltd ", "supplierName": ""}
	if got := ResolveString(data, SupplierFields, "none", nil); got != "Acme Ltd" {
		t.Errorf("ResolveString() = %q, want %q", got, "Acme Ltd")
	}
	if got := ResolveString(map[string]any{}, SupplierFields, "none", nil); got != "none" {
		t.Errorf("ResolveString() default = %q, want %q", got, "none")
	}
}

func TestResolveBool(t *testing.T) {
	tests := []struct {
		data map[string]any
		want bool
	}{
		{map[string]any{"hasDiscrepancies": true}, true},
		{map[string]any{"has_discrepancies": "true"}, true},
		{map[string]any{"hasDiscrepancies": 1.0}, true},
		{map[string]any{"hasDiscrepancies": 0}, false},
		{map[string]any{}, false},
	}
	for _, tt := range tests {
		if got := ResolveBool(tt.data, discrepancyFields, false, nil); got != tt.want {
			t.Errorf("ResolveBool(%v) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestResolveNumber_MissingIncrementsAudit(t *testing.T) {
	audit := &Audit{}
	ResolveNumber(map[string]any{}, QuantityFields, 0, audit)
	if audit.MissingFields != 1 {
		t.Errorf("MissingFields = %d, want 1", audit.MissingFields)
	}
}
