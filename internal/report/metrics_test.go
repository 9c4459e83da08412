package report

import (
	"testing"

	"github.com/edusupply/backend-go/internal/domain"
)

func statusRecord(status string) domain.Record {
	return domain.Record{Kind: domain.KindDistribution, Data: map[string]any{"status": status}}
}

func TestDistributionEfficiency(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     float64
	}{
		{"empty input is zero not NaN", nil, 0},
		{"all complete", []string{"COMPLETED", "delivered", "Confirmed", "RECEIVED"}, 100},
		{"half complete", []string{"COMPLETED", "PENDING", "DELIVERED", "IN_TRANSIT"}, 50},
		{"none complete", []string{"PENDING", "CANCELLED"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []domain.Record
			for _, s := range tt.statuses {
				records = append(records, statusRecord(s))
			}
			if got := DistributionEfficiency(records); got != tt.want {
				t.Errorf("DistributionEfficiency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchoolCoverage(t *testing.T) {
	tests := []struct {
		served, total int
		want          float64
	}{
		{0, 0, 0}, // zero denominator defined as 0
		{5, 10, 50},
		{10, 10, 100},
		{15, 10, 100}, // malformed over-count clamps to 100
		{-1, 10, 0},   // negative clamps to 0
	}
	for _, tt := range tests {
		if got := SchoolCoverage(tt.served, tt.total); got != tt.want {
			t.Errorf("SchoolCoverage(%d, %d) = %v, want %v", tt.served, tt.total, got, tt.want)
		}
	}
}

func TestInventoryTurnover(t *testing.T) {
	tests := []struct {
		distributed, stock float64
		want               float64
	}{
		{100, 0, 0}, // zero stock defined as 0
		{50, 100, 50},
		{500, 100, 100}, // clamped
		{-5, 100, 0},
	}
	for _, tt := range tests {
		if got := InventoryTurnover(tt.distributed, tt.stock); got != tt.want {
			t.Errorf("InventoryTurnover(%v, %v) = %v, want %v", tt.distributed, tt.stock, got, tt.want)
		}
	}
}

func TestStockAccuracy(t *testing.T) {
	// Two categories, one with onHand below its minimum: 50% accurate.
	inventory := []domain.Record{
		{Kind: domain.KindInventory, Data: map[string]any{"quantityOnHand": 100.0, "minimumStockLevel": 20.0}},
		{Kind: domain.KindInventory, Data: map[string]any{"quantityOnHand": 15.0, "minimumStockLevel": 20.0}},
	}
	if got := StockAccuracy(inventory); got != 50.0 {
		t.Errorf("StockAccuracy() = %v, want 50.0", got)
	}

	if got := StockAccuracy(nil); got != 0 {
		t.Errorf("StockAccuracy(nil) = %v, want 0", got)
	}

	negative := []domain.Record{
		{Kind: domain.KindInventory, Data: map[string]any{"quantityOnHand": -3.0}},
	}
	if got := StockAccuracy(negative); got != 0 {
		t.Errorf("StockAccuracy(negative) = %v, want 0", got)
	}
}

func TestDiscrepancyRate(t *testing.T) {
	shipments := []domain.Record{
		{Kind: domain.KindShipment, Data: map[string]any{"hasDiscrepancies": true}},
		{Kind: domain.KindShipment, Data: map[string]any{"hasDiscrepancies": false}},
		{Kind: domain.KindShipment, Data: map[string]any{}},
		{Kind: domain.KindShipment, Data: map[string]any{"has_discrepancies": true}},
	}
	if got := DiscrepancyRate(shipments); got != 50 {
		t.Errorf("DiscrepancyRate() = %v, want 50", got)
	}
	if got := DiscrepancyRate(nil); got != 0 {
		t.Errorf("DiscrepancyRate(nil) = %v, want 0", got)
	}
}

func TestAverageProcessingTime(t *testing.T) {
	records := []domain.Record{
		// 4 days dispatch to arrival.
		{Kind: domain.KindShipment, Data: map[string]any{
			"dispatchDate":      "2025-03-01",
			"actualArrivalDate": "2025-03-05",
		}},
		// 2 days.
		{Kind: domain.KindShipment, Data: map[string]any{
			"dispatchDate":      "2025-03-10",
			"actualArrivalDate": "2025-03-12",
		}},
		// Negative duration: rejected.
		{Kind: domain.KindShipment, Data: map[string]any{
			"dispatchDate":      "2025-03-10",
			"actualArrivalDate": "2025-03-01",
		}},
		// Outlier beyond the 365-day window: rejected.
		{Kind: domain.KindShipment, Data: map[string]any{
			"dispatchDate":      "2020-01-01",
			"actualArrivalDate": "2025-03-01",
		}},
		// Missing end date: excluded.
		{Kind: domain.KindShipment, Data: map[string]any{
			"dispatchDate": "2025-03-01",
		}},
	}

	if got := AverageProcessingTime(records, ProcessingStartFields, ProcessingEndFields, 0); got != 3 {
		t.Errorf("AverageProcessingTime() = %v, want 3", got)
	}
}

func TestAverageProcessingTime_EmptySampleUsesDefault(t *testing.T) {
	if got := AverageProcessingTime(nil, ProcessingStartFields, ProcessingEndFields, 2.5); got != 2.5 {
		t.Errorf("AverageProcessingTime(empty) = %v, want default 2.5", got)
	}
	// Default itself is clamped to the duration window.
	if got := AverageProcessingTime(nil, ProcessingStartFields, ProcessingEndFields, 9999); got != 365 {
		t.Errorf("AverageProcessingTime(empty, 9999) = %v, want 365", got)
	}
}

func TestAverageProcessingTime_CreatedAtFallbackForStart(t *testing.T) {
	// No dispatch date anywhere: createdAt is the last-resort start
	// candidate; the record still needs a real end date.
	records := []domain.Record{
		{Kind: domain.KindShipment, Data: map[string]any{
			"createdAt":         "2025-03-01",
			"actualArrivalDate": "2025-03-03",
		}},
	}
	if got := AverageProcessingTime(records, ProcessingStartFields, ProcessingEndFields, 0); got != 2 {
		t.Errorf("AverageProcessingTime() = %v, want 2 via createdAt fallback", got)
	}

	// createdAt alone with no parsable end date: record excluded, default
	// returned. This is the documented policy for scenario records lacking
	// arrival and dispatch dates.
	noEnd := []domain.Record{
		{Kind: domain.KindShipment, Data: map[string]any{"createdAt": "2025-03-01"}},
	}
	if got := AverageProcessingTime(noEnd, ProcessingStartFields, ProcessingEndFields, 7); got != 7 {
		t.Errorf("AverageProcessingTime(no end) = %v, want default 7", got)
	}
}
