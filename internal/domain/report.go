// internal/domain/report.go
package domain

import "github.com/shopspring/decimal"

// MonthBucket accumulates the records of one calendar month.
type MonthBucket struct {
	Period    string  `json:"period"` // YYYY-MM
	Count     int     `json:"count"`
	ItemTotal float64 `json:"item_total"`
}

// MonthSeries is a time-bucketed view of a record collection. Buckets are
// sorted ascending by period and unique. Excluded counts the records that
// carried no parsable date and were left out of the series.
type MonthSeries struct {
	Buckets  []MonthBucket `json:"buckets"`
	Excluded int           `json:"excluded"`
}

// KeyBucket accumulates records sharing one categorical dimension value
// (category, supplier, destination, school type).
type KeyBucket struct {
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	ItemTotal float64         `json:"item_total"`
	Value     decimal.Decimal `json:"value"`
}

// QuantityMismatch flags a record whose cached total disagrees with the sum
// of its line items beyond the configured tolerance. Surfaced as a
// data-quality signal instead of silently preferring either source.
type QuantityMismatch struct {
	RecordID string  `json:"record_id"`
	Cached   float64 `json:"cached"`
	Computed float64 `json:"computed"`
}

// AuditSummary carries the recoverable-condition counters accumulated during
// one aggregation pass.
type AuditSummary struct {
	MissingFields      int                `json:"missing_fields"`
	UnparsableDates    int                `json:"unparsable_dates"`
	UnclassifiedCount  int                `json:"unclassified_count"`
	QuantityMismatches []QuantityMismatch `json:"quantity_mismatches,omitempty"`
}

// PerformanceMetrics is the derived-scalar block of a report. All rate
// fields are percentages clamped to [0,100]; AvgProcessingDays is clamped to
// [0,365].
type PerformanceMetrics struct {
	DistributionEfficiency float64 `json:"distribution_efficiency"`
	SchoolCoverage         float64 `json:"school_coverage"`
	InventoryTurnover      float64 `json:"inventory_turnover"`
	StockAccuracy          float64 `json:"stock_accuracy"`
	DiscrepancyRate        float64 `json:"discrepancy_rate"`
	AvgProcessingDays      float64 `json:"avg_processing_days"`
}

// InventoryReport summarizes inventory snapshot records.
type InventoryReport struct {
	TotalItems int             `json:"total_items"`
	TotalUnits float64         `json:"total_units"`
	TotalValue decimal.Decimal `json:"total_value"`
	Categories []KeyBucket     `json:"categories"`
	LowStock   int             `json:"low_stock"`
}

// DistributionReport summarizes distribution records.
type DistributionReport struct {
	Total        int         `json:"total"`
	TotalUnits   float64     `json:"total_units"`
	Monthly      MonthSeries `json:"monthly"`
	Categories   []KeyBucket `json:"categories"`
	Destinations []KeyBucket `json:"destinations"`
	SchoolTypes  []KeyBucket `json:"school_types"`
}

// ShipmentReport summarizes shipment records.
type ShipmentReport struct {
	Total         int         `json:"total"`
	TotalUnits    float64     `json:"total_units"`
	Monthly       MonthSeries `json:"monthly"`
	Suppliers     []KeyBucket `json:"suppliers"`
	Discrepancies int         `json:"discrepancies"`
}

// ReceiptReport summarizes receipt confirmations.
type ReceiptReport struct {
	Total      int         `json:"total"`
	TotalUnits float64     `json:"total_units"`
	Monthly    MonthSeries `json:"monthly"`
	Sources    []KeyBucket `json:"sources"`
}

// ReportPayload is the structurally uniform report returned for every scope.
// Sections a scope does not cover are nil; zero matching records still yield
// a fully shaped payload so renderers never distinguish "no data" from a
// fetch failure here.
type ReportPayload struct {
	Scope        Scope               `json:"scope"`
	Range        DateRange           `json:"range"`
	Inventory    *InventoryReport    `json:"inventory_report,omitempty"`
	Distribution *DistributionReport `json:"distribution_report,omitempty"`
	Shipment     *ShipmentReport     `json:"shipment_report,omitempty"`
	Receipt      *ReceiptReport      `json:"receipt_report,omitempty"`
	Performance  PerformanceMetrics  `json:"performance_metrics"`
	Audit        AuditSummary        `json:"audit"`
}
