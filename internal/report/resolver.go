// internal/report/resolver.go
package report

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Candidate field chains, most specific first. Upstream sources disagree on
// field names per API version, so every semantic value is read through one
// of these ordered lists and the order stays auditable in one place.
var (
	QuantityFields = []string{
		"quantityDistributed", "quantity_distributed",
		"quantityShipped", "quantity_shipped",
		"quantityReceived", "quantity_received",
		"quantity", "qty",
	}
	CachedTotalFields = []string{
		"totalQuantity", "total_quantity", "totalItems", "total_items",
	}
	UnitCostFields = []string{
		"unitCost", "unit_cost", "unitPrice", "unit_price",
	}
	OnHandFields = []string{
		"quantityOnHand", "quantity_on_hand", "onHand", "on_hand", "stock",
	}
	MinimumStockFields = []string{
		"minimumStockLevel", "minimum_stock_level", "minStock", "min_stock",
	}
	CategoryFields = []string{
		"category", "itemCategory", "item_category", "categoryName", "category_name",
	}
	SupplierFields = []string{
		"supplierName", "supplier_name", "supplier", "source", "sourceName", "source_name",
	}
	DestinationFields = []string{
		"destinationName", "destination_name", "destination", "councilName", "council_name",
	}
	SchoolTypeFields = []string{
		"schoolType", "school_type", "destinationType", "destination_type",
	}
	StatusFields = []string{
		"status", "state", "deliveryStatus", "delivery_status",
	}
	DistributionDateFields = []string{
		"distributionDate", "distribution_date", "dispatchDate", "dispatch_date",
		"createdAt", "created_at",
	}
	ShipmentDateFields = []string{
		"dispatchDate", "dispatch_date", "shipmentDate", "shipment_date",
		"createdAt", "created_at",
	}
	ReceiptDateFields = []string{
		"confirmationDate", "confirmation_date", "receivedDate", "received_date",
		"createdAt", "created_at",
	}
	SnapshotDateFields = []string{
		"snapshotDate", "snapshot_date", "stockDate", "stock_date",
		"createdAt", "created_at",
	}
	// Processing-time bounds. Start falls back to the creation timestamp as
	// a last resort; records without any end date are excluded from the
	// sample rather than guessed.
	ProcessingStartFields = []string{
		"dispatchDate", "dispatch_date", "distributionDate", "distribution_date",
		"createdAt", "created_at",
	}
	ProcessingEndFields = []string{
		"actualArrivalDate", "actual_arrival_date", "deliveredAt", "delivered_at",
		"receivedDate", "received_date", "confirmationDate", "confirmation_date",
	}
)

// dateFormats are tried in order when a date arrives as a string.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2/1/2006 15:04",
	"2/1/06 15:04",
}

// Audit accumulates the recoverable conditions met during one aggregation
// pass. Nil receivers are safe so resolvers can run without one. Tolerance
// overrides DefaultQuantityTolerance when > 0.
type Audit struct {
	Tolerance          float64
	MissingFields      int
	UnparsableDates    int
	UnclassifiedCount  int
	QuantityMismatches []QuantityMismatch

	mismatchSeen map[string]bool
}

// QuantityMismatch identifies a record whose cached total disagrees with
// the computed line item sum.
type QuantityMismatch struct {
	RecordID string
	Cached   float64
	Computed float64
}

func (a *Audit) missingField() {
	if a != nil {
		a.MissingFields++
	}
}

func (a *Audit) unparsableDate() {
	if a != nil {
		a.UnparsableDates++
	}
}

func (a *Audit) unclassified() {
	if a != nil {
		a.UnclassifiedCount++
	}
}

// mismatch records a cached-vs-computed disagreement once per record; the
// same record flows through several aggregation passes.
func (a *Audit) mismatch(m QuantityMismatch) {
	if a == nil {
		return
	}
	if a.mismatchSeen == nil {
		a.mismatchSeen = make(map[string]bool)
	}
	if a.mismatchSeen[m.RecordID] {
		return
	}
	a.mismatchSeen[m.RecordID] = true
	a.QuantityMismatches = append(a.QuantityMismatches, m)
}

// ResolveNumber returns the first present, non-nil, non-NaN numeric value
// among candidates, else def. Numbers may arrive as float64, int,
// json.Number or numeric string depending on the upstream serializer.
func ResolveNumber(data map[string]any, candidates []string, def float64, audit *Audit) float64 {
	for _, field := range candidates {
		raw, ok := data[field]
		if !ok || raw == nil {
			continue
		}
		if v, ok := asNumber(raw); ok {
			return v
		}
	}
	audit.missingField()
	return def
}

// ResolveString returns the first non-empty string among candidates, else
// def.
func ResolveString(data map[string]any, candidates []string, def string, audit *Audit) string {
	for _, field := range candidates {
		raw, ok := data[field]
		if !ok || raw == nil {
			continue
		}
		if s, ok := raw.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	audit.missingField()
	return def
}

// ResolveDate returns the first candidate value that parses as a date. A
// present value that fails to parse is treated as absent, never as epoch.
func ResolveDate(data map[string]any, candidates []string, audit *Audit) (time.Time, bool) {
	sawUnparsable := false
	for _, field := range candidates {
		raw, ok := data[field]
		if !ok || raw == nil {
			continue
		}
		if t, ok := asDate(raw); ok {
			return t, true
		}
		sawUnparsable = true
	}
	if sawUnparsable {
		audit.unparsableDate()
	}
	return time.Time{}, false
}

// ResolveBool returns the first boolean-ish value among candidates, else
// def. Accepts bool, "true"/"false" strings and 0/1 numbers.
func ResolveBool(data map[string]any, candidates []string, def bool, audit *Audit) bool {
	for _, field := range candidates {
		raw, ok := data[field]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		default:
			if n, ok := asNumber(raw); ok {
				return n != 0
			}
		}
	}
	audit.missingField()
	return def
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil && !math.IsNaN(f) {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) {
			return f, true
		}
	}
	return 0, false
}

func asDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" || s == "0000-00-00 00:00:00" {
			return time.Time{}, false
		}
		for _, format := range dateFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
