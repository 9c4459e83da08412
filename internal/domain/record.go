// internal/domain/record.go
package domain

import (
	"strings"
	"time"
)

// RecordKind identifies the transactional source of a record.
type RecordKind string

const (
	KindInventory    RecordKind = "inventory_snapshot"
	KindDistribution RecordKind = "distribution"
	KindShipment     RecordKind = "shipment"
	KindReceipt      RecordKind = "receipt"
)

// ParseRecordKind returns the record kind for a label (case-insensitive).
func ParseRecordKind(label string) (RecordKind, bool) {
	switch RecordKind(strings.ToLower(strings.TrimSpace(label))) {
	case KindInventory:
		return KindInventory, true
	case KindDistribution:
		return KindDistribution, true
	case KindShipment:
		return KindShipment, true
	case KindReceipt:
		return KindReceipt, true
	}
	return "", false
}

// Record is a single transactional event (distribution, shipment, receipt or
// inventory snapshot) fetched from an upstream source. Upstream field names
// vary by source and API version, so everything beyond the identity is kept
// in Data and read through the report package's resolvers.
type Record struct {
	ID    string         `json:"id"`
	Kind  RecordKind     `json:"kind"`
	Data  map[string]any `json:"data"`
	Items []LineItem     `json:"items,omitempty"`
}

// LineItem is a quantity-bearing sub-entry of a Record, e.g. one item line
// within a shipment. Like Record.Data its field names vary per source.
type LineItem struct {
	Data map[string]any `json:"data"`
}

// ScopeKind is the organizational level a report is computed for.
type ScopeKind string

const (
	ScopeWarehouse ScopeKind = "warehouse"
	ScopeCouncil   ScopeKind = "council"
	ScopeSchool    ScopeKind = "school"
)

// ParseScopeKind returns the scope kind for a label (case-insensitive).
func ParseScopeKind(label string) (ScopeKind, bool) {
	switch ScopeKind(strings.ToLower(strings.TrimSpace(label))) {
	case ScopeWarehouse:
		return ScopeWarehouse, true
	case ScopeCouncil:
		return ScopeCouncil, true
	case ScopeSchool:
		return ScopeSchool, true
	}
	return "", false
}

// Scope describes which organizational unit a report covers. At most one of
// the IDs is meaningful for a given Kind; empty IDs fall back to configured
// defaults and finally to the first ID observed in the data.
type Scope struct {
	Kind        ScopeKind `json:"kind"`
	WarehouseID string    `json:"warehouse_id,omitempty"`
	CouncilID   string    `json:"council_id,omitempty"`
	SchoolID    string    `json:"school_id,omitempty"`
}

// ID returns the identifier matching the scope kind.
func (s Scope) ID() string {
	switch s.Kind {
	case ScopeWarehouse:
		return s.WarehouseID
	case ScopeCouncil:
		return s.CouncilID
	case ScopeSchool:
		return s.SchoolID
	}
	return ""
}

// DateRange is a calendar date window. A zero From or To leaves that side
// open.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the range, bounds inclusive.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}
