// internal/report/assembler.go
package report

import (
	"github.com/edusupply/backend-go/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Scope id candidate chains per organizational level.
var (
	WarehouseIDFields = []string{"warehouseId", "warehouse_id", "warehouse"}
	CouncilIDFields   = []string{"councilId", "council_id", "localCouncilId", "local_council_id", "council"}
	SchoolIDFields    = []string{"schoolId", "school_id", "school"}
)

// Config tunes one assembler instance.
type Config struct {
	TopN                  int
	DefaultProcessingDays float64
	QuantityTolerance     float64
	DefaultWarehouseID    string
	DefaultCouncilID      string
	DefaultSchoolID       string
}

// Collections is the set of raw record collections one report run consumes.
// They arrive already fetched and roughly pre-filtered; the assembler
// re-filters defensively.
type Collections struct {
	Inventory     []domain.Record
	Distributions []domain.Record
	Shipments     []domain.Record
	Receipts      []domain.Record
	TotalSchools  int
}

// Assembler composes the field resolver, bucketing functions and metric
// calculators into scope-specific report payloads. It holds no mutable
// state; every Assemble call is independent and safe to run concurrently.
type Assembler struct {
	cfg Config
	log zerolog.Logger
}

func NewAssembler(cfg Config, log zerolog.Logger) *Assembler {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.QuantityTolerance <= 0 {
		cfg.QuantityTolerance = DefaultQuantityTolerance
	}
	return &Assembler{cfg: cfg, log: log}
}

// Assemble builds the report payload for one scope and date range. Zero
// matching records produce a valid empty-shaped payload, never an error:
// distinguishing "no data" from "fetch failed" belongs to the caller.
func (a *Assembler) Assemble(scope domain.Scope, rng domain.DateRange, cols Collections) domain.ReportPayload {
	audit := &Audit{Tolerance: a.cfg.QuantityTolerance}

	scope = a.resolveScope(scope, cols)

	inventory := filterRecords(cols.Inventory, scope, rng, audit)
	distributions := filterRecords(cols.Distributions, scope, rng, audit)
	shipments := filterRecords(cols.Shipments, scope, rng, audit)
	receipts := filterRecords(cols.Receipts, scope, rng, audit)

	payload := domain.ReportPayload{Scope: scope, Range: rng}

	switch scope.Kind {
	case domain.ScopeWarehouse:
		payload.Inventory = a.inventoryReport(inventory, audit)
		payload.Shipment = a.shipmentReport(shipments, audit)
		payload.Distribution = a.distributionReport(distributions, audit)
	case domain.ScopeCouncil:
		payload.Distribution = a.distributionReport(distributions, audit)
		payload.Receipt = a.receiptReport(receipts, audit)
	case domain.ScopeSchool:
		payload.Receipt = a.receiptReport(receipts, audit)
		payload.Inventory = a.inventoryReport(inventory, audit)
	default:
		payload.Inventory = a.inventoryReport(inventory, audit)
		payload.Distribution = a.distributionReport(distributions, audit)
		payload.Shipment = a.shipmentReport(shipments, audit)
		payload.Receipt = a.receiptReport(receipts, audit)
	}

	payload.Performance = a.performance(scope, inventory, distributions, shipments, receipts, cols.TotalSchools, audit)
	payload.Audit = auditSummary(audit)

	if len(audit.QuantityMismatches) > 0 {
		a.log.Warn().
			Int("records", len(audit.QuantityMismatches)).
			Str("scope", string(scope.Kind)).
			Msg("cached totals disagree with line item sums")
	}
	a.log.Debug().
		Str("scope", string(scope.Kind)).
		Str("scope_id", scope.ID()).
		Int("unclassified", audit.UnclassifiedCount).
		Int("missing_fields", audit.MissingFields).
		Msg("report assembled")

	return payload
}

// resolveScope fills the active scope id: explicit param, then configured
// default, then the first id observed in the data.
func (a *Assembler) resolveScope(scope domain.Scope, cols Collections) domain.Scope {
	fill := func(explicit, configured string, candidates []string) string {
		if explicit != "" {
			return explicit
		}
		if configured != "" {
			return configured
		}
		for _, records := range [][]domain.Record{cols.Inventory, cols.Distributions, cols.Shipments, cols.Receipts} {
			for _, rec := range records {
				if id := ResolveString(rec.Data, candidates, "", nil); id != "" {
					return id
				}
			}
		}
		return ""
	}

	switch scope.Kind {
	case domain.ScopeWarehouse:
		scope.WarehouseID = fill(scope.WarehouseID, a.cfg.DefaultWarehouseID, WarehouseIDFields)
	case domain.ScopeCouncil:
		scope.CouncilID = fill(scope.CouncilID, a.cfg.DefaultCouncilID, CouncilIDFields)
	case domain.ScopeSchool:
		scope.SchoolID = fill(scope.SchoolID, a.cfg.DefaultSchoolID, SchoolIDFields)
	}
	return scope
}

// filterRecords re-applies the date range and scope filters. A record whose
// scope field is present but different is dropped; one lacking the field is
// kept, trusting the collaborator's pre-filter. Records without a parsable
// date survive the range filter and surface later as unclassified.
func filterRecords(records []domain.Record, scope domain.Scope, rng domain.DateRange, audit *Audit) []domain.Record {
	scopeID := scope.ID()
	candidates := scopeFieldsFor(scope.Kind)

	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if scopeID != "" {
			if id := ResolveString(rec.Data, candidates, "", nil); id != "" && id != scopeID {
				continue
			}
		}
		if !rng.IsZero() {
			if date, ok := ResolveDate(rec.Data, DateFieldsFor(rec.Kind), nil); ok && !rng.Contains(date) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

func scopeFieldsFor(kind domain.ScopeKind) []string {
	switch kind {
	case domain.ScopeWarehouse:
		return WarehouseIDFields
	case domain.ScopeCouncil:
		return CouncilIDFields
	case domain.ScopeSchool:
		return SchoolIDFields
	}
	return WarehouseIDFields
}

func (a *Assembler) inventoryReport(inventory []domain.Record, audit *Audit) *domain.InventoryReport {
	rep := &domain.InventoryReport{
		TotalItems: len(inventory),
		TotalValue: decimal.Zero,
		Categories: []domain.KeyBucket{},
	}

	for _, rec := range inventory {
		onHand := ResolveNumber(rec.Data, OnHandFields, 0, audit)
		if onHand < 0 {
			onHand = 0
		}
		rep.TotalUnits += onHand

		if cost, ok := lookupNumber(rec.Data, UnitCostFields); ok {
			rep.TotalValue = rep.TotalValue.Add(decimal.NewFromFloat(cost).Mul(decimal.NewFromFloat(onHand)))
		}

		minLevel := ResolveNumber(rec.Data, MinimumStockFields, 0, nil)
		if onHand < minLevel {
			rep.LowStock++
		}
	}

	rep.Categories = AggregateByCategory(inventory, audit)
	return rep
}

func (a *Assembler) distributionReport(distributions []domain.Record, audit *Audit) *domain.DistributionReport {
	rep := &domain.DistributionReport{
		Total:        len(distributions),
		Monthly:      AggregateByMonth(distributions, DistributionDateFields, audit),
		Categories:   AggregateByCategory(distributions, audit),
		Destinations: AggregateByDestination(distributions, a.cfg.TopN, audit),
		SchoolTypes:  AggregateBySchoolType(distributions, a.cfg.TopN, audit),
	}
	rep.TotalUnits = sumQuantities(distributions, audit)
	return rep
}

func (a *Assembler) shipmentReport(shipments []domain.Record, audit *Audit) *domain.ShipmentReport {
	rep := &domain.ShipmentReport{
		Total:     len(shipments),
		Monthly:   AggregateByMonth(shipments, ShipmentDateFields, audit),
		Suppliers: AggregateBySupplier(shipments, a.cfg.TopN, audit),
	}
	rep.TotalUnits = sumQuantities(shipments, audit)
	for _, rec := range shipments {
		if ResolveBool(rec.Data, discrepancyFields, false, nil) {
			rep.Discrepancies++
		}
	}
	return rep
}

func (a *Assembler) receiptReport(receipts []domain.Record, audit *Audit) *domain.ReceiptReport {
	rep := &domain.ReceiptReport{
		Total:   len(receipts),
		Monthly: AggregateByMonth(receipts, ReceiptDateFields, audit),
		Sources: AggregateBySupplier(receipts, a.cfg.TopN, audit),
	}
	rep.TotalUnits = sumQuantities(receipts, audit)
	return rep
}

func (a *Assembler) performance(scope domain.Scope, inventory, distributions, shipments, receipts []domain.Record, totalSchools int, audit *Audit) domain.PerformanceMetrics {
	var unitsInStock float64
	for _, rec := range inventory {
		if onHand := ResolveNumber(rec.Data, OnHandFields, 0, nil); onHand > 0 {
			unitsInStock += onHand
		}
	}

	// Processing time is measured over the collection that moves at this
	// scope: outbound shipments for warehouses, distributions for councils,
	// receipt confirmations for schools.
	processingSample := shipments
	switch scope.Kind {
	case domain.ScopeCouncil:
		processingSample = distributions
	case domain.ScopeSchool:
		processingSample = receipts
	}

	return domain.PerformanceMetrics{
		DistributionEfficiency: DistributionEfficiency(distributions),
		SchoolCoverage:         SchoolCoverage(distinctSchools(distributions), totalSchools),
		InventoryTurnover:      InventoryTurnover(sumQuantities(distributions, nil), unitsInStock),
		StockAccuracy:          StockAccuracy(inventory),
		DiscrepancyRate:        DiscrepancyRate(shipments),
		AvgProcessingDays:      AverageProcessingTime(processingSample, ProcessingStartFields, ProcessingEndFields, a.cfg.DefaultProcessingDays),
	}
}

func sumQuantities(records []domain.Record, audit *Audit) float64 {
	var total float64
	for _, rec := range records {
		total += ResolveRecordTotals(rec, audit).Quantity
	}
	return total
}

// distinctSchools counts the distinct destination schools of a distribution
// set, preferring the explicit school id over the destination name.
func distinctSchools(distributions []domain.Record) int {
	seen := make(map[string]bool)
	for _, rec := range distributions {
		id := ResolveString(rec.Data, SchoolIDFields, "", nil)
		if id == "" {
			id = normalizeName(ResolveString(rec.Data, DestinationFields, "", nil))
		}
		if id != "" {
			seen[id] = true
		}
	}
	return len(seen)
}

func auditSummary(audit *Audit) domain.AuditSummary {
	summary := domain.AuditSummary{
		MissingFields:     audit.MissingFields,
		UnparsableDates:   audit.UnparsableDates,
		UnclassifiedCount: audit.UnclassifiedCount,
	}
	for _, m := range audit.QuantityMismatches {
		summary.QuantityMismatches = append(summary.QuantityMismatches, domain.QuantityMismatch{
			RecordID: m.RecordID,
			Cached:   m.Cached,
			Computed: m.Computed,
		})
	}
	return summary
}
