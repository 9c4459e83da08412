// internal/flow/builder.go
package flow

import (
	"fmt"
	"sort"

	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/report"
)

// Stage name candidate chains. The id chains live in the report package next
// to the other resolver chains.
var (
	warehouseNameFields = []string{"warehouseName", "warehouse_name"}
	councilNameFields   = []string{"councilName", "council_name", "destinationName", "destination_name"}
	schoolNameFields    = []string{"schoolName", "school_name", "destinationName", "destination_name"}
)

// Builder thresholds: stage status from score and efficiency, connection
// status from the completed fraction, bottleneck level from transit days.
const (
	criticalScore       = 0.7
	warningScore        = 0.4
	warningEfficiency   = 70.0
	delayedRatio        = 0.6
	minorTransitDays    = 3.0
	majorTransitDays    = 7.0
	criticalTransitDays = 14.0
)

// Records is the raw material one snapshot is built from: the movement
// collections across all scopes, already restricted to the requested date
// range by the fetch layer.
type Records struct {
	Distributions []domain.Record
	Shipments     []domain.Record
	Receipts      []domain.Record
}

// BuildSnapshot derives the supply-chain graph from the movement records.
// Warehouses receive shipments and send distributions, councils receive
// distributions and confirm receipts onward, schools confirm receipts.
// Stage ids are tier-prefixed so identifiers from different upstream systems
// never collide. Output ordering is deterministic.
func BuildSnapshot(recs Records) domain.FlowSnapshot {
	shipmentsByWarehouse := groupByField(recs.Shipments, report.WarehouseIDFields)
	distributionsByWarehouse := groupByField(recs.Distributions, report.WarehouseIDFields)
	distributionsByCouncil := groupByField(recs.Distributions, report.CouncilIDFields)
	receiptsByCouncil := groupByField(recs.Receipts, report.CouncilIDFields)
	receiptsBySchool := groupByField(recs.Receipts, report.SchoolIDFields)

	var stages []domain.FlowStage

	for _, id := range unionKeys(shipmentsByWarehouse, distributionsByWarehouse) {
		inbound := shipmentsByWarehouse[id]
		outbound := distributionsByWarehouse[id]
		stages = append(stages, buildStage(
			domain.StageWarehouse, id,
			stageName(warehouseNameFields, inbound, outbound),
			inbound, outbound, outbound,
		))
	}

	for _, id := range unionKeys(distributionsByCouncil, receiptsByCouncil) {
		inbound := distributionsByCouncil[id]
		outbound := receiptsByCouncil[id]
		stages = append(stages, buildStage(
			domain.StageCouncil, id,
			stageName(councilNameFields, inbound, outbound),
			inbound, outbound, outbound,
		))
	}

	for _, id := range unionKeys(receiptsBySchool) {
		inbound := receiptsBySchool[id]
		stages = append(stages, buildStage(
			domain.StageSchool, id,
			stageName(schoolNameFields, inbound, nil),
			inbound, nil, inbound,
		))
	}

	sortStages(stages)

	connections := buildConnections(recs.Distributions, domain.StageWarehouse, domain.StageCouncil, report.WarehouseIDFields, report.CouncilIDFields)
	connections = append(connections, buildConnections(recs.Receipts, domain.StageCouncil, domain.StageSchool, report.CouncilIDFields, report.SchoolIDFields)...)
	sort.Slice(connections, func(i, j int) bool {
		if connections[i].FromID != connections[j].FromID {
			return connections[i].FromID < connections[j].FromID
		}
		return connections[i].ToID < connections[j].ToID
	})

	return domain.FlowSnapshot{Stages: stages, Connections: connections}
}

// buildStage derives one node. Pending counts the inbound movements whose
// status has not reached completion; the moving collection feeds the
// processing-time and efficiency metrics.
func buildStage(stageType domain.StageType, id, name string, inbound, outbound, moving []domain.Record) domain.FlowStage {
	pending := len(inbound) - report.CompletionCount(inbound)
	total := len(inbound) + len(outbound)

	score := 0.0
	if total > 0 {
		score = float64(pending) / float64(total)
	}

	efficiency := report.DistributionEfficiency(moving)

	return domain.FlowStage{
		ID:     stageID(stageType, id),
		Name:   name,
		Type:   stageType,
		Status: stageStatus(score, efficiency, total),
		Metrics: domain.StageMetrics{
			ItemCount:       total,
			ProcessingTime:  report.AverageProcessingTime(moving, report.ProcessingStartFields, report.ProcessingEndFields, 0),
			Efficiency:      efficiency,
			BottleneckScore: score,
		},
		RecentActivity: domain.StageActivity{
			Inbound:  len(inbound),
			Outbound: len(outbound),
			Pending:  pending,
		},
	}
}

func stageStatus(score, efficiency float64, total int) domain.StageStatus {
	if total == 0 {
		return domain.StageStatusNormal
	}
	if score >= criticalScore {
		return domain.StageStatusCritical
	}
	if score > warningScore || efficiency < warningEfficiency {
		return domain.StageStatusWarning
	}
	return domain.StageStatusNormal
}

// buildConnections groups movement records by their (from, to) id pair and
// derives one edge per pair. Records missing either id are skipped; they
// still count toward the stages they do identify.
func buildConnections(records []domain.Record, fromType, toType domain.StageType, fromFields, toFields []string) []domain.FlowConnection {
	type pair struct{ from, to string }
	groups := make(map[pair][]domain.Record)

	for _, rec := range records {
		from := report.ResolveString(rec.Data, fromFields, "", nil)
		to := report.ResolveString(rec.Data, toFields, "", nil)
		if from == "" || to == "" {
			continue
		}
		key := pair{from: from, to: to}
		groups[key] = append(groups[key], rec)
	}

	connections := make([]domain.FlowConnection, 0, len(groups))
	for key, group := range groups {
		var volume float64
		for _, rec := range group {
			volume += report.ResolveRecordTotals(rec, nil).Quantity
		}

		transit := report.AverageProcessingTime(group, report.ProcessingStartFields, report.ProcessingEndFields, 0)
		completedRatio := float64(report.CompletionCount(group)) / float64(len(group))

		connections = append(connections, domain.FlowConnection{
			FromID:          stageID(fromType, key.from),
			ToID:            stageID(toType, key.to),
			Status:          connectionStatus(completedRatio),
			Volume:          volume,
			AvgTransitTime:  transit,
			BottleneckLevel: transitLevel(transit),
		})
	}

	return connections
}

func connectionStatus(completedRatio float64) domain.ConnectionStatus {
	switch {
	case completedRatio == 0:
		return domain.ConnectionBlocked
	case completedRatio < delayedRatio:
		return domain.ConnectionDelayed
	default:
		return domain.ConnectionActive
	}
}

func transitLevel(days float64) domain.BottleneckLevel {
	switch {
	case days >= criticalTransitDays:
		return domain.BottleneckCritical
	case days >= majorTransitDays:
		return domain.BottleneckMajor
	case days >= minorTransitDays:
		return domain.BottleneckMinor
	default:
		return domain.BottleneckNone
	}
}

func stageID(stageType domain.StageType, id string) string {
	return fmt.Sprintf("%s:%s", stageType, id)
}

// stageName resolves a display name from the first record that carries one,
// falling back to the empty string (callers render the id then).
func stageName(fields []string, collections ...[]domain.Record) string {
	for _, records := range collections {
		for _, rec := range records {
			if name := report.ResolveString(rec.Data, fields, "", nil); name != "" {
				return name
			}
		}
	}
	return ""
}

func groupByField(records []domain.Record, fields []string) map[string][]domain.Record {
	groups := make(map[string][]domain.Record)
	for _, rec := range records {
		if id := report.ResolveString(rec.Data, fields, "", nil); id != "" {
			groups[id] = append(groups[id], rec)
		}
	}
	return groups
}

func unionKeys(groups ...map[string][]domain.Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, group := range groups {
		for key := range group {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

var stageOrder = map[domain.StageType]int{
	domain.StageWarehouse: 0,
	domain.StageCouncil:   1,
	domain.StageSchool:    2,
}

func sortStages(stages []domain.FlowStage) {
	sort.Slice(stages, func(i, j int) bool {
		if stages[i].Type != stages[j].Type {
			return stageOrder[stages[i].Type] < stageOrder[stages[j].Type]
		}
		return stages[i].ID < stages[j].ID
	})
}
