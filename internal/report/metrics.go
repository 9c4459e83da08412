// internal/report/metrics.go
package report

import (
	"strings"

	"github.com/edusupply/backend-go/internal/domain"
)

// completionStatuses is the set of statuses that count a distribution as
// successfully finished (case-insensitive).
var completionStatuses = map[string]bool{
	"completed": true,
	"delivered": true,
	"confirmed": true,
	"received":  true,
}

var discrepancyFields = []string{"hasDiscrepancies", "has_discrepancies", "discrepancyFlag", "discrepancy_flag"}

// maxProcessingDays is both the outlier-rejection window and the clamp
// ceiling for duration metrics.
const maxProcessingDays = 365.0

// CompletionCount counts the records whose status falls in the completion
// set (case-insensitive).
func CompletionCount(records []domain.Record) int {
	completed := 0
	for _, rec := range records {
		status := ResolveString(rec.Data, StatusFields, "", nil)
		if completionStatuses[strings.ToLower(status)] {
			completed++
		}
	}
	return completed
}

// DistributionEfficiency is the percentage of distributions whose status
// falls in the completion set. Empty input yields 0.
func DistributionEfficiency(distributions []domain.Record) float64 {
	if len(distributions) == 0 {
		return 0
	}
	return clampRate(float64(CompletionCount(distributions)) / float64(len(distributions)) * 100)
}

// SchoolCoverage is the percentage of schools served; 0 when totalSchools is
// 0 rather than undefined.
func SchoolCoverage(served, totalSchools int) float64 {
	if totalSchools <= 0 {
		return 0
	}
	return clampRate(float64(served) / float64(totalSchools) * 100)
}

// InventoryTurnover relates distributed units to units in stock; 0 when the
// stock denominator is 0.
func InventoryTurnover(distributedUnits, unitsInStock float64) float64 {
	if unitsInStock <= 0 {
		return 0
	}
	return clampRate(distributedUnits / unitsInStock * 100)
}

// StockAccuracy is the percentage of inventory items whose on-hand quantity
// is non-negative and at or above the item's minimum stock level.
func StockAccuracy(inventory []domain.Record) float64 {
	if len(inventory) == 0 {
		return 0
	}

	accurate := 0
	for _, rec := range inventory {
		onHand := ResolveNumber(rec.Data, OnHandFields, 0, nil)
		minLevel := ResolveNumber(rec.Data, MinimumStockFields, 0, nil)
		if onHand >= 0 && onHand >= minLevel {
			accurate++
		}
	}

	return clampRate(float64(accurate) / float64(len(inventory)) * 100)
}

// DiscrepancyRate is the percentage of shipments flagged with
// discrepancies.
func DiscrepancyRate(shipments []domain.Record) float64 {
	if len(shipments) == 0 {
		return 0
	}

	flagged := 0
	for _, rec := range shipments {
		if ResolveBool(rec.Data, discrepancyFields, false, nil) {
			flagged++
		}
	}

	return clampRate(float64(flagged) / float64(len(shipments)) * 100)
}

// AverageProcessingTime is the mean duration in days between the resolved
// start and end dates, over records where both are present and the duration
// falls in (0, 365). Records missing an end date are excluded; start dates
// fall back down the candidate chain (ending at the creation timestamp).
// Returns def when the sample is empty.
func AverageProcessingTime(records []domain.Record, startCandidates, endCandidates []string, def float64) float64 {
	var total float64
	samples := 0

	for _, rec := range records {
		start, ok := ResolveDate(rec.Data, startCandidates, nil)
		if !ok {
			continue
		}
		end, ok := ResolveDate(rec.Data, endCandidates, nil)
		if !ok {
			continue
		}

		days := end.Sub(start).Hours() / 24
		if days <= 0 || days >= maxProcessingDays {
			continue
		}

		total += days
		samples++
	}

	if samples == 0 {
		return clampDays(def)
	}

	return clampDays(total / float64(samples))
}

// clampRate bounds a percentage to [0, 100] so malformed input never leaks
// out-of-range rates into rendered output.
func clampRate(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clampDays bounds a duration metric to [0, 365].
func clampDays(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxProcessingDays {
		return maxProcessingDays
	}
	return v
}
