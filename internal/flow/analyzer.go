// internal/flow/analyzer.go
package flow

import (
	"github.com/edusupply/backend-go/internal/domain"
)

// Classification thresholds. A stage is a bottleneck above the score
// threshold (exclusive) or when pending work piles up while efficiency is
// low.
const (
	stageScoreThreshold      = 0.4
	stagePendingThreshold    = 10
	stageEfficiencyThreshold = 70.0
)

// Analyze classifies every stage and connection of a snapshot and grades the
// overall severity. The input graph is never mutated; callers re-run Analyze
// on every refresh cycle instead of maintaining incremental state — at tens
// of stages a full pass is cheap.
func Analyze(snapshot domain.FlowSnapshot) domain.FlowAnalysis {
	analysis := domain.FlowAnalysis{
		Stages:      make([]domain.StageAssessment, 0, len(snapshot.Stages)),
		Connections: make([]domain.ConnectionAssessment, 0, len(snapshot.Connections)),
		Severity:    domain.SeverityNone,
	}

	critical := false
	anyBottleneck := false

	for _, stage := range snapshot.Stages {
		bottleneck := StageIsBottleneck(stage)
		analysis.Stages = append(analysis.Stages, domain.StageAssessment{
			FlowStage:  stage,
			Bottleneck: bottleneck,
		})
		if bottleneck {
			anyBottleneck = true
			analysis.Overall.BottleneckCount++
			if stage.Status == domain.StageStatusCritical {
				critical = true
			}
		}
	}

	for _, conn := range snapshot.Connections {
		bottleneck := ConnectionIsBottleneck(conn)
		analysis.Connections = append(analysis.Connections, domain.ConnectionAssessment{
			FlowConnection: conn,
			Bottleneck:     bottleneck,
		})
		if bottleneck {
			anyBottleneck = true
			analysis.Overall.BottleneckCount++
			if conn.BottleneckLevel == domain.BottleneckCritical {
				critical = true
			}
		}
	}

	analysis.Overall.TotalVolume, analysis.Overall.AvgEfficiency, analysis.Overall.AvgTransitTime = overallMetrics(snapshot)

	switch {
	case critical:
		analysis.Severity = domain.SeverityCritical
	case anyBottleneck:
		analysis.Severity = domain.SeverityModerate
	}

	return analysis
}

// StageIsBottleneck reports whether a single stage qualifies as a
// bottleneck: score strictly above 0.4, critical status, or more than 10
// pending movements while efficiency sits under 70%.
func StageIsBottleneck(stage domain.FlowStage) bool {
	if stage.Metrics.BottleneckScore > stageScoreThreshold {
		return true
	}
	if stage.Status == domain.StageStatusCritical {
		return true
	}
	return stage.RecentActivity.Pending > stagePendingThreshold &&
		stage.Metrics.Efficiency < stageEfficiencyThreshold
}

// ConnectionIsBottleneck reports whether an edge qualifies: a major or
// critical bottleneck level, or a blocked status regardless of level.
func ConnectionIsBottleneck(conn domain.FlowConnection) bool {
	if conn.Status == domain.ConnectionBlocked {
		return true
	}
	return conn.BottleneckLevel == domain.BottleneckMajor ||
		conn.BottleneckLevel == domain.BottleneckCritical
}

func overallMetrics(snapshot domain.FlowSnapshot) (totalVolume, avgEfficiency, avgTransit float64) {
	for _, conn := range snapshot.Connections {
		totalVolume += conn.Volume
		avgTransit += conn.AvgTransitTime
	}
	if n := len(snapshot.Connections); n > 0 {
		avgTransit /= float64(n)
	}

	for _, stage := range snapshot.Stages {
		avgEfficiency += stage.Metrics.Efficiency
	}
	if n := len(snapshot.Stages); n > 0 {
		avgEfficiency /= float64(n)
	}

	return totalVolume, avgEfficiency, avgTransit
}
