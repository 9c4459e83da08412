// internal/domain/flow.go
package domain

import "strings"

// StageType identifies the tier a flow stage belongs to.
type StageType string

const (
	StageWarehouse StageType = "warehouse"
	StageCouncil   StageType = "council"
	StageSchool    StageType = "school"
)

// StageStatus is the operational state of a stage.
type StageStatus string

const (
	StageStatusNormal   StageStatus = "normal"
	StageStatusWarning  StageStatus = "warning"
	StageStatusCritical StageStatus = "critical"
)

// ConnectionStatus is the operational state of a directed edge.
type ConnectionStatus string

const (
	ConnectionActive  ConnectionStatus = "active"
	ConnectionDelayed ConnectionStatus = "delayed"
	ConnectionBlocked ConnectionStatus = "blocked"
)

// BottleneckLevel grades how constrained a connection is.
type BottleneckLevel string

const (
	BottleneckNone     BottleneckLevel = "none"
	BottleneckMinor    BottleneckLevel = "minor"
	BottleneckMajor    BottleneckLevel = "major"
	BottleneckCritical BottleneckLevel = "critical"
)

// Severity is the overall grading of a flow analysis.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// StageMetrics carries the derived metrics of a stage.
type StageMetrics struct {
	ItemCount       int     `json:"item_count"`
	ProcessingTime  float64 `json:"processing_time"` // days
	Efficiency      float64 `json:"efficiency"`      // percent
	BottleneckScore float64 `json:"bottleneck_score"`
}

// StageActivity is the recent movement through a stage.
type StageActivity struct {
	Inbound  int `json:"inbound"`
	Outbound int `json:"outbound"`
	Pending  int `json:"pending"`
}

// FlowStage is a node in the supply-chain graph.
type FlowStage struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Type           StageType     `json:"type"`
	Status         StageStatus   `json:"status"`
	Metrics        StageMetrics  `json:"metrics"`
	RecentActivity StageActivity `json:"recent_activity"`
}

// FlowConnection is a directed edge between two stages.
type FlowConnection struct {
	FromID          string           `json:"from_id"`
	ToID            string           `json:"to_id"`
	Status          ConnectionStatus `json:"status"`
	Volume          float64          `json:"volume"`
	AvgTransitTime  float64          `json:"avg_transit_time"` // days
	BottleneckLevel BottleneckLevel  `json:"bottleneck_level"`
}

// FlowSnapshot is one consistent view of the supply-chain graph, rebuilt on
// every refresh cycle.
type FlowSnapshot struct {
	Stages      []FlowStage      `json:"stages"`
	Connections []FlowConnection `json:"connections"`
}

// StageAssessment is a stage plus its bottleneck classification.
type StageAssessment struct {
	FlowStage
	Bottleneck bool `json:"bottleneck"`
}

// ConnectionAssessment is a connection plus its bottleneck classification.
type ConnectionAssessment struct {
	FlowConnection
	Bottleneck bool `json:"bottleneck"`
}

// FlowMetrics aggregates the whole graph.
type FlowMetrics struct {
	TotalVolume     float64 `json:"total_volume"`
	AvgEfficiency   float64 `json:"avg_efficiency"`
	AvgTransitTime  float64 `json:"avg_transit_time"`
	BottleneckCount int     `json:"bottleneck_count"`
}

// FlowAnalysis is the classification result for one snapshot.
type FlowAnalysis struct {
	Stages      []StageAssessment      `json:"stages"`
	Connections []ConnectionAssessment `json:"connections"`
	Overall     FlowMetrics            `json:"overall_metrics"`
	Severity    Severity               `json:"severity"`
}

// ParseBottleneckLevel returns the level for a label (case-insensitive).
func ParseBottleneckLevel(label string) (BottleneckLevel, bool) {
	switch BottleneckLevel(strings.ToLower(strings.TrimSpace(label))) {
	case BottleneckNone:
		return BottleneckNone, true
	case BottleneckMinor:
		return BottleneckMinor, true
	case BottleneckMajor:
		return BottleneckMajor, true
	case BottleneckCritical:
		return BottleneckCritical, true
	}
	return "", false
}
