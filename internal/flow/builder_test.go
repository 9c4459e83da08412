// internal/flow/builder_test.go
package flow

import (
	"testing"

	"github.com/edusupply/backend-go/internal/domain"
)

func movement(id string, kind domain.RecordKind, data map[string]any) domain.Record {
	return domain.Record{ID: id, Kind: kind, Data: data}
}

func TestBuildSnapshotStages(t *testing.T) {
	recs := Records{
		Shipments: []domain.Record{
			movement("s1", domain.KindShipment, map[string]any{
				"warehouseId": "wh-1", "status": "completed", "quantity": 100.0,
			}),
			movement("s2", domain.KindShipment, map[string]any{
				"warehouseId": "wh-1", "status": "in_transit", "quantity": 40.0,
			}),
		},
		Distributions: []domain.Record{
			movement("d1", domain.KindDistribution, map[string]any{
				"warehouseId": "wh-1", "councilId": "c-1", "status": "delivered", "quantity": 60.0,
			}),
			movement("d2", domain.KindDistribution, map[string]any{
				"warehouseId": "wh-1", "councilId": "c-1", "status": "pending", "quantity": 20.0,
			}),
		},
		Receipts: []domain.Record{
			movement("r1", domain.KindReceipt, map[string]any{
				"councilId": "c-1", "schoolId": "sch-1", "status": "confirmed", "quantity": 55.0,
			}),
		},
	}

	snapshot := BuildSnapshot(recs)

	if got, want := len(snapshot.Stages), 3; got != want {
		t.Fatalf("stages = %d, want %d", got, want)
	}

	// Deterministic order: warehouse, council, school.
	wh := snapshot.Stages[0]
	if wh.ID != "warehouse:wh-1" || wh.Type != domain.StageWarehouse {
		t.Fatalf("first stage = %s (%s), want warehouse:wh-1", wh.ID, wh.Type)
	}
	if wh.RecentActivity.Inbound != 2 || wh.RecentActivity.Outbound != 2 {
		t.Errorf("warehouse activity = %+v, want 2 in / 2 out", wh.RecentActivity)
	}
	// One of two inbound shipments is still moving.
	if wh.RecentActivity.Pending != 1 {
		t.Errorf("warehouse pending = %d, want 1", wh.RecentActivity.Pending)
	}
	if got, want := wh.Metrics.BottleneckScore, 0.25; got != want {
		t.Errorf("warehouse score = %v, want %v", got, want)
	}

	council := snapshot.Stages[1]
	if council.ID != "council:c-1" || council.Type != domain.StageCouncil {
		t.Fatalf("second stage = %s (%s), want council:c-1", council.ID, council.Type)
	}
	if council.RecentActivity.Inbound != 2 || council.RecentActivity.Outbound != 1 {
		t.Errorf("council activity = %+v, want 2 in / 1 out", council.RecentActivity)
	}

	school := snapshot.Stages[2]
	if school.ID != "school:sch-1" || school.Type != domain.StageSchool {
		t.Fatalf("third stage = %s (%s), want school:sch-1", school.ID, school.Type)
	}
	if school.RecentActivity.Pending != 0 {
		t.Errorf("school pending = %d, want 0", school.RecentActivity.Pending)
	}
}

func TestBuildSnapshotConnections(t *testing.T) {
	recs := Records{
		Distributions: []domain.Record{
			movement("d1", domain.KindDistribution, map[string]any{
				"warehouseId": "wh-1", "councilId": "c-1", "status": "delivered", "quantity": 30.0,
			}),
			movement("d2", domain.KindDistribution, map[string]any{
				"warehouseId": "wh-1", "councilId": "c-1", "status": "delivered", "quantity": 20.0,
			}),
			movement("d3", domain.KindDistribution, map[string]any{
				"warehouseId": "wh-1", "councilId": "c-2", "status": "pending", "quantity": 10.0,
			}),
			// No council id: feeds the warehouse stage but no edge.
			movement("d4", domain.KindDistribution, map[string]any{
				"warehouseId": "wh-1", "status": "pending", "quantity": 5.0,
			}),
		},
		Receipts: []domain.Record{
			movement("r1", domain.KindReceipt, map[string]any{
				"councilId": "c-1", "schoolId": "sch-1", "status": "confirmed", "quantity": 25.0,
			}),
		},
	}

	snapshot := BuildSnapshot(recs)

	if got, want := len(snapshot.Connections), 3; got != want {
		t.Fatalf("connections = %d, want %d", got, want)
	}

	first := snapshot.Connections[0]
	if first.FromID != "council:c-1" || first.ToID != "school:sch-1" {
		t.Fatalf("first connection = %s -> %s", first.FromID, first.ToID)
	}
	if first.Status != domain.ConnectionActive {
		t.Errorf("confirmed receipt edge status = %s, want active", first.Status)
	}

	var toC1, toC2 domain.FlowConnection
	for _, conn := range snapshot.Connections[1:] {
		switch conn.ToID {
		case "council:c-1":
			toC1 = conn
		case "council:c-2":
			toC2 = conn
		}
	}

	if toC1.Volume != 50 {
		t.Errorf("wh-1 -> c-1 volume = %v, want 50", toC1.Volume)
	}
	if toC1.Status != domain.ConnectionActive {
		t.Errorf("fully delivered edge status = %s, want active", toC1.Status)
	}
	if toC2.Status != domain.ConnectionBlocked {
		t.Errorf("zero completed edge status = %s, want blocked", toC2.Status)
	}
}

func TestBuildSnapshotTransitLevels(t *testing.T) {
	cases := []struct {
		name     string
		dispatch string
		arrival  string
		want     domain.BottleneckLevel
	}{
		{"fast", "2025-03-01", "2025-03-02", domain.BottleneckNone},
		{"minor", "2025-03-01", "2025-03-05", domain.BottleneckMinor},
		{"major", "2025-03-01", "2025-03-09", domain.BottleneckMajor},
		{"critical", "2025-03-01", "2025-03-20", domain.BottleneckCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs := Records{
				Distributions: []domain.Record{
					movement("d1", domain.KindDistribution, map[string]any{
						"warehouseId":       "wh-1",
						"councilId":         "c-1",
						"status":            "delivered",
						"quantity":          10.0,
						"dispatchDate":      tc.dispatch,
						"actualArrivalDate": tc.arrival,
					}),
				},
			}

			snapshot := BuildSnapshot(recs)
			if len(snapshot.Connections) != 1 {
				t.Fatalf("connections = %d, want 1", len(snapshot.Connections))
			}
			if got := snapshot.Connections[0].BottleneckLevel; got != tc.want {
				t.Errorf("level = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestBuildSnapshotEmpty(t *testing.T) {
	snapshot := BuildSnapshot(Records{})
	if len(snapshot.Stages) != 0 || len(snapshot.Connections) != 0 {
		t.Fatalf("empty input produced %d stages, %d connections", len(snapshot.Stages), len(snapshot.Connections))
	}
}
