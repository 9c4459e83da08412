// internal/service/flow_service.go
package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/flow"
	"github.com/edusupply/backend-go/internal/repository"
)

// FlowService builds the supply-chain graph across all scopes and runs the
// bottleneck analysis over it. Each call rebuilds the snapshot from scratch.
type FlowService struct {
	repo repository.RecordRepository
}

func NewFlowService(repo repository.RecordRepository) *FlowService {
	return &FlowService{repo: repo}
}

func (s *FlowService) GetFlowAnalysis(ctx context.Context, rng domain.DateRange) (*domain.FlowAnalysis, error) {
	snapshot, err := s.BuildSnapshot(ctx, rng)
	if err != nil {
		return nil, err
	}

	analysis := flow.Analyze(*snapshot)
	return &analysis, nil
}

// BuildSnapshot fetches the movement collections without a scope filter and
// derives the stage graph from them.
func (s *FlowService) BuildSnapshot(ctx context.Context, rng domain.DateRange) (*domain.FlowSnapshot, error) {
	var recs flow.Records

	g, gctx := errgroup.WithContext(ctx)

	fetch := func(kind domain.RecordKind, dst *[]domain.Record) func() error {
		return func() error {
			records, err := s.repo.ListRecords(gctx, kind, domain.Scope{}, rng)
			if err != nil {
				return fmt.Errorf("fetching %s records: %w", kind, err)
			}
			*dst = records
			return nil
		}
	}

	g.Go(fetch(domain.KindDistribution, &recs.Distributions))
	g.Go(fetch(domain.KindShipment, &recs.Shipments))
	g.Go(fetch(domain.KindReceipt, &recs.Receipts))

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := flow.BuildSnapshot(recs)
	return &snapshot, nil
}
