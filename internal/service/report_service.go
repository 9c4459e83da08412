// internal/service/report_service.go
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/edusupply/backend-go/internal/cache"
	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/report"
	"github.com/edusupply/backend-go/internal/repository"
)

// ReportService serves assembled report payloads, cache-first. The record
// collections for one request are fetched in parallel; assembly itself is
// synchronous and stateless.
type ReportService struct {
	repo      repository.RecordRepository
	cache     cache.ReportCache
	assembler *report.Assembler
}

func NewReportService(repo repository.RecordRepository, cacheImpl cache.ReportCache, assembler *report.Assembler) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &ReportService{repo: repo, cache: cacheImpl, assembler: assembler}
}

func (s *ReportService) GetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange) (*domain.ReportPayload, error) {
	if payload, ok, err := s.cache.GetReport(ctx, scope, rng); err == nil && ok {
		return payload, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("report: cache get failed")
	}

	cols, err := s.fetchCollections(ctx, scope, rng)
	if err != nil {
		return nil, err
	}

	payload := s.assembler.Assemble(scope, rng, cols)

	if err := s.cache.SetReport(ctx, scope, rng, &payload); err != nil {
		log.Warn().Err(err).Msg("report: cache set failed")
	}

	return &payload, nil
}

// InvalidateCache drops every cached payload; the ingest flow calls this
// after loading new records.
func (s *ReportService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// fetchCollections loads the four record kinds and the school denominator in
// parallel. Any single failure aborts the whole fetch; a partial report
// would silently under-count.
func (s *ReportService) fetchCollections(ctx context.Context, scope domain.Scope, rng domain.DateRange) (report.Collections, error) {
	var cols report.Collections

	g, gctx := errgroup.WithContext(ctx)

	fetch := func(kind domain.RecordKind, dst *[]domain.Record) func() error {
		return func() error {
			records, err := s.repo.ListRecords(gctx, kind, scope, rng)
			if err != nil {
				return fmt.Errorf("fetching %s records: %w", kind, err)
			}
			*dst = records
			return nil
		}
	}

	g.Go(fetch(domain.KindInventory, &cols.Inventory))
	g.Go(fetch(domain.KindDistribution, &cols.Distributions))
	g.Go(fetch(domain.KindShipment, &cols.Shipments))
	g.Go(fetch(domain.KindReceipt, &cols.Receipts))
	g.Go(func() error {
		total, err := s.repo.CountSchools(gctx, scope)
		if err != nil {
			return fmt.Errorf("counting schools: %w", err)
		}
		cols.TotalSchools = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return report.Collections{}, err
	}

	return cols, nil
}
