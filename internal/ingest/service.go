// internal/ingest/service.go
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/edusupply/backend-go/internal/cache"
	"github.com/edusupply/backend-go/internal/domain"
	"github.com/edusupply/backend-go/internal/repository"
	"github.com/edusupply/backend-go/internal/storage"
)

// recordIDKeys are the candidate identity fields of a raw upstream object.
var recordIDKeys = []string{"id", "recordId", "record_id", "uuid"}

// dump is the envelope format of one uploaded JSON object: a record kind,
// the raw records, and optionally the school master data refresh.
type dump struct {
	Kind    string           `json:"kind"`
	Records []map[string]any `json:"records"`
	Schools []schoolEntry    `json:"schools,omitempty"`
}

type schoolEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CouncilID string `json:"councilId"`
	Type      string `json:"type"`
}

// Result summarizes one ingest run.
type Result struct {
	Objects int `json:"objects"`
	Records int `json:"records"`
	Schools int `json:"schools"`
	Skipped int `json:"skipped"`
}

// Service pulls JSON dumps from object storage, normalizes them into records
// and loads them into the record store. Cached report payloads are dropped
// after a successful load so the next request sees the new data.
type Service struct {
	store  storage.ObjectStorage
	repo   repository.IngestRepository
	cache  cache.ReportCache
	prefix string
}

func NewService(store storage.ObjectStorage, repo repository.IngestRepository, cacheImpl cache.ReportCache, prefix string) *Service {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &Service{store: store, repo: repo, cache: cacheImpl, prefix: prefix}
}

// ListDumps returns the dump objects currently available under the
// configured prefix.
func (s *Service) ListDumps(ctx context.Context) ([]storage.ObjectInfo, error) {
	return s.store.ListObjects(ctx, s.prefix)
}

// ingestWorkers bounds how many dumps are processed concurrently; the DB
// pool has its own semaphore on top.
const ingestWorkers = 4

// IngestAll loads every JSON dump under the configured prefix, a bounded
// number at a time. Objects that are not JSON dumps are skipped; a failing
// dump aborts the run so a partial load never goes unnoticed.
func (s *Service) IngestAll(ctx context.Context) (*Result, error) {
	objects, err := s.store.ListObjects(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("listing dumps: %w", err)
	}

	var mu sync.Mutex
	total := &Result{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestWorkers)

	for _, object := range objects {
		if !strings.HasSuffix(object.Key, ".json") {
			continue
		}
		key := object.Key
		g.Go(func() error {
			result, err := s.ingestObject(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			total.Objects++
			total.Records += result.Records
			total.Schools += result.Schools
			total.Skipped += result.Skipped
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return total, nil
}

// IngestObject loads a single dump by key.
func (s *Service) IngestObject(ctx context.Context, key string) (*Result, error) {
	result, err := s.ingestObject(ctx, key)
	if err != nil {
		return nil, err
	}
	result.Objects = 1
	s.invalidate(ctx)
	return result, nil
}

func (s *Service) ingestObject(ctx context.Context, key string) (*Result, error) {
	raw, err := s.store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetching dump %s: %w", key, err)
	}

	var d dump
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decoding dump %s: %w", key, err)
	}

	kind, ok := domain.ParseRecordKind(d.Kind)
	if !ok {
		return nil, fmt.Errorf("dump %s has unknown record kind %q", key, d.Kind)
	}

	result := &Result{}

	records := make([]domain.Record, 0, len(d.Records))
	for _, payload := range d.Records {
		id := recordID(payload)
		if id == "" {
			result.Skipped++
			continue
		}
		records = append(records, domain.NewRecordFromPayload(id, kind, payload))
	}

	stored, err := s.repo.UpsertRecords(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("storing records of dump %s: %w", key, err)
	}
	result.Records = stored

	if len(d.Schools) > 0 {
		schools := make([]domain.School, 0, len(d.Schools))
		for _, entry := range d.Schools {
			if entry.ID == "" {
				result.Skipped++
				continue
			}
			schools = append(schools, domain.School{
				ID:        entry.ID,
				Name:      entry.Name,
				CouncilID: entry.CouncilID,
				Type:      entry.Type,
			})
		}
		storedSchools, err := s.repo.UpsertSchools(ctx, schools)
		if err != nil {
			return nil, fmt.Errorf("storing schools of dump %s: %w", key, err)
		}
		result.Schools = storedSchools
	}

	if result.Skipped > 0 {
		log.Warn().Str("key", key).Int("skipped", result.Skipped).Msg("ingest skipped entries without an id")
	}
	log.Info().Str("key", key).Str("kind", string(kind)).Int("records", result.Records).Int("schools", result.Schools).Msg("dump ingested")

	return result, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("ingest: cache invalidation failed")
	}
}

func recordID(payload map[string]any) string {
	for _, key := range recordIDKeys {
		if raw, ok := payload[key]; ok {
			switch v := raw.(type) {
			case string:
				if trimmed := strings.TrimSpace(v); trimmed != "" {
					return trimmed
				}
			case float64:
				return fmt.Sprintf("%.0f", v)
			case json.Number:
				return v.String()
			}
		}
	}
	return ""
}
