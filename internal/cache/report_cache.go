// internal/cache/report_cache.go
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edusupply/backend-go/internal/config"
	"github.com/edusupply/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	reportKeyPrefix = "report:payload"
	reportScanBatch = 100
)

type ReportCache interface {
	GetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange) (*domain.ReportPayload, bool, error)
	SetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange, payload *domain.ReportPayload) error
	InvalidateAll(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange) (*domain.ReportPayload, bool, error) {
	key := buildReportKey(scope, rng)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var payload domain.ReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &payload, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange, payload *domain.ReportPayload) error {
	key := buildReportKey(scope, rng)
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, reportScanBatch)
}

func (n *noopReportCache) GetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange) (*domain.ReportPayload, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, scope domain.Scope, rng domain.DateRange, payload *domain.ReportPayload) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildReportKey(scope domain.Scope, rng domain.DateRange) string {
	parts := []string{"scope=" + string(scope.Kind)}
	if id := scope.ID(); id != "" {
		parts = append(parts, "id="+strings.TrimSpace(id))
	}
	if !rng.From.IsZero() {
		parts = append(parts, "from="+rng.From.Format("2006-01-02"))
	}
	if !rng.To.IsZero() {
		parts = append(parts, "to="+rng.To.Format("2006-01-02"))
	}

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", reportKeyPrefix, hex.EncodeToString(sum[:]))
}
