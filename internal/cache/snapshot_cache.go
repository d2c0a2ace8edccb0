package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/partsight/internal/config"
	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "partsight:snapshot"

// SnapshotCache keeps loaded input snapshots for a short TTL. Computed
// forecasts are never cached.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, source string, asOf time.Time) (*domain.Snapshot, bool, error)
	SetSnapshot(ctx context.Context, source string, asOf time.Time, snapshot *domain.Snapshot) error
	InvalidateAll(ctx context.Context) (int, error)
}

type redisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSnapshotCache struct{}

func NewSnapshotCache(cfg config.CacheConfig) (SnapshotCache, error) {
	if !cfg.Enabled {
		return &noopSnapshotCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSnapshotCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSnapshotCache() SnapshotCache {
	return &noopSnapshotCache{}
}

func (c *redisSnapshotCache) GetSnapshot(ctx context.Context, source string, asOf time.Time) (*domain.Snapshot, bool, error) {
	key := buildSnapshotKey(source, asOf)

	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode snapshot cache: %w", err)
	}

	return &snapshot, true, nil
}

func (c *redisSnapshotCache) SetSnapshot(ctx context.Context, source string, asOf time.Time, snapshot *domain.Snapshot) error {
	key := buildSnapshotKey(source, asOf)
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSnapshotCache) InvalidateAll(ctx context.Context) (int, error) {
	return deleteKeysWithPrefix(ctx, c.client, snapshotKeyPrefix, scanBatchSize)
}

func (n *noopSnapshotCache) GetSnapshot(ctx context.Context, source string, asOf time.Time) (*domain.Snapshot, bool, error) {
	return nil, false, nil
}

func (n *noopSnapshotCache) SetSnapshot(ctx context.Context, source string, asOf time.Time, snapshot *domain.Snapshot) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

// buildSnapshotKey scopes entries by source and by the UTC day of asOf, so
// requests on the same day share one read.
func buildSnapshotKey(source string, asOf time.Time) string {
	day := asOf.UTC().Format("2006-01-02")
	return fmt.Sprintf("%s:%s:%s", snapshotKeyPrefix, sourceHash(source), day)
}

func sourceHash(source string) string {
	normalized := strings.TrimSpace(source)
	if normalized == "" {
		return "default"
	}
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
