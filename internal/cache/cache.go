// Package cache keeps per-project scoring configuration and ranked
// recommendation lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/selection"

	"github.com/redis/go-redis/v9"
)

const (
	configKeyPrefix = "scoring:config:"
	recsKeyPrefix   = "selection:recs:"
)

type Cache struct {
	client    *redis.Client
	configTTL time.Duration
	recsTTL   time.Duration
}

func New(client *redis.Client, configTTL, recsTTL time.Duration) *Cache {
	return &Cache{client: client, configTTL: configTTL, recsTTL: recsTTL}
}

func ConfigKey(projectID string) string { return configKeyPrefix + projectID }

func RecommendationsKey(projectID string) string { return recsKeyPrefix + projectID }

// GetProjectItems returns the cached items of a project. A miss reports
// found=false with a nil error.
func (c *Cache) GetProjectItems(ctx context.Context, projectID string) ([]models.ProjectItem, bool, error) {
	var items []models.ProjectItem
	found, err := c.get(ctx, ConfigKey(projectID), &items)
	if err != nil || !found {
		return nil, found, err
	}
	return items, true, nil
}

func (c *Cache) SetProjectItems(ctx context.Context, projectID string, items []models.ProjectItem) error {
	return c.set(ctx, ConfigKey(projectID), items, c.configTTL)
}

func (c *Cache) GetRecommendations(ctx context.Context, projectID string) (*selection.RankedList, bool, error) {
	var list selection.RankedList
	found, err := c.get(ctx, RecommendationsKey(projectID), &list)
	if err != nil || !found {
		return nil, found, err
	}
	return &list, true, nil
}

func (c *Cache) SetRecommendations(ctx context.Context, projectID string, list *selection.RankedList) error {
	return c.set(ctx, RecommendationsKey(projectID), list, c.recsTTL)
}

// InvalidateScoring drops both cached entries of a project. It runs after
// criteria, weights or scores change.
func (c *Cache) InvalidateScoring(ctx context.Context, projectID string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, ConfigKey(projectID), RecommendationsKey(projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate project %s: %w", projectID, err)
	}
	return nil
}

// InvalidateRecommendations drops only the ranked list of a project.
func (c *Cache) InvalidateRecommendations(ctx context.Context, projectID string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, RecommendationsKey(projectID)).Err(); err != nil {
		return fmt.Errorf("invalidate recommendations %s: %w", projectID, err)
	}
	return nil
}

// ItemLoader reads project items from PostgreSQL.
type ItemLoader func(ctx context.Context, projectID string) ([]models.ProjectItem, error)

// ListBuilder ranks a project from persisted scores.
type ListBuilder func(ctx context.Context, projectID string) (*selection.RankedList, error)

// ProjectItems is a read-through lookup of a project's scoring items. A nil
// cache or a Redis failure falls through to load.
func (c *Cache) ProjectItems(ctx context.Context, projectID string, load ItemLoader) ([]models.ProjectItem, error) {
	if c == nil {
		return load(ctx, projectID)
	}
	items, found, err := c.GetProjectItems(ctx, projectID)
	metrics.CacheLookups.WithLabelValues("scoring_config", metrics.CacheOutcome(found, err)).Inc()
	if found {
		return items, nil
	}
	items, err = load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	_ = c.SetProjectItems(ctx, projectID, items)
	return items, nil
}

// Recommendations is the read-through lookup of a project's ranked list.
func (c *Cache) Recommendations(ctx context.Context, projectID string, build ListBuilder) (*selection.RankedList, bool, error) {
	if c == nil {
		list, err := build(ctx, projectID)
		return list, false, err
	}
	list, found, err := c.GetRecommendations(ctx, projectID)
	metrics.CacheLookups.WithLabelValues("recommendations", metrics.CacheOutcome(found, err)).Inc()
	if found {
		return list, true, nil
	}
	list, err = build(ctx, projectID)
	if err != nil {
		return nil, false, err
	}
	_ = c.SetRecommendations(ctx, projectID, list)
	return list, false, nil
}

func (c *Cache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		// a stale payload from an older layout is treated as a miss
		return false, nil
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
