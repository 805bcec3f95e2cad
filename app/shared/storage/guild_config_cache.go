package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"
)

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	HitRatio  float64
}

// CacheMetrics counts cache activity with atomic counters.
type CacheMetrics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func (m *CacheMetrics) RecordHit()      { m.hits.Add(1) }
func (m *CacheMetrics) RecordMiss()     { m.misses.Add(1) }
func (m *CacheMetrics) RecordEviction() { m.evictions.Add(1) }

func (m *CacheMetrics) Stats() CacheStats {
	hits, misses := m.hits.Load(), m.misses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return CacheStats{Hits: hits, Misses: misses, Evictions: m.evictions.Load(), HitRatio: ratio}
}

// GuildConfigCache keeps recently used guild configurations in a bigcache
// instance. Entries expire after the life window.
type GuildConfigCache struct {
	cache   *bigcache.BigCache
	metrics *CacheMetrics
}

// NewGuildConfigCache creates a cache whose entries live for window.
func NewGuildConfigCache(ctx context.Context, window time.Duration) (*GuildConfigCache, error) {
	if window <= 0 {
		window = 10 * time.Minute
	}
	metrics := &CacheMetrics{}

	cfg := bigcache.DefaultConfig(window)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 256
	cfg.CleanWindow = window / 2
	cfg.Verbose = false
	cfg.OnRemoveWithReason = func(_ string, _ []byte, reason bigcache.RemoveReason) {
		if reason != bigcache.Deleted {
			metrics.RecordEviction()
		}
	}

	bc, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild config cache: %w", err)
	}
	return &GuildConfigCache{cache: bc, metrics: metrics}, nil
}

func (c *GuildConfigCache) Get(guildID string) (*GuildConfig, bool) {
	data, err := c.cache.Get(guildID)
	if err != nil {
		c.metrics.RecordMiss()
		return nil, false
	}
	var cfg GuildConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		_ = c.cache.Delete(guildID)
		c.metrics.RecordMiss()
		return nil, false
	}
	c.metrics.RecordHit()
	return &cfg, true
}

func (c *GuildConfigCache) Set(cfg *GuildConfig) error {
	if cfg == nil || cfg.GuildID == "" {
		return errors.New("guild id is required")
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal guild config: %w", err)
	}
	return c.cache.Set(cfg.GuildID, data)
}

func (c *GuildConfigCache) Delete(guildID string) error {
	if err := c.cache.Delete(guildID); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("failed to delete guild config %s: %w", guildID, err)
	}
	return nil
}

func (c *GuildConfigCache) Len() int { return c.cache.Len() }

func (c *GuildConfigCache) Stats() CacheStats { return c.metrics.Stats() }

func (c *GuildConfigCache) Close() error { return c.cache.Close() }
