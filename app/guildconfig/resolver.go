package guildconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"golang.org/x/sync/singleflight"
)

// ConfigErrorMetrics tracks guild config resolution errors
type ConfigErrorMetrics struct {
	ErrorsByType  map[string]int64 `json:"errors_by_type"`
	ErrorsByGuild map[string]int64 `json:"errors_by_guild"`
	LastErrorTime time.Time        `json:"last_error_time"`
	TotalErrors   int64            `json:"total_errors"`
}

// Resolver serves guild configuration from the cache and falls back to the
// store. Concurrent lookups for the same guild share one store read.
type Resolver struct {
	store        storage.Store
	cache        *storage.GuildConfigCache
	config       *ResolverConfig
	logger       *slog.Logger
	inflight     singleflight.Group
	errorMetrics *ConfigErrorMetrics
	errorMutex   sync.RWMutex
}

var _ GuildConfigResolver = (*Resolver)(nil)

// NewResolver validates config and builds a resolver.
func NewResolver(store storage.Store, cache *storage.GuildConfigCache, config *ResolverConfig, logger *slog.Logger) (*Resolver, error) {
	if config == nil {
		config = DefaultResolverConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("guild config resolver configuration validation failed: %w", err)
	}
	if store == nil || cache == nil {
		return nil, errors.New("guild config resolver requires a store and a cache")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:        store,
		cache:        cache,
		config:       config,
		logger:       logger,
		errorMetrics: &ConfigErrorMetrics{ErrorsByType: make(map[string]int64), ErrorsByGuild: make(map[string]int64)},
	}, nil
}

// GetGuildConfigWithContext returns the guild's configuration. A guild that
// was never set up yields a ConfigNotFoundError; store failures yield a
// ConfigTemporaryError.
func (r *Resolver) GetGuildConfigWithContext(ctx context.Context, guildID string) (*storage.GuildConfig, error) {
	if guildID == "" {
		return nil, NewConfigNotFoundError(guildID, "interaction has no guild")
	}
	if cfg, ok := r.cache.Get(guildID); ok {
		return cfg, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, NewConfigTemporaryError(guildID, "request cancelled", err)
	}

	ch := r.inflight.DoChan(guildID, func() (any, error) {
		return r.load(context.WithoutCancel(ctx), guildID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.DebugContext(ctx, "Joined existing guild config lookup", attr.GuildID(guildID))
		}
		return res.Val.(*storage.GuildConfig), nil
	case <-ctx.Done():
		return nil, NewConfigTemporaryError(guildID, "request cancelled", ctx.Err())
	}
}

func (r *Resolver) load(ctx context.Context, guildID string) (*storage.GuildConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.RequestTimeout)
	defer cancel()

	cfg, err := r.store.GetGuildConfig(ctx, guildID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		r.recordError(ctx, guildID, "not_found")
		return nil, NewConfigNotFoundError(guildID, "guild has not been set up")
	case errors.Is(err, context.DeadlineExceeded):
		r.recordError(ctx, guildID, "timeout")
		return nil, NewConfigTemporaryError(guildID, "store lookup timed out", err)
	case err != nil:
		r.recordError(ctx, guildID, "store")
		r.logger.ErrorContext(ctx, "Failed to load guild config", attr.GuildID(guildID), attr.Error(err))
		return nil, NewConfigTemporaryError(guildID, "store lookup failed", err)
	}

	if err := r.cache.Set(cfg); err != nil {
		r.logger.WarnContext(ctx, "Failed to cache guild config", attr.GuildID(guildID), attr.Error(err))
	}
	return cfg, nil
}

// SaveGuildConfig persists cfg and refreshes the cached copy.
func (r *Resolver) SaveGuildConfig(ctx context.Context, cfg *storage.GuildConfig) error {
	if err := r.store.SaveGuildConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save guild config: %w", err)
	}
	if err := r.cache.Set(cfg); err != nil {
		r.logger.WarnContext(ctx, "Failed to cache guild config", attr.GuildID(cfg.GuildID), attr.Error(err))
		_ = r.cache.Delete(cfg.GuildID)
	}
	r.logger.InfoContext(ctx, "Guild config saved",
		attr.GuildID(cfg.GuildID),
		attr.ChannelID(cfg.EventChannelID))
	return nil
}

// IsGuildSetupComplete reports whether the guild has a usable configuration.
// Lookup failures count as not set up.
func (r *Resolver) IsGuildSetupComplete(ctx context.Context, guildID string) bool {
	cfg, err := r.GetGuildConfigWithContext(ctx, guildID)
	if err != nil {
		r.logger.DebugContext(ctx, "Guild setup check failed - assuming not set up",
			attr.GuildID(guildID),
			attr.Error(err))
		return false
	}
	return cfg.IsConfigured()
}

func (r *Resolver) recordError(ctx context.Context, guildID string, errorType string) {
	r.errorMutex.Lock()
	defer r.errorMutex.Unlock()

	r.errorMetrics.ErrorsByType[errorType]++
	r.errorMetrics.ErrorsByGuild[guildID]++
	r.errorMetrics.TotalErrors++
	r.errorMetrics.LastErrorTime = time.Now()

	r.logger.DebugContext(ctx, "Guild config resolver error recorded",
		attr.GuildID(guildID),
		attr.String("error_type", errorType),
		attr.Int64("total_errors", r.errorMetrics.TotalErrors))
}

// GetErrorMetrics returns a copy of current metrics.
func (r *Resolver) GetErrorMetrics() ConfigErrorMetrics {
	r.errorMutex.RLock()
	defer r.errorMutex.RUnlock()

	errorsByType := make(map[string]int64, len(r.errorMetrics.ErrorsByType))
	for k, v := range r.errorMetrics.ErrorsByType {
		errorsByType[k] = v
	}
	errorsByGuild := make(map[string]int64, len(r.errorMetrics.ErrorsByGuild))
	for k, v := range r.errorMetrics.ErrorsByGuild {
		errorsByGuild[k] = v
	}
	return ConfigErrorMetrics{
		ErrorsByType:  errorsByType,
		ErrorsByGuild: errorsByGuild,
		LastErrorTime: r.errorMetrics.LastErrorTime,
		TotalErrors:   r.errorMetrics.TotalErrors,
	}
}
