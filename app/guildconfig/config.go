package guildconfig

import (
	"fmt"
	"time"
)

// ResolverConfig holds configuration for the guild config resolver
type ResolverConfig struct {
	// RequestTimeout bounds a single store lookup.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// CacheWindow is how long a resolved config is served from memory.
	CacheWindow time.Duration `yaml:"cache_window"`
}

// Validate checks the configuration for logical consistency and reasonable values
func (c *ResolverConfig) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.CacheWindow <= 0 {
		return fmt.Errorf("cache_window must be positive, got %v", c.CacheWindow)
	}
	if c.RequestTimeout > 30*time.Second {
		return fmt.Errorf("request_timeout (%v) seems excessive, consider reducing for better UX", c.RequestTimeout)
	}
	return nil
}

// DefaultResolverConfig returns sensible defaults
func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{RequestTimeout: 2 * time.Second, CacheWindow: 10 * time.Minute}
}
