package cache

import (
	"context"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Service wraps an LRU with a background sweep of expired entries.
type Service[V any] struct {
	lru *LRU[V]

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewService creates a new cache service and starts its cleanup loop.
func NewService[V any](cfg ServiceConfig) *Service[V] {
	defaults := DefaultServiceConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaults.Capacity
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = defaults.DefaultTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service[V]{
		lru:    NewLRU[V](cfg.Capacity, cfg.DefaultTTL),
		cancel: cancel,
	}

	s.wg.Add(1)
	go s.cleanupLoop(ctx, cfg.CleanupInterval)

	return s
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *Service[V]) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Service[V]) Get(_ context.Context, key string) (V, bool) {
	return s.lru.Get(key)
}

func (s *Service[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	s.lru.Set(key, value, ttl)
}

func (s *Service[V]) Invalidate(_ context.Context, pattern string) int {
	return s.lru.Invalidate(pattern)
}

// Stats returns the underlying LRU counters.
func (s *Service[V]) Stats() Stats {
	return s.lru.Stats()
}

func (s *Service[V]) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.lru.CleanupExpired()
		}
	}
}

var _ Cache[string] = (*Service[string])(nil)
