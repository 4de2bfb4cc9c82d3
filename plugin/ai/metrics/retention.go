package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RetentionConfig configures how long hour buckets are kept in memory.
type RetentionConfig struct {
	RetentionPeriod time.Duration // How long to keep buckets (default: 24 hours)
	CleanupInterval time.Duration // How often to prune (default: 10 minutes)
}

// DefaultRetentionConfig returns default retention configuration.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionPeriod: 24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// pruner periodically drops expired hour buckets from the aggregator.
type pruner struct {
	aggregator *Aggregator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	retentionPeriod time.Duration
	cleanupInterval time.Duration
}

func newPruner(agg *Aggregator, cfg RetentionConfig) *pruner {
	if cfg.RetentionPeriod == 0 {
		cfg.RetentionPeriod = 24 * time.Hour
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &pruner{
		aggregator:      agg,
		ctx:             ctx,
		cancel:          cancel,
		retentionPeriod: cfg.RetentionPeriod,
		cleanupInterval: cfg.CleanupInterval,
	}
}

func (p *pruner) start() {
	p.wg.Add(1)
	go p.cleanupLoop()
}

func (p *pruner) close() {
	p.cancel()
	p.wg.Wait()
}

// prune removes buckets whose hour ended before the retention window.
// The current hour's bucket is never removed.
func (p *pruner) prune() int {
	cutoff := truncateToHour(p.aggregator.now().Add(-p.retentionPeriod))
	removed := p.aggregator.Prune(cutoff)
	if removed > 0 {
		slog.Debug("pruned expired metric buckets", "removed", removed, "cutoff", cutoff)
	}
	return removed
}

func (p *pruner) cleanupLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.prune()
		case <-p.ctx.Done():
			return
		}
	}
}
