package metrics

import (
	"context"
	"time"
)

// Service implements the MetricsService interface over the in-memory aggregator.
type Service struct {
	aggregator *Aggregator
	pruner     *pruner
}

// NewService creates a new metrics service and starts its retention loop.
func NewService(cfg RetentionConfig) *Service {
	aggregator := NewAggregator()
	svc := &Service{
		aggregator: aggregator,
		pruner:     newPruner(aggregator, cfg),
	}
	svc.pruner.start()
	return svc
}

// Close stops the retention loop.
func (s *Service) Close() {
	s.pruner.close()
}

// RecordRoute records a routed message.
func (s *Service) RecordRoute(_ context.Context, intent string, latency time.Duration, success bool) {
	s.aggregator.RecordRoute(intent, latency, success)
}

// RecordTasks records the outcome tags of one background batch.
func (s *Service) RecordTasks(_ context.Context, tags []string) {
	s.aggregator.RecordTasks(tags)
}

// GetStats retrieves aggregated statistics for the given time range.
func (s *Service) GetStats(ctx context.Context, timeRange TimeRange) (*RouteMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.aggregator.Stats(timeRange), nil
}

var _ MetricsService = (*Service)(nil)
