// Package metrics aggregates routing and background-task metrics in memory.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the routing metrics service interface.
type MetricsService interface {
	// RecordRoute records one routed message.
	RecordRoute(ctx context.Context, intent string, latency time.Duration, success bool)

	// RecordTasks records the outcome tags of one background batch.
	RecordTasks(ctx context.Context, tags []string)

	// GetStats retrieves statistics for a time range.
	GetStats(ctx context.Context, timeRange TimeRange) (*RouteMetrics, error)
}

// TimeRange represents a time range for querying metrics.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LastN returns the range ending now and starting d ago.
func LastN(d time.Duration) TimeRange {
	now := time.Now()
	return TimeRange{Start: now.Add(-d), End: now}
}

// RouteMetrics represents aggregated routing metrics.
type RouteMetrics struct {
	RequestCount int64                  `json:"request_count"`
	SuccessCount int64                  `json:"success_count"`
	LatencyP50   time.Duration          `json:"latency_p50"`
	LatencyP95   time.Duration          `json:"latency_p95"`
	IntentStats  map[string]*IntentStat `json:"intent_stats"`
	TaskStats    map[string]*TaskStat   `json:"task_stats"`
	// Sentinels counts skipped_spam, skipped_empty and dropped batches.
	Sentinels map[string]int64 `json:"sentinels"`
}

// IntentStat represents statistics for a single intent.
type IntentStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// TaskStat represents statistics for a single background task.
type TaskStat struct {
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
