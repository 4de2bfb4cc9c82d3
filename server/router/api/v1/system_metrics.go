package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kiralabs/kira/plugin/ai/metrics"
	"github.com/kiralabs/kira/server/internal/observability"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests int64                          `json:"total_requests"`
	SuccessRate   float64                        `json:"success_rate"`
	AvgLatencyMs  int64                          `json:"avg_latency_ms"`
	P50LatencyMs  int64                          `json:"p50_latency_ms"`
	P95LatencyMs  int64                          `json:"p95_latency_ms"`
	ErrorCount    int64                          `json:"error_count"`
	TimeRange     string                         `json:"time_range"`
	Intents       []IntentOverview               `json:"intents"`
	Tasks         []TaskOverview                 `json:"tasks"`
	Sentinels     map[string]int64               `json:"sentinels"`
	Lifetime      *observability.MetricsSnapshot `json:"lifetime,omitempty"`
}

// IntentOverview is the per-intent row of the overview.
type IntentOverview struct {
	Intent       string  `json:"intent"`
	Count        int64   `json:"count"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
}

// TaskOverview is the per-task row of the overview.
type TaskOverview struct {
	Task      string `json:"task"`
	Succeeded int64  `json:"succeeded"`
	Failed    int64  `json:"failed"`
}

// GetMetricsOverview returns the system metrics overview
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "24h"
	}
	window, err := parseTimeRange(timeRange)
	if err != nil {
		slog.Warn("Invalid time range parameter in metrics request", "range", timeRange, "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid time range"})
	}

	if s.MetricsService == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "metrics not configured"})
	}

	stats, err := s.MetricsService.GetStats(c.Request().Context(), metrics.LastN(window))
	if err != nil {
		slog.Error("failed to query metrics", "range", timeRange, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to query metrics"})
	}

	resp := buildOverview(stats, timeRange)
	if s.Lifetime != nil {
		resp.Lifetime = s.Lifetime.Snapshot()
	}
	return c.JSON(http.StatusOK, resp)
}

func buildOverview(stats *metrics.RouteMetrics, timeRange string) *MetricsOverviewResponse {
	resp := &MetricsOverviewResponse{
		TotalRequests: stats.RequestCount,
		P50LatencyMs:  stats.LatencyP50.Milliseconds(),
		P95LatencyMs:  stats.LatencyP95.Milliseconds(),
		ErrorCount:    stats.RequestCount - stats.SuccessCount,
		TimeRange:     timeRange,
		Intents:       make([]IntentOverview, 0, len(stats.IntentStats)),
		Tasks:         make([]TaskOverview, 0, len(stats.TaskStats)),
		Sentinels:     stats.Sentinels,
	}
	if resp.Sentinels == nil {
		resp.Sentinels = map[string]int64{}
	}

	var latencySum int64
	for intent, stat := range stats.IntentStats {
		resp.Intents = append(resp.Intents, IntentOverview{
			Intent:       intent,
			Count:        stat.Count,
			SuccessRate:  float64(stat.SuccessRate),
			AvgLatencyMs: stat.AvgLatency.Milliseconds(),
		})
		latencySum += stat.AvgLatency.Milliseconds() * stat.Count
	}
	sort.Slice(resp.Intents, func(i, j int) bool { return resp.Intents[i].Intent < resp.Intents[j].Intent })

	for task, stat := range stats.TaskStats {
		resp.Tasks = append(resp.Tasks, TaskOverview{Task: task, Succeeded: stat.Succeeded, Failed: stat.Failed})
	}
	sort.Slice(resp.Tasks, func(i, j int) bool { return resp.Tasks[i].Task < resp.Tasks[j].Task })

	if stats.RequestCount > 0 {
		resp.SuccessRate = float64(stats.SuccessCount) / float64(stats.RequestCount)
		resp.AvgLatencyMs = latencySum / stats.RequestCount
	}
	return resp
}

// parseTimeRange parses a time range string into a window length.
func parseTimeRange(timeRange string) (time.Duration, error) {
	switch timeRange {
	case "1h":
		return time.Hour, nil
	case "24h":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid time range: %s (valid: 1h, 24h)", timeRange)
	}
}
