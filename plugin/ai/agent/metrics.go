package agent

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxLatencySamples = 100

// ResponderMetrics collects responder outcomes.
// All operations are thread-safe for concurrent access.
type ResponderMetrics struct {
	mu sync.RWMutex

	latency []time.Duration // recent response latencies

	totalResponses atomic.Int64
	primaryHits    atomic.Int64
	fallbackHits   atomic.Int64
	snags          atomic.Int64
	skipped        atomic.Int64

	modelCalls    map[string]*atomic.Int64
	modelFailures map[string]*atomic.Int64

	commandCalls    map[string]*atomic.Int64
	commandFailures map[string]*atomic.Int64

	transientErrors atomic.Int64
	permanentErrors atomic.Int64
	canceledErrors  atomic.Int64
}

// NewResponderMetrics creates a new metrics collector.
func NewResponderMetrics() *ResponderMetrics {
	return &ResponderMetrics{
		latency:         make([]time.Duration, 0, maxLatencySamples),
		modelCalls:      make(map[string]*atomic.Int64),
		modelFailures:   make(map[string]*atomic.Int64),
		commandCalls:    make(map[string]*atomic.Int64),
		commandFailures: make(map[string]*atomic.Int64),
	}
}

func (m *ResponderMetrics) counter(set map[string]*atomic.Int64, key string) *atomic.Int64 {
	m.mu.RLock()
	c := set[key]
	m.mu.RUnlock()
	if c != nil {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c = set[key]; c == nil {
		c = &atomic.Int64{}
		set[key] = c
	}
	return c
}

// RecordResponse records a finished Respond call by its model label.
func (m *ResponderMetrics) RecordResponse(modelUsed string, fallback bool, duration time.Duration) {
	m.totalResponses.Add(1)
	switch {
	case modelUsed == ModelError:
		m.snags.Add(1)
	case modelUsed == ModelNone:
		m.skipped.Add(1)
	case fallback:
		m.fallbackHits.Add(1)
	default:
		m.primaryHits.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.latency) >= maxLatencySamples {
		m.latency = m.latency[1:]
	}
	m.latency = append(m.latency, duration)
}

// RecordModelCall records one provider call.
func (m *ResponderMetrics) RecordModelCall(model string, success bool) {
	m.counter(m.modelCalls, model).Add(1)
	if !success {
		m.counter(m.modelFailures, model).Add(1)
	}
}

// RecordCommand records one command execution.
func (m *ResponderMetrics) RecordCommand(cmd string, success bool) {
	m.counter(m.commandCalls, cmd).Add(1)
	if !success {
		m.counter(m.commandFailures, cmd).Add(1)
	}
}

// RecordError records a classified error by its class.
func (m *ResponderMetrics) RecordError(c *ClassifiedError) {
	switch {
	case c == nil:
	case c.IsTransient():
		m.transientErrors.Add(1)
	case c.IsPermanent():
		m.permanentErrors.Add(1)
	case c.Class == ErrorClassCanceled:
		m.canceledErrors.Add(1)
	}
}

// GetP95Latency returns the 95th percentile response latency.
func (m *ResponderMetrics) GetP95Latency() time.Duration {
	m.mu.RLock()
	sorted := append([]time.Duration(nil), m.latency...)
	m.mu.RUnlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)) * 0.95)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// CallStats is the call/failure count for one model or command.
type CallStats struct {
	Name     string `json:"name"`
	Calls    int64  `json:"calls"`
	Failures int64  `json:"failures"`
}

// MetricsSummary represents a summary of all metrics.
type MetricsSummary struct {
	TotalResponses  int64       `json:"total_responses"`
	PrimaryHits     int64       `json:"primary_hits"`
	FallbackHits    int64       `json:"fallback_hits"`
	Snags           int64       `json:"snags"`
	Skipped         int64       `json:"skipped"`
	P95LatencyMs    int64       `json:"p95_latency_ms"`
	TransientErrors int64       `json:"transient_errors"`
	PermanentErrors int64       `json:"permanent_errors"`
	CanceledErrors  int64       `json:"canceled_errors"`
	Models          []CallStats `json:"models"`
	Commands        []CallStats `json:"commands"`
}

// GetSummary returns a summary of all metrics.
func (m *ResponderMetrics) GetSummary() MetricsSummary {
	summary := MetricsSummary{
		TotalResponses:  m.totalResponses.Load(),
		PrimaryHits:     m.primaryHits.Load(),
		FallbackHits:    m.fallbackHits.Load(),
		Snags:           m.snags.Load(),
		Skipped:         m.skipped.Load(),
		P95LatencyMs:    m.GetP95Latency().Milliseconds(),
		TransientErrors: m.transientErrors.Load(),
		PermanentErrors: m.permanentErrors.Load(),
		CanceledErrors:  m.canceledErrors.Load(),
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	summary.Models = collectStats(m.modelCalls, m.modelFailures)
	summary.Commands = collectStats(m.commandCalls, m.commandFailures)
	return summary
}

func collectStats(calls, failures map[string]*atomic.Int64) []CallStats {
	stats := make([]CallStats, 0, len(calls))
	for name, c := range calls {
		s := CallStats{Name: name, Calls: c.Load()}
		if f := failures[name]; f != nil {
			s.Failures = f.Load()
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// LogSummary logs the current metrics summary.
func (m *ResponderMetrics) LogSummary() {
	summary := m.GetSummary()
	fallbackRate := 0.0
	if summary.TotalResponses > 0 {
		fallbackRate = float64(summary.FallbackHits) / float64(summary.TotalResponses) * 100
	}
	slog.Info("responder_metrics_summary",
		"total_responses", summary.TotalResponses,
		"fallback_rate", fmt.Sprintf("%.2f", fallbackRate),
		"snags", summary.Snags,
		"p95_latency_ms", summary.P95LatencyMs,
		"transient_errors", summary.TransientErrors,
		"permanent_errors", summary.PermanentErrors,
	)
}
