package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts routed messages per platform over the process lifetime.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	fallbacks     atomic.Int64

	platformMetrics map[string]*PlatformMetrics

	// Recent durations, oldest first.
	durations    []time.Duration
	maxDurations int
}

// PlatformMetrics represents metrics for one source platform.
type PlatformMetrics struct {
	requestCount  atomic.Int64
	totalDuration atomic.Int64 // milliseconds
	errorCount    atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		platformMetrics: make(map[string]*PlatformMetrics),
		durations:       make([]time.Duration, 0, maxDurations),
		maxDurations:    maxDurations,
	}
}

// RecordRequest records a routed message.
func (m *Metrics) RecordRequest(platform string) {
	m.requestTotal.Add(1)
	m.platform(platform).requestCount.Add(1)
}

// RecordFailure records a message answered with an apology.
func (m *Metrics) RecordFailure(platform string) {
	m.requestFailed.Add(1)
	m.platform(platform).errorCount.Add(1)
}

// RecordFallback records a reply produced by the fallback provider.
func (m *Metrics) RecordFallback() {
	m.fallbacks.Add(1)
}

// RecordDuration records the end-to-end duration of a routed message.
func (m *Metrics) RecordDuration(platform string, duration time.Duration) {
	pm := m.platform(platform)
	pm.totalDuration.Add(duration.Milliseconds())

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// GetRequestTotal returns the total number of routed messages.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed messages.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

func (m *Metrics) platform(platform string) *PlatformMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	pm, ok := m.platformMetrics[platform]
	if !ok {
		pm = &PlatformMetrics{}
		m.platformMetrics[platform] = pm
	}
	return pm
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.fallbacks.Store(0)

	m.mu.Lock()
	m.platformMetrics = make(map[string]*PlatformMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	platforms := make(map[string]*PlatformSnapshot, len(m.platformMetrics))
	for name, pm := range m.platformMetrics {
		count := pm.requestCount.Load()
		snap := &PlatformSnapshot{
			RequestCount:  count,
			TotalDuration: pm.totalDuration.Load(),
			ErrorCount:    pm.errorCount.Load(),
		}
		if count > 0 {
			snap.AverageDuration = snap.TotalDuration / count
		}
		platforms[name] = snap
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Fallbacks:     m.fallbacks.Load(),
		Platforms:     platforms,
		DurationCount: len(m.durations),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                        `json:"request_total"`
	RequestFailed int64                        `json:"request_failed"`
	Fallbacks     int64                        `json:"fallbacks"`
	Platforms     map[string]*PlatformSnapshot `json:"platforms"`
	DurationCount int                          `json:"duration_count"`
}

// PlatformSnapshot represents metrics for a specific platform.
type PlatformSnapshot struct {
	RequestCount    int64 `json:"request_count"`
	TotalDuration   int64 `json:"total_duration_ms"`
	ErrorCount      int64 `json:"error_count"`
	AverageDuration int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
