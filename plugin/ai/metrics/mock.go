package metrics

import (
	"context"
	"sync"
	"time"
)

// MockMetricsService is a mock implementation of MetricsService for testing.
type MockMetricsService struct {
	mu     sync.RWMutex
	routes []RouteRecord
	tasks  [][]string
}

// RouteRecord is one RecordRoute call captured by the mock.
type RouteRecord struct {
	Intent  string
	Latency time.Duration
	Success bool
}

// NewMockMetricsService creates a new MockMetricsService.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{}
}

// RecordRoute records route metrics.
func (m *MockMetricsService) RecordRoute(_ context.Context, intent string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, RouteRecord{Intent: intent, Latency: latency, Success: success})
}

// RecordTasks records background task tags.
func (m *MockMetricsService) RecordTasks(_ context.Context, tags []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, append([]string(nil), tags...))
}

// GetStats aggregates the captured calls, ignoring the time range.
func (m *MockMetricsService) GetStats(_ context.Context, _ TimeRange) (*RouteMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agg := NewAggregator()
	for _, r := range m.routes {
		agg.RecordRoute(r.Intent, r.Latency, r.Success)
	}
	for _, tags := range m.tasks {
		agg.RecordTasks(tags)
	}
	return agg.GetCurrentStats(), nil
}

// Routes returns the captured RecordRoute calls.
func (m *MockMetricsService) Routes() []RouteRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RouteRecord(nil), m.routes...)
}

// Tasks returns the captured RecordTasks calls.
func (m *MockMetricsService) Tasks() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]string(nil), m.tasks...)
}

// Clear removes all recorded metrics.
func (m *MockMetricsService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = nil
	m.tasks = nil
}

var _ MetricsService = (*MockMetricsService)(nil)
