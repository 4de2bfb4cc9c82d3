package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const failedSuffix = "_failed"

// sentinelTags are batch-level tags that do not name a task.
var sentinelTags = map[string]bool{
	"skipped_spam":  true,
	"skipped_empty": true,
	"dropped":       true,
}

// Aggregator aggregates metrics in hourly buckets.
type Aggregator struct {
	mu  sync.RWMutex
	now func() time.Time

	// Route metrics: key = "hourBucket|intent"
	routeMetrics map[string]*routeBucket

	// Task metrics: key = "hourBucket|task"
	taskMetrics map[string]*taskBucket
}

type routeBucket struct {
	hourBucket   time.Time
	intent       string
	requestCount int64
	successCount int64
	latencies    []int64 // in milliseconds
}

type taskBucket struct {
	hourBucket time.Time
	task       string
	succeeded  int64
	failed     int64
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		now:          time.Now,
		routeMetrics: make(map[string]*routeBucket),
		taskMetrics:  make(map[string]*taskBucket),
	}
}

// RecordRoute records a single routed message.
func (a *Aggregator) RecordRoute(intent string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, intent)

	bucket, exists := a.routeMetrics[key]
	if !exists {
		bucket = &routeBucket{
			hourBucket: hourBucket,
			intent:     intent,
			latencies:  make([]int64, 0, 100),
		}
		a.routeMetrics[key] = bucket
	}

	bucket.requestCount++
	if success {
		bucket.successCount++
	}
	bucket.latencies = append(bucket.latencies, latency.Milliseconds())
}

// RecordTasks records the outcome tags of one background batch.
// "<task>" counts a success, "<task>_failed" a failure; sentinels are counted as is.
func (a *Aggregator) RecordTasks(tags []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	for _, tag := range tags {
		task, failed := strings.CutSuffix(tag, failedSuffix)
		key := makeKey(hourBucket, task)

		bucket, exists := a.taskMetrics[key]
		if !exists {
			bucket = &taskBucket{hourBucket: hourBucket, task: task}
			a.taskMetrics[key] = bucket
		}
		if failed {
			bucket.failed++
		} else {
			bucket.succeeded++
		}
	}
}

// Prune drops buckets older than before and returns how many were removed.
func (a *Aggregator) Prune(before time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for key, bucket := range a.routeMetrics {
		if bucket.hourBucket.Before(before) {
			delete(a.routeMetrics, key)
			removed++
		}
	}
	for key, bucket := range a.taskMetrics {
		if bucket.hourBucket.Before(before) {
			delete(a.taskMetrics, key)
			removed++
		}
	}
	return removed
}

// Stats aggregates the buckets whose hour overlaps the range.
// A zero Start or End leaves that side open.
func (a *Aggregator) Stats(timeRange TimeRange) *RouteMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := &RouteMetrics{
		IntentStats: make(map[string]*IntentStat),
		TaskStats:   make(map[string]*TaskStat),
		Sentinels:   make(map[string]int64),
	}

	inRange := func(hour time.Time) bool {
		if !timeRange.Start.IsZero() && hour.Add(time.Hour).Before(timeRange.Start) {
			return false
		}
		if !timeRange.End.IsZero() && hour.After(timeRange.End) {
			return false
		}
		return true
	}

	type agg struct {
		count, success int64
		latencies      []int64
	}
	byIntent := make(map[string]*agg)
	allLatencies := make([]int64, 0)

	for _, bucket := range a.routeMetrics {
		if !inRange(bucket.hourBucket) {
			continue
		}
		stats.RequestCount += bucket.requestCount
		stats.SuccessCount += bucket.successCount
		allLatencies = append(allLatencies, bucket.latencies...)

		ag, exists := byIntent[bucket.intent]
		if !exists {
			ag = &agg{}
			byIntent[bucket.intent] = ag
		}
		ag.count += bucket.requestCount
		ag.success += bucket.successCount
		ag.latencies = append(ag.latencies, bucket.latencies...)
	}

	for intent, ag := range byIntent {
		stat := &IntentStat{Count: ag.count}
		if ag.count > 0 {
			stat.SuccessRate = float32(ag.success) / float32(ag.count)
			stat.AvgLatency = time.Duration(sumLatencies(ag.latencies)/ag.count) * time.Millisecond
		}
		stats.IntentStats[intent] = stat
	}

	for _, bucket := range a.taskMetrics {
		if !inRange(bucket.hourBucket) {
			continue
		}
		if sentinelTags[bucket.task] {
			stats.Sentinels[bucket.task] += bucket.succeeded
			continue
		}
		stat, exists := stats.TaskStats[bucket.task]
		if !exists {
			stat = &TaskStat{}
			stats.TaskStats[bucket.task] = stat
		}
		stat.Succeeded += bucket.succeeded
		stat.Failed += bucket.failed
	}

	stats.LatencyP50 = time.Duration(percentile(allLatencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(allLatencies, 95)) * time.Millisecond

	return stats
}

// GetCurrentStats returns everything still held in memory.
func (a *Aggregator) GetCurrentStats() *RouteMetrics {
	return a.Stats(TimeRange{})
}

// Helper functions

func truncateToHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

func makeKey(hourBucket time.Time, name string) string {
	return hourBucket.Format(time.RFC3339) + "|" + name
}

func sumLatencies(latencies []int64) int64 {
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return sum
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
