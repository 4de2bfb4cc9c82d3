package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_RecordRoute(t *testing.T) {
	t.Run("SingleRequest", func(t *testing.T) {
		agg := NewAggregator()
		agg.RecordRoute("chat", 100*time.Millisecond, true)

		stats := agg.GetCurrentStats()
		assert.Equal(t, int64(1), stats.RequestCount)
		assert.Equal(t, int64(1), stats.SuccessCount)
		require.Contains(t, stats.IntentStats, "chat")
		assert.Equal(t, int64(1), stats.IntentStats["chat"].Count)
		assert.Equal(t, float32(1.0), stats.IntentStats["chat"].SuccessRate)
		assert.Equal(t, 100*time.Millisecond, stats.IntentStats["chat"].AvgLatency)
	})

	t.Run("MultipleRequests", func(t *testing.T) {
		agg := NewAggregator()
		agg.RecordRoute("question", 50*time.Millisecond, true)
		agg.RecordRoute("question", 150*time.Millisecond, true)
		agg.RecordRoute("question", 200*time.Millisecond, false)
		agg.RecordRoute("greeting", 10*time.Millisecond, true)

		stats := agg.GetCurrentStats()
		assert.Equal(t, int64(4), stats.RequestCount)
		assert.Equal(t, int64(3), stats.SuccessCount)

		questionStat := stats.IntentStats["question"]
		require.NotNil(t, questionStat)
		assert.Equal(t, int64(3), questionStat.Count)
		assert.InDelta(t, 0.666, questionStat.SuccessRate, 0.01)
		assert.Len(t, stats.IntentStats, 2)
	})
}

func TestAggregator_RecordTasks(t *testing.T) {
	agg := NewAggregator()

	agg.RecordTasks([]string{"memory", "engagement", "conversation", "thought"})
	agg.RecordTasks([]string{"memory_failed", "conversation", "speak_failed"})
	agg.RecordTasks([]string{"skipped_spam"})
	agg.RecordTasks([]string{"dropped"})
	agg.RecordTasks([]string{"dropped"})
	agg.RecordTasks(nil)

	stats := agg.GetCurrentStats()
	assert.Equal(t, int64(0), stats.RequestCount)

	require.Contains(t, stats.TaskStats, "memory")
	assert.Equal(t, int64(1), stats.TaskStats["memory"].Succeeded)
	assert.Equal(t, int64(1), stats.TaskStats["memory"].Failed)
	assert.Equal(t, int64(2), stats.TaskStats["conversation"].Succeeded)
	assert.Equal(t, int64(0), stats.TaskStats["speak"].Succeeded)
	assert.Equal(t, int64(1), stats.TaskStats["speak"].Failed)

	assert.NotContains(t, stats.TaskStats, "dropped")
	assert.Equal(t, int64(2), stats.Sentinels["dropped"])
	assert.Equal(t, int64(1), stats.Sentinels["skipped_spam"])
}

func TestAggregator_Percentiles(t *testing.T) {
	agg := NewAggregator()

	for i := 1; i <= 100; i++ {
		agg.RecordRoute("chat", time.Duration(i)*time.Millisecond, true)
	}

	stats := agg.GetCurrentStats()
	assert.Equal(t, 50*time.Millisecond, stats.LatencyP50)
	assert.Equal(t, 95*time.Millisecond, stats.LatencyP95)
}

func TestAggregator_StatsRange(t *testing.T) {
	agg := NewAggregator()
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	agg.now = func() time.Time { return now.Add(-5 * time.Hour) }
	agg.RecordRoute("chat", 10*time.Millisecond, true)
	agg.RecordTasks([]string{"memory"})

	agg.now = func() time.Time { return now }
	agg.RecordRoute("question", 20*time.Millisecond, true)
	agg.RecordTasks([]string{"memory_failed"})

	lastHour := agg.Stats(TimeRange{Start: now.Add(-time.Hour), End: now})
	assert.Equal(t, int64(1), lastHour.RequestCount)
	assert.Contains(t, lastHour.IntentStats, "question")
	assert.NotContains(t, lastHour.IntentStats, "chat")
	assert.Equal(t, int64(0), lastHour.TaskStats["memory"].Succeeded)
	assert.Equal(t, int64(1), lastHour.TaskStats["memory"].Failed)

	lastDay := agg.Stats(TimeRange{Start: now.Add(-24 * time.Hour), End: now})
	assert.Equal(t, int64(2), lastDay.RequestCount)
	assert.Equal(t, int64(1), lastDay.TaskStats["memory"].Succeeded)
}

func TestAggregator_Prune(t *testing.T) {
	agg := NewAggregator()
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	agg.now = func() time.Time { return now.Add(-48 * time.Hour) }
	agg.RecordRoute("chat", 10*time.Millisecond, true)
	agg.RecordTasks([]string{"memory"})

	agg.now = func() time.Time { return now }
	agg.RecordRoute("chat", 10*time.Millisecond, true)

	p := newPruner(agg, RetentionConfig{RetentionPeriod: 24 * time.Hour, CleanupInterval: time.Hour})
	assert.Equal(t, 2, p.prune())
	assert.Equal(t, 0, p.prune())

	stats := agg.GetCurrentStats()
	assert.Equal(t, int64(1), stats.RequestCount)
	assert.Empty(t, stats.TaskStats)
}

func TestAggregator_Concurrent(t *testing.T) {
	agg := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.RecordRoute("chat", time.Millisecond, true)
			agg.RecordTasks([]string{"memory", "thought"})
		}()
	}
	wg.Wait()

	stats := agg.GetCurrentStats()
	assert.Equal(t, int64(50), stats.RequestCount)
	assert.Equal(t, int64(50), stats.TaskStats["memory"].Succeeded)
	assert.Equal(t, int64(50), stats.TaskStats["thought"].Succeeded)
}

func TestService(t *testing.T) {
	svc := NewService(DefaultRetentionConfig())
	defer svc.Close()

	ctx := context.Background()
	svc.RecordRoute(ctx, "technical", 300*time.Millisecond, true)
	svc.RecordTasks(ctx, []string{"memory", "speak_failed"})

	stats, err := svc.GetStats(ctx, LastN(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RequestCount)
	assert.Equal(t, int64(1), stats.TaskStats["speak"].Failed)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.GetStats(canceled, LastN(time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockMetricsService(t *testing.T) {
	mock := NewMockMetricsService()
	ctx := context.Background()

	mock.RecordRoute(ctx, "chat", 10*time.Millisecond, false)
	mock.RecordTasks(ctx, []string{"dropped"})

	assert.Len(t, mock.Routes(), 1)
	assert.Equal(t, [][]string{{"dropped"}}, mock.Tasks())

	stats, err := mock.GetStats(ctx, TimeRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.SuccessCount)
	assert.Equal(t, int64(1), stats.Sentinels["dropped"])

	mock.Clear()
	assert.Empty(t, mock.Routes())
}
