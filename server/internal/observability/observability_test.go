package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reqCtx := NewRequestContextWithID(logger, "req-1", "telegram")
	reqCtx.SetIntent("question")
	reqCtx.Info("routed", slog.Int(LogFieldMessageLen, 12))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "routed", line["msg"])
	assert.Equal(t, "req-1", line[LogFieldRequestID])
	assert.Equal(t, "telegram", line[LogFieldPlatform])
	assert.Equal(t, "question", line[LogFieldIntent])
	assert.EqualValues(t, 12, line[LogFieldMessageLen])
}

func TestRequestContext_GeneratedID(t *testing.T) {
	a := NewRequestContext(nil, "x")
	b := NewRequestContext(nil, "x")
	assert.Len(t, a.RequestID, 36)
	assert.NotEqual(t, a.RequestID, b.RequestID)

	ctx := WithRequestContext(context.Background(), a)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics(2)

	m.RecordRequest("discord")
	m.RecordDuration("discord", 100*time.Millisecond)
	m.RecordRequest("discord")
	m.RecordDuration("discord", 300*time.Millisecond)
	m.RecordFailure("discord")
	m.RecordRequest("x")
	m.RecordDuration("x", 50*time.Millisecond)
	m.RecordFallback()

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.RequestTotal)
	assert.Equal(t, int64(1), snap.RequestFailed)
	assert.Equal(t, int64(1), snap.Fallbacks)
	assert.Equal(t, 2, snap.DurationCount)
	assert.Equal(t, int64(200), snap.Platforms["discord"].AverageDuration)
	assert.Equal(t, int64(1), snap.Platforms["discord"].ErrorCount)
	assert.InDelta(t, 66.67, snap.SuccessRate(), 0.01)

	m.Reset()
	assert.Equal(t, 100.0, m.Snapshot().SuccessRate())
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics(10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("telegram")
			m.RecordDuration("telegram", time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), m.GetRequestTotal())
	assert.Equal(t, 10, m.Snapshot().DurationCount)
}
