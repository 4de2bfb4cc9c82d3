package background

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingRunner struct {
	release chan struct{}
	running atomic.Int32
	peak    atomic.Int32
}

func (b *blockingRunner) Run(_ context.Context, ex *Exchange) []string {
	n := b.running.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-b.release
	b.running.Add(-1)
	return []string{"ran:" + ex.RequestID}
}

type collectSink struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (c *collectSink) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *collectSink) byRequest() map[string][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]string, len(c.outcomes))
	for _, o := range c.outcomes {
		out[o.RequestID] = o.Tasks
	}
	return out
}

func TestDispatcher_RunsAndDrains(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	close(runner.release)
	sink := &collectSink{}
	d := NewDispatcher(runner, sink, DispatcherConfig{QueueSize: 8, Workers: 2})

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, d.Submit(&Exchange{RequestID: id}))
	}
	require.NoError(t, d.Close(context.Background()))

	got := sink.byRequest()
	assert.Equal(t, []string{"ran:a"}, got["a"])
	assert.Equal(t, []string{"ran:b"}, got["b"])
	assert.Equal(t, []string{"ran:c"}, got["c"])
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	sink := &collectSink{}
	d := NewDispatcher(runner, sink, DispatcherConfig{QueueSize: 1, Workers: 1})

	require.True(t, d.Submit(&Exchange{RequestID: "running"}))
	require.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, d.Submit(&Exchange{RequestID: "queued"}))
	assert.False(t, d.Submit(&Exchange{RequestID: "overflow"}))
	assert.Equal(t, []string{TagDropped}, sink.byRequest()["overflow"])

	close(runner.release)
	require.NoError(t, d.Close(context.Background()))

	got := sink.byRequest()
	assert.Equal(t, []string{"ran:queued"}, got["queued"])
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	close(runner.release)
	sink := &collectSink{}
	d := NewDispatcher(runner, sink, DefaultDispatcherConfig())
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	assert.False(t, d.Submit(&Exchange{RequestID: "late"}))
	assert.Equal(t, []string{TagDropped}, sink.byRequest()["late"])
}

func TestDispatcher_MaxConcurrent(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	d := NewDispatcher(runner, &collectSink{}, DispatcherConfig{QueueSize: 16, Workers: 4, MaxConcurrent: 2})

	for i := 0; i < 6; i++ {
		d.Submit(&Exchange{RequestID: string(rune('a' + i))})
	}
	require.Eventually(t, func() bool { return runner.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runner.running.Load())

	close(runner.release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(2), runner.peak.Load())
}

func TestDispatcher_CloseTimeout(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	d := NewDispatcher(runner, &collectSink{}, DispatcherConfig{Workers: 1})
	d.Submit(&Exchange{RequestID: "stuck"})
	require.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	close(runner.release)
}

func TestSinkFunc(t *testing.T) {
	var got Outcome
	SinkFunc(func(o Outcome) { got = o }).Record(Outcome{RequestID: "x", Tasks: []string{TaskMemory}})
	assert.Equal(t, "x", got.RequestID)
	assert.True(t, IsFailedTag(FailedTag(TaskSpeak)))
	assert.False(t, IsFailedTag(TaskSpeak))
}
