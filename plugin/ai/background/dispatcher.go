package background

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Outcome is the result of one background batch.
type Outcome struct {
	RequestID string   `json:"request_id"`
	Tasks     []string `json:"tasks"`
}

// OutcomeSink receives batch outcomes.
type OutcomeSink interface {
	Record(outcome Outcome)
}

// SinkFunc adapts a function to OutcomeSink.
type SinkFunc func(outcome Outcome)

// Record calls f(outcome).
func (f SinkFunc) Record(outcome Outcome) {
	f(outcome)
}

// DispatcherConfig configures the dispatcher.
type DispatcherConfig struct {
	QueueSize     int // buffered exchanges (default: 64)
	Workers       int // queue consumers (default: 4)
	MaxConcurrent int // batches running at once (default: Workers)
}

// DefaultDispatcherConfig returns the default dispatcher configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:     64,
		Workers:       4,
		MaxConcurrent: 4,
	}
}

// Dispatcher runs background batches off the request path on a bounded queue.
// Queued work survives a graceful Close; a crash loses it.
type Dispatcher struct {
	runner BatchRunner
	sink   OutcomeSink
	queue  chan *Exchange
	sem    *semaphore.Weighted

	// batches run detached from any request context.
	ctx context.Context

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher and starts its workers.
func NewDispatcher(runner BatchRunner, sink OutcomeSink, cfg DispatcherConfig) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = cfg.Workers
	}

	d := &Dispatcher{
		runner: runner,
		sink:   sink,
		queue:  make(chan *Exchange, cfg.QueueSize),
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		ctx:    context.Background(),
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit queues an exchange without blocking. When the queue is full or the
// dispatcher is closed the exchange is dropped and a dropped outcome is recorded.
func (d *Dispatcher) Submit(ex *Exchange) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.closed {
		select {
		case d.queue <- ex:
			return true
		default:
		}
	}

	slog.Warn("background batch dropped", "request_id", ex.RequestID, "closed", d.closed, "queued", len(d.queue))
	d.record(Outcome{RequestID: ex.RequestID, Tasks: []string{TagDropped}})
	return false
}

// Pending returns the number of queued exchanges.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Close stops intake and waits for queued batches to finish or ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("background dispatcher closed before draining", "pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ex := range d.queue {
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			return
		}
		tags := d.runner.Run(d.ctx, ex)
		d.sem.Release(1)

		d.record(Outcome{RequestID: ex.RequestID, Tasks: tags})
	}
}

func (d *Dispatcher) record(outcome Outcome) {
	if d.sink == nil {
		return
	}
	if outcome.Tasks == nil {
		outcome.Tasks = []string{}
	}
	d.sink.Record(outcome)
}
