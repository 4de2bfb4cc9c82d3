package route

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/kiralabs/kira/plugin/ai/background"
	"github.com/kiralabs/kira/plugin/ai/metrics"
)

// OutcomeWriter writes each background outcome as one JSON line and feeds the
// task tags into the metrics service.
type OutcomeWriter struct {
	mu      sync.Mutex
	w       io.Writer
	metrics metrics.MetricsService
}

// NewOutcomeWriter creates an outcome sink. A nil writer or metrics service is skipped.
func NewOutcomeWriter(w io.Writer, m metrics.MetricsService) *OutcomeWriter {
	return &OutcomeWriter{w: w, metrics: m}
}

// Record implements background.OutcomeSink.
func (o *OutcomeWriter) Record(outcome background.Outcome) {
	if o.metrics != nil {
		o.metrics.RecordTasks(context.Background(), outcome.Tasks)
	}
	if o.w == nil {
		return
	}

	line, err := json.Marshal(outcome)
	if err != nil {
		slog.Warn("failed to encode background outcome", "request_id", outcome.RequestID, "error", err)
		return
	}
	line = append(line, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.w.Write(line); err != nil {
		slog.Warn("failed to write background outcome", "request_id", outcome.RequestID, "error", err)
	}
}

var _ background.OutcomeSink = (*OutcomeWriter)(nil)
