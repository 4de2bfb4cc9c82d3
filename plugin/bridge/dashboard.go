package bridge

import (
	"context"
	"time"
)

// DefaultDashboardURL is used when no dashboard URL is configured.
const DefaultDashboardURL = "http://localhost:3001"

// ThoughtRequest is the body of POST /thought.
type ThoughtRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Dashboard pushes short notices to the stream dashboard.
type Dashboard struct {
	poster
}

// NewDashboard creates a dashboard client, falling back to DefaultDashboardURL.
func NewDashboard(baseURL string, callTimeout time.Duration) *Dashboard {
	if baseURL == "" {
		baseURL = DefaultDashboardURL
	}
	return &Dashboard{poster: newPoster("dashboard", baseURL, callTimeout)}
}

// Thought posts a notice. Callers treat failures as non-fatal.
func (d *Dashboard) Thought(ctx context.Context, text, kind string) error {
	return d.post(ctx, "/thought", ThoughtRequest{Text: text, Type: kind})
}
