// Package bridge sends best-effort notifications to the avatar bridge and
// the dashboard.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kiralabs/kira/plugin/ai/timeout"
)

// poster POSTs JSON payloads to one collaborator.
type poster struct {
	name       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func newPoster(name, baseURL string, callTimeout time.Duration) poster {
	if callTimeout <= 0 {
		callTimeout = timeout.BridgeTimeout
	}
	return poster{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: callTimeout},
		logger:     slog.Default(),
	}
}

func (p *poster) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", p.name, err)
	}

	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.Debug("bridge returned error",
			"bridge", p.name,
			"url", url,
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	p.logger.Debug("bridge notified", "bridge", p.name, "url", url, "status", resp.StatusCode)
	return nil
}
