// Package route runs the message pipeline: classify, load context, respond,
// emit, then hand the exchange to the background stage.
package route

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/kiralabs/kira/plugin/ai/agent"
	"github.com/kiralabs/kira/plugin/ai/background"
	aicontext "github.com/kiralabs/kira/plugin/ai/context"
	"github.com/kiralabs/kira/plugin/ai/metrics"
	"github.com/kiralabs/kira/plugin/ai/router"
	aierrors "github.com/kiralabs/kira/server/internal/errors"
	"github.com/kiralabs/kira/server/internal/observability"
)

// Inbound is one message addressed to the router.
type Inbound struct {
	Platform   string `json:"platform"`
	SenderID   string `json:"sender_id"`
	Message    string `json:"message"`
	SenderName string `json:"sender_name,omitempty"`
	// ChatID identifies the conversation on the platform. Empty means the
	// sender's direct conversation.
	ChatID string `json:"chat_id,omitempty"`
}

// Validate reports the first missing required field.
func (in *Inbound) Validate() error {
	switch {
	case strings.TrimSpace(in.Platform) == "":
		return aierrors.InvalidArgument("platform is required").WithContext("field", "platform")
	case strings.TrimSpace(in.SenderID) == "":
		return aierrors.InvalidArgument("sender_id is required").WithContext("field", "sender_id")
	case strings.TrimSpace(in.Message) == "":
		return aierrors.InvalidArgument("message is required").WithContext("field", "message")
	}
	return nil
}

// Output is the routed reply as emitted to the caller.
type Output struct {
	ResponseText    string   `json:"response_text"`
	Intent          string   `json:"intent"`
	ModelUsed       string   `json:"model_used"`
	UserTier        string   `json:"user_tier"`
	ContextLoaded   int      `json:"context_loaded"`
	ElapsedMs       int64    `json:"elapsed_ms"`
	BackgroundTasks []string `json:"background_tasks"`

	// RequestID keys the background outcome line for this reply.
	RequestID string `json:"-"`
}

// Responder produces the reply text. *agent.Responder satisfies it.
type Responder interface {
	Respond(ctx context.Context, req *agent.RespondRequest) agent.Response
}

// Submitter accepts background batches. *background.Dispatcher satisfies it.
type Submitter interface {
	Submit(ex *background.Exchange) bool
}

// Service routes inbound messages.
type Service struct {
	classifier router.Classifier
	loader     aicontext.Loader
	responder  Responder
	background Submitter
	metrics    metrics.MetricsService
	lifetime   *observability.Metrics
	logger     *slog.Logger
}

// NewService creates a route service. A nil submitter disables the background stage.
func NewService(classifier router.Classifier, loader aicontext.Loader, responder Responder, submitter Submitter) *Service {
	return &Service{
		classifier: classifier,
		loader:     loader,
		responder:  responder,
		background: submitter,
		lifetime:   observability.NewMetrics(0),
		logger:     slog.Default(),
	}
}

// WithMetrics sets the windowed metrics service.
func (s *Service) WithMetrics(m metrics.MetricsService) *Service {
	s.metrics = m
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Lifetime returns the process-lifetime counters.
func (s *Service) Lifetime() *observability.Metrics {
	return s.lifetime
}

// Route runs the pipeline for one message. It fails on invalid input and when
// ctx ends before the reply is ready; in that case nothing is emitted and no
// background batch is submitted. Every other downstream failure is absorbed
// into the reply.
func (s *Service) Route(ctx context.Context, in *Inbound) (*Output, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	reqCtx := observability.NewRequestContext(s.logger, in.Platform)
	ctx = observability.WithRequestContext(ctx, reqCtx)
	reqCtx.Debug("routing message", slog.Int(observability.LogFieldMessageLen, len(in.Message)))

	classification := s.classifier.Classify(ctx, in.Message)
	reqCtx.SetIntent(string(classification.Intent))

	bundle := s.loader.Load(ctx, &aicontext.Request{
		Platform: in.Platform,
		SenderID: in.SenderID,
		Message:  in.Message,
		Intent:   classification.Intent,
	})

	resp := s.responder.Respond(ctx, &agent.RespondRequest{
		Message:     in.Message,
		Intent:      classification.Intent,
		Command:     classification.Command,
		ContextText: bundle.ContextText,
		SenderName:  in.SenderName,
		Platform:    in.Platform,
	})

	if err := ctx.Err(); err != nil {
		return nil, s.abandon(ctx, reqCtx, in.Platform, string(classification.Intent), err)
	}

	elapsed := reqCtx.Duration()
	out := &Output{
		ResponseText:    resp.Text,
		Intent:          string(classification.Intent),
		ModelUsed:       resp.ModelUsed,
		UserTier:        bundle.Tier(),
		ContextLoaded:   bundle.Loaded,
		ElapsedMs:       elapsed.Milliseconds(),
		BackgroundTasks: []string{},
		RequestID:       reqCtx.RequestID,
	}

	failed := s.report(reqCtx, classification, resp)
	s.record(ctx, in.Platform, out.Intent, elapsed, failed, resp.Fallback)

	reqCtx.Info("message routed",
		slog.String(observability.LogFieldModel, out.ModelUsed),
		slog.String("user_tier", out.UserTier),
		slog.Int("context_loaded", out.ContextLoaded),
		slog.Int64(observability.LogFieldDuration, out.ElapsedMs))

	if s.background != nil {
		s.background.Submit(&background.Exchange{
			RequestID:  reqCtx.RequestID,
			Platform:   in.Platform,
			ChatID:     chatID(in),
			SenderID:   in.SenderID,
			SenderName: in.SenderName,
			UserID:     bundle.UserID,
			Message:    in.Message,
			Response:   resp.Text,
			Intent:     classification.Intent,
			ModelUsed:  resp.ModelUsed,
		})
	}

	return out, nil
}

// abandon records a request whose caller went away before the reply was ready.
func (s *Service) abandon(ctx context.Context, reqCtx *observability.RequestContext, platform, intent string, cause error) error {
	aiErr := aierrors.FromProviderError(cause)
	s.record(context.WithoutCancel(ctx), platform, intent, reqCtx.Duration(), true, false)
	reqCtx.Warn("request abandoned before reply",
		slog.String(observability.LogFieldErrorCode, string(aiErr.GetCode())),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	return aiErr
}

// report logs recovered errors with their code and reports whether the reply
// is an apology.
func (s *Service) report(reqCtx *observability.RequestContext, c router.Classification, resp agent.Response) bool {
	if resp.Err == nil {
		return false
	}

	var aiErr *aierrors.AIError
	failed := false
	switch resp.ModelUsed {
	case agent.ModelLocal:
		aiErr = aierrors.CommandFailed(string(c.Command), resp.Err)
		failed = true
	case agent.ModelError:
		aiErr = aierrors.FromProviderError(resp.Err)
		failed = true
	default:
		aiErr = aierrors.FromProviderError(resp.Err)
	}

	attrs := []slog.Attr{
		slog.String(observability.LogFieldErrorCode, string(aiErr.GetCode())),
		slog.String(observability.LogFieldModel, resp.ModelUsed),
	}
	if failed {
		reqCtx.Error("reply replaced by apology", aiErr, attrs...)
	} else {
		reqCtx.Warn("reply recovered by fallback", append(attrs, slog.String("error", aiErr.Error()))...)
	}
	return failed
}

func (s *Service) record(ctx context.Context, platform, intent string, elapsed time.Duration, failed, fallback bool) {
	s.lifetime.RecordRequest(platform)
	s.lifetime.RecordDuration(platform, elapsed)
	if failed {
		s.lifetime.RecordFailure(platform)
	}
	if fallback {
		s.lifetime.RecordFallback()
	}
	if s.metrics != nil {
		s.metrics.RecordRoute(ctx, intent, elapsed, !failed)
	}
}

// chatID picks the conversation id for the turn log: the platform chat, the
// sender's direct chat, or a fresh id.
func chatID(in *Inbound) string {
	if in.ChatID != "" {
		return in.ChatID
	}
	if in.SenderID != "" {
		return in.SenderID
	}
	return shortuuid.New()
}
