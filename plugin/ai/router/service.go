package router

import (
	"context"
	"log/slog"
	"time"
)

// Service implements the layered Classifier.
// Layer 1: command patterns (0ms)
// Layer 2: greeting set (0ms)
// Layer 3: LLM classification on the primary provider, one hop to the secondary
// Layer 4: chat
type Service struct {
	ruleMatcher   *RuleMatcher
	llmClassifier *LLMClassifier
	primary       ClassifierProvider
	secondary     ClassifierProvider
}

// Config contains the configuration for the router service.
type Config struct {
	Primary   ClassifierProvider
	Secondary ClassifierProvider
	Timeout   time.Duration // per classification call
}

// NewService creates a new router service.
func NewService(cfg Config) *Service {
	return &Service{
		ruleMatcher:   NewRuleMatcher(),
		llmClassifier: NewLLMClassifier(cfg.Timeout),
		primary:       cfg.Primary,
		secondary:     cfg.Secondary,
	}
}

// Classify classifies an inbound message.
func (s *Service) Classify(ctx context.Context, message string) Classification {
	start := time.Now()

	if result, matched := s.ruleMatcher.Match(message); matched {
		slog.Debug("intent classified by rule matcher",
			"input", truncate(message, 50),
			"intent", result.Intent,
			"command", result.Command,
			"method", result.Method,
			"latency_ms", time.Since(start).Milliseconds())
		return result
	}

	intent, err := s.llmClassifier.Classify(ctx, s.primary, message)
	if err == nil {
		slog.Debug("intent classified by LLM",
			"input", truncate(message, 50),
			"intent", intent,
			"latency_ms", time.Since(start).Milliseconds())
		return Classification{Intent: intent, Method: MethodLLM}
	}
	slog.Warn("primary classification failed, trying fallback", "provider", providerName(s.primary), "error", err)

	intent, err = s.llmClassifier.Classify(ctx, s.secondary, message)
	if err == nil {
		slog.Debug("intent classified by fallback LLM",
			"input", truncate(message, 50),
			"intent", intent,
			"latency_ms", time.Since(start).Milliseconds())
		return Classification{Intent: intent, Method: MethodLLMFallback}
	}
	slog.Warn("fallback classification failed, defaulting to chat", "provider", providerName(s.secondary), "error", err)

	return Classification{Intent: IntentChat, Method: MethodDefault}
}

func providerName(p ClassifierProvider) string {
	if p.Client == nil {
		return "none"
	}
	return p.Client.Name()
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Ensure Service implements Classifier
var _ Classifier = (*Service)(nil)
