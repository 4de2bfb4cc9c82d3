package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/timeout"
)

// ErrNoLabel is returned when the model output contains no known intent label.
var ErrNoLabel = errors.New("no intent label in classification output")

// ClassificationPrompt is the fixed instruction prompt for intent classification.
const ClassificationPrompt = `You are an intent classifier for Kira, an AI agent that chats with a community across Telegram, Discord and X.

Classify the user's message into exactly one of these intents:
- greeting: a hello, goodbye, gm/gn or other pure salutation
- chat: casual conversation, banter, opinions, small talk
- question: a factual or general question that expects an informative answer
- technical: a question or discussion about code, blockchain, smart contracts, infrastructure or AI systems
- command: a request for Kira to perform an action or fetch live data
- feedback: praise, criticism, bug reports or suggestions about Kira
- spam: scams, unsolicited promotion, gibberish or repeated junk

Respond with only the intent label, nothing else.`

// ClassifierProvider is one provider the classifier may call.
type ClassifierProvider struct {
	Client ai.LLMService
	Model  string // fast model; empty means the client's default
}

// LLMClassifier implements the model-backed classification layer.
type LLMClassifier struct {
	timeout time.Duration
}

// NewLLMClassifier creates a new LLM classifier.
func NewLLMClassifier(callTimeout time.Duration) *LLMClassifier {
	if callTimeout <= 0 {
		callTimeout = timeout.ClassificationTimeout
	}
	return &LLMClassifier{timeout: callTimeout}
}

// Classify asks one provider for a label.
func (c *LLMClassifier) Classify(ctx context.Context, provider ClassifierProvider, message string) (Intent, error) {
	if provider.Client == nil {
		return "", errors.New("classification provider not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	output, err := provider.Client.Chat(ctx, ai.ChatRequest{
		Model:       provider.Model,
		Messages:    ai.FormatMessages(ClassificationPrompt, message, nil),
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("LLM classification failed: %w", err)
	}

	intent, ok := ParseIntent(output)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoLabel, truncate(output, 50))
	}
	return intent, nil
}

// ParseIntent returns the first known intent label contained in output.
func ParseIntent(output string) (Intent, bool) {
	lower := strings.ToLower(output)
	for _, intent := range AllIntents {
		if strings.Contains(lower, string(intent)) {
			return intent, true
		}
	}
	return "", false
}
