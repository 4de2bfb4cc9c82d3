package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/kiralabs/kira/plugin/ai/timeout"
)

// ErrEmptyResponse is returned when a provider answers without usable content.
var ErrEmptyResponse = errors.New("empty response")

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// ChatRequest is a single chat-completion call.
type ChatRequest struct {
	Model       string // empty means the provider's default model
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// LLMService is the LLM service interface.
type LLMService interface {
	// Chat performs synchronous chat and returns the first choice's content.
	Chat(ctx context.Context, req ChatRequest) (string, error)

	// Name returns the provider name used in logs.
	Name() string

	// DefaultModel returns the model used when a request names none.
	DefaultModel() string
}

type llmService struct {
	client  *openai.Client
	name    string
	model   string
	timeout time.Duration
}

// NewLLMService creates a new LLMService for an OpenAI-compatible provider.
func NewLLMService(cfg *ProviderConfig) (LLMService, error) {
	if cfg == nil {
		return nil, errors.New("provider config is nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s: API key is required", cfg.Name)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	callTimeout := cfg.Timeout
	if callTimeout <= 0 {
		callTimeout = timeout.ProviderTimeout
	}

	return &llmService{
		client:  openai.NewClientWithConfig(clientConfig),
		name:    cfg.Name,
		model:   cfg.Model,
		timeout: callTimeout,
	}, nil
}

func (s *llmService) Name() string {
	return s.name
}

func (s *llmService) DefaultModel() string {
	return s.model
}

func (s *llmService) Chat(ctx context.Context, req ChatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = s.model
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", s.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", s.name, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: %w", s.name, ErrEmptyResponse)
	}

	return content, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}

		llmMessages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		}
	}
	return llmMessages
}

// Helper for creating system prompts
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Helper for creating assistant messages
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// FormatMessages formats messages for prompt templates.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
