package ai

import (
	"context"
	"sync"
)

// MockLLMService is a scripted LLMService for tests.
type MockLLMService struct {
	ProviderName string
	Model        string
	// Response is returned by every call unless Err is set.
	Response string
	Err      error
	// ChatFunc, when set, takes precedence over Response and Err.
	ChatFunc func(ctx context.Context, req ChatRequest) (string, error)

	mu       sync.Mutex
	requests []ChatRequest
}

// NewMockLLMService creates a mock provider that answers with response.
func NewMockLLMService(name, model, response string) *MockLLMService {
	return &MockLLMService{ProviderName: name, Model: model, Response: response}
}

func (m *MockLLMService) Chat(ctx context.Context, req ChatRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockLLMService) Name() string {
	return m.ProviderName
}

func (m *MockLLMService) DefaultModel() string {
	return m.Model
}

// Requests returns the requests received so far.
func (m *MockLLMService) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.requests...)
}

// CallCount returns the number of Chat calls.
func (m *MockLLMService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// MockEmbeddingService returns a fixed vector for every input.
type MockEmbeddingService struct {
	Vector []float32
	Err    error

	mu    sync.Mutex
	calls int
}

func (m *MockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return len(m.Vector)
}

// CallCount returns the number of embedded texts.
func (m *MockEmbeddingService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var (
	_ LLMService       = (*MockLLMService)(nil)
	_ EmbeddingService = (*MockEmbeddingService)(nil)
)
