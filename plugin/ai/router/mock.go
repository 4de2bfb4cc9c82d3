package router

import (
	"context"
	"sync"
)

// MockClassifier is a mock implementation of Classifier for testing.
// Rule layers run for real; everything else resolves from overrides or Default.
type MockClassifier struct {
	// Overrides maps exact messages to classification results.
	Overrides map[string]Classification
	// Default is returned when neither a rule nor an override matches.
	Default Classification

	rules *RuleMatcher
	mu    sync.Mutex
	calls []string
}

// NewMockClassifier creates a new MockClassifier defaulting to chat.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		Overrides: make(map[string]Classification),
		Default:   Classification{Intent: IntentChat, Method: MethodDefault},
		rules:     NewRuleMatcher(),
	}
}

// Classify classifies a message using rules and overrides.
func (m *MockClassifier) Classify(_ context.Context, message string) Classification {
	m.mu.Lock()
	m.calls = append(m.calls, message)
	m.mu.Unlock()

	if result, ok := m.Overrides[message]; ok {
		return result
	}
	if result, ok := m.rules.Match(message); ok {
		return result
	}
	return m.Default
}

// Calls returns the messages classified so far.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Ensure MockClassifier implements Classifier
var _ Classifier = (*MockClassifier)(nil)
