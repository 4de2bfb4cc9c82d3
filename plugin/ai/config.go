package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/kiralabs/kira/internal/profile"
	"github.com/kiralabs/kira/plugin/ai/timeout"
)

// ProviderRole identifies one of the two chat providers.
// Each role is the other's fallback.
type ProviderRole string

const (
	ProviderPrimary   ProviderRole = "primary"
	ProviderSecondary ProviderRole = "secondary"
)

// Other returns the fallback role for r.
func (r ProviderRole) Other() ProviderRole {
	if r == ProviderPrimary {
		return ProviderSecondary
	}
	return ProviderPrimary
}

// Config represents AI configuration.
type Config struct {
	Primary   ProviderConfig
	Secondary ProviderConfig
	Embedding EmbeddingConfig
}

// ProviderConfig represents an OpenAI-compatible chat provider.
type ProviderConfig struct {
	Name      string // groq, openrouter, ...
	BaseURL   string
	APIKey    string
	Model     string // default model, also the model used when this provider is the fallback
	FastModel string // classification model
	Timeout   time.Duration
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Model         string // text-embedding-3-small
	Dimensions    int    // 1536
	APIKey        string
	BaseURL       string
	MaxInputChars int // input is truncated to this many characters before submission
	Timeout       time.Duration
}

// DefaultMaxEmbeddingChars is the character budget for embedding input.
const DefaultMaxEmbeddingChars = 8000

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	providerTimeout := p.ProviderTimeout
	if providerTimeout <= 0 {
		providerTimeout = timeout.ProviderTimeout
	}

	return &Config{
		Primary: ProviderConfig{
			Name:      p.AIPrimaryName,
			BaseURL:   p.AIPrimaryBaseURL,
			APIKey:    p.AIPrimaryAPIKey,
			Model:     p.AIPrimaryModel,
			FastModel: p.AIPrimaryFastModel,
			Timeout:   providerTimeout,
		},
		Secondary: ProviderConfig{
			Name:      p.AISecondaryName,
			BaseURL:   p.AISecondaryBaseURL,
			APIKey:    p.AISecondaryAPIKey,
			Model:     p.AISecondaryModel,
			FastModel: p.AISecondaryFastModel,
			Timeout:   providerTimeout,
		},
		Embedding: EmbeddingConfig{
			Model:         p.AIEmbeddingModel,
			Dimensions:    p.AIEmbeddingDimensions,
			APIKey:        p.AIEmbeddingAPIKey,
			BaseURL:       p.AIEmbeddingBaseURL,
			MaxInputChars: DefaultMaxEmbeddingChars,
			Timeout:       timeout.EmbeddingTimeout,
		},
	}
}

// Provider returns the provider configuration for a role.
func (c *Config) Provider(role ProviderRole) ProviderConfig {
	if role == ProviderSecondary {
		return c.Secondary
	}
	return c.Primary
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, role := range []ProviderRole{ProviderPrimary, ProviderSecondary} {
		pc := c.Provider(role)
		if pc.BaseURL == "" {
			return fmt.Errorf("%s provider base URL is required", role)
		}
		if pc.APIKey == "" {
			return fmt.Errorf("%s provider (%s) API key is required", role, pc.Name)
		}
		if pc.Model == "" {
			return fmt.Errorf("%s provider model is required", role)
		}
	}

	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}

	return nil
}
