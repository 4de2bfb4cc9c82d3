package profile

import (
	"testing"
	"time"
)

var aiEnvVars = []string{
	"KIRA_DRIVER", "KIRA_DSN", "SUPABASE_DB_URL",
	"KIRA_AI_PRIMARY_NAME", "KIRA_AI_PRIMARY_BASE_URL", "KIRA_AI_PRIMARY_API_KEY", "GROQ_API_KEY",
	"KIRA_AI_PRIMARY_MODEL", "KIRA_AI_PRIMARY_FAST_MODEL",
	"KIRA_AI_SECONDARY_NAME", "KIRA_AI_SECONDARY_BASE_URL", "KIRA_AI_SECONDARY_API_KEY", "OPENROUTER_API_KEY",
	"KIRA_AI_SECONDARY_MODEL", "KIRA_AI_SECONDARY_FAST_MODEL",
	"KIRA_AI_EMBEDDING_BASE_URL", "KIRA_AI_EMBEDDING_API_KEY", "OPENAI_API_KEY",
	"KIRA_AI_EMBEDDING_MODEL", "KIRA_AI_EMBEDDING_DIMENSIONS",
	"KIRA_PROVIDER_TIMEOUT", "KIRA_COMMAND_TIMEOUT",
	"KIRA_AVATAR_BRIDGE_URL", "BRIDGE_URL", "KIRA_DASHBOARD_URL", "KIRA_SCRIPTS_DIR",
}

// clearAIEnvVars blanks every variable FromEnv reads for the duration of the test.
func clearAIEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range aiEnvVars {
		t.Setenv(key, "")
	}
}

func TestProfileDefaults(t *testing.T) {
	clearAIEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"Driver default", "postgres", profile.Driver},
		{"AIPrimaryName default", "groq", profile.AIPrimaryName},
		{"AIPrimaryBaseURL default", "https://api.groq.com/openai/v1", profile.AIPrimaryBaseURL},
		{"AIPrimaryModel default", "llama-3.3-70b-versatile", profile.AIPrimaryModel},
		{"AISecondaryName default", "openrouter", profile.AISecondaryName},
		{"AISecondaryBaseURL default", "https://openrouter.ai/api/v1", profile.AISecondaryBaseURL},
		{"AIEmbeddingModel default", "text-embedding-3-small", profile.AIEmbeddingModel},
		{"DashboardURL default", "http://localhost:3001", profile.DashboardURL},
		{"AvatarBridgeURL default", "", profile.AvatarBridgeURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.AIEmbeddingDimensions != 1536 {
		t.Errorf("AIEmbeddingDimensions: expected 1536, got %d", profile.AIEmbeddingDimensions)
	}
	if profile.ProviderTimeout != 30*time.Second {
		t.Errorf("ProviderTimeout: expected 30s, got %s", profile.ProviderTimeout)
	}
	if profile.CommandTimeout != 12*time.Second {
		t.Errorf("CommandTimeout: expected 12s, got %s", profile.CommandTimeout)
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "new key",
			env:      map[string]string{"KIRA_AI_PRIMARY_API_KEY": "gsk-new"},
			field:    func(p *Profile) string { return p.AIPrimaryAPIKey },
			expected: "gsk-new",
		},
		{
			name:     "legacy key",
			env:      map[string]string{"GROQ_API_KEY": "gsk-legacy"},
			field:    func(p *Profile) string { return p.AIPrimaryAPIKey },
			expected: "gsk-legacy",
		},
		{
			name:     "new key wins over legacy",
			env:      map[string]string{"KIRA_AI_SECONDARY_API_KEY": "or-new", "OPENROUTER_API_KEY": "or-legacy"},
			field:    func(p *Profile) string { return p.AISecondaryAPIKey },
			expected: "or-new",
		},
		{
			name:     "bridge legacy url",
			env:      map[string]string{"BRIDGE_URL": "http://bridge:8080"},
			field:    func(p *Profile) string { return p.AvatarBridgeURL },
			expected: "http://bridge:8080",
		},
		{
			name:     "supabase dsn",
			env:      map[string]string{"SUPABASE_DB_URL": "postgres://kira@db/kira"},
			field:    func(p *Profile) string { return p.DSN },
			expected: "postgres://kira@db/kira",
		},
		{
			name:     "provider timeout",
			env:      map[string]string{"KIRA_PROVIDER_TIMEOUT": "45s"},
			field:    func(p *Profile) string { return p.ProviderTimeout.String() },
			expected: "45s",
		},
		{
			name:     "invalid timeout falls back to default",
			env:      map[string]string{"KIRA_COMMAND_TIMEOUT": "soon"},
			field:    func(p *Profile) string { return p.CommandTimeout.String() },
			expected: "12s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAIEnvVars(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			p := &Profile{}
			p.FromEnv()
			if got := tt.field(p); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	t.Run("postgres requires dsn", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "postgres"}
		if err := p.Validate(); err == nil {
			t.Fatal("expected error for missing DSN")
		}
	})

	t.Run("sqlite derives dsn from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}
		if err := p.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.DSN == "" {
			t.Fatal("expected DSN to be derived")
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		p := &Profile{Driver: "mysql"}
		if err := p.Validate(); err == nil {
			t.Fatal("expected error for mysql driver")
		}
	})

	t.Run("unknown mode becomes demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Driver: "postgres", DSN: "postgres://x"}
		if err := p.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Mode != "demo" {
			t.Errorf("expected demo mode, got %q", p.Mode)
		}
	})
}
