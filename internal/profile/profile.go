package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the router.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for the HTTP server
	Addr string
	// Port is the binding port for the HTTP server
	Port int
	// Data is the data directory
	Data string
	// DSN points to the remote data store (Supabase Postgres) or a local SQLite file
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the router
	Version string

	// Chat providers. Primary and secondary are each other's fallback.
	AIPrimaryName        string // KIRA_AI_PRIMARY_NAME (default: groq)
	AIPrimaryBaseURL     string // KIRA_AI_PRIMARY_BASE_URL (default: https://api.groq.com/openai/v1)
	AIPrimaryAPIKey      string // KIRA_AI_PRIMARY_API_KEY (legacy: GROQ_API_KEY)
	AIPrimaryModel       string // KIRA_AI_PRIMARY_MODEL (default: llama-3.3-70b-versatile)
	AIPrimaryFastModel   string // KIRA_AI_PRIMARY_FAST_MODEL (default: llama-3.1-8b-instant)
	AISecondaryName      string // KIRA_AI_SECONDARY_NAME (default: openrouter)
	AISecondaryBaseURL   string // KIRA_AI_SECONDARY_BASE_URL (default: https://openrouter.ai/api/v1)
	AISecondaryAPIKey    string // KIRA_AI_SECONDARY_API_KEY (legacy: OPENROUTER_API_KEY)
	AISecondaryModel     string // KIRA_AI_SECONDARY_MODEL (default: anthropic/claude-3.5-haiku)
	AISecondaryFastModel string // KIRA_AI_SECONDARY_FAST_MODEL (default: meta-llama/llama-3.1-8b-instruct)

	// Embeddings
	AIEmbeddingBaseURL    string // KIRA_AI_EMBEDDING_BASE_URL (default: https://api.openai.com/v1)
	AIEmbeddingAPIKey     string // KIRA_AI_EMBEDDING_API_KEY (legacy: OPENAI_API_KEY)
	AIEmbeddingModel      string // KIRA_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIEmbeddingDimensions int    // KIRA_AI_EMBEDDING_DIMENSIONS (default: 1536)

	// Timeouts
	ProviderTimeout time.Duration // KIRA_PROVIDER_TIMEOUT (default: 30s)
	CommandTimeout  time.Duration // KIRA_COMMAND_TIMEOUT (default: 12s)

	// Collaborators
	AvatarBridgeURL string // KIRA_AVATAR_BRIDGE_URL (legacy: BRIDGE_URL), empty disables speech
	DashboardURL    string // KIRA_DASHBOARD_URL (default: http://localhost:3001)
	ScriptsDir      string // KIRA_SCRIPTS_DIR (default: ./skills)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// KIRA_* keys win over the legacy names the shell skills use.
func (p *Profile) FromEnv() {
	getEnvWithDefault := func(newKey, legacyKey, defaultValue string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		if legacyKey != "" {
			if val := os.Getenv(legacyKey); val != "" {
				return val
			}
		}
		return defaultValue
	}

	getDurationEnv := func(key string, defaultValue time.Duration) time.Duration {
		raw := os.Getenv(key)
		if raw == "" {
			return defaultValue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", defaultValue)
			return defaultValue
		}
		return d
	}

	if p.Driver == "" {
		p.Driver = getEnvOrDefault("KIRA_DRIVER", "postgres")
	}
	if p.DSN == "" {
		p.DSN = getEnvWithDefault("KIRA_DSN", "SUPABASE_DB_URL", "")
	}

	p.AIPrimaryName = getEnvOrDefault("KIRA_AI_PRIMARY_NAME", "groq")
	p.AIPrimaryBaseURL = getEnvOrDefault("KIRA_AI_PRIMARY_BASE_URL", "https://api.groq.com/openai/v1")
	p.AIPrimaryAPIKey = getEnvWithDefault("KIRA_AI_PRIMARY_API_KEY", "GROQ_API_KEY", "")
	p.AIPrimaryModel = getEnvOrDefault("KIRA_AI_PRIMARY_MODEL", "llama-3.3-70b-versatile")
	p.AIPrimaryFastModel = getEnvOrDefault("KIRA_AI_PRIMARY_FAST_MODEL", "llama-3.1-8b-instant")
	p.AISecondaryName = getEnvOrDefault("KIRA_AI_SECONDARY_NAME", "openrouter")
	p.AISecondaryBaseURL = getEnvOrDefault("KIRA_AI_SECONDARY_BASE_URL", "https://openrouter.ai/api/v1")
	p.AISecondaryAPIKey = getEnvWithDefault("KIRA_AI_SECONDARY_API_KEY", "OPENROUTER_API_KEY", "")
	p.AISecondaryModel = getEnvOrDefault("KIRA_AI_SECONDARY_MODEL", "anthropic/claude-3.5-haiku")
	p.AISecondaryFastModel = getEnvOrDefault("KIRA_AI_SECONDARY_FAST_MODEL", "meta-llama/llama-3.1-8b-instruct")

	p.AIEmbeddingBaseURL = getEnvOrDefault("KIRA_AI_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	p.AIEmbeddingAPIKey = getEnvWithDefault("KIRA_AI_EMBEDDING_API_KEY", "OPENAI_API_KEY", "")
	p.AIEmbeddingModel = getEnvOrDefault("KIRA_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.AIEmbeddingDimensions = 1536
	if raw := os.Getenv("KIRA_AI_EMBEDDING_DIMENSIONS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.AIEmbeddingDimensions = n
		}
	}

	p.ProviderTimeout = getDurationEnv("KIRA_PROVIDER_TIMEOUT", 30*time.Second)
	p.CommandTimeout = getDurationEnv("KIRA_COMMAND_TIMEOUT", 12*time.Second)

	p.AvatarBridgeURL = getEnvWithDefault("KIRA_AVATAR_BRIDGE_URL", "BRIDGE_URL", "")
	p.DashboardURL = getEnvOrDefault("KIRA_DASHBOARD_URL", "http://localhost:3001")
	p.ScriptsDir = getEnvOrDefault("KIRA_SCRIPTS_DIR", "./skills")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	switch p.Driver {
	case "postgres":
		if p.DSN == "" {
			return errors.New("postgres driver requires a DSN (KIRA_DSN or SUPABASE_DB_URL)")
		}
	case "sqlite":
		if p.DSN != "" {
			break
		}
		if p.Data == "" {
			if runtime.GOOS == "windows" {
				p.Data = filepath.Join(os.Getenv("ProgramData"), "kira")
			} else {
				p.Data = "."
			}
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("kira_%s.db", p.Mode))
	default:
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.ProviderTimeout <= 0 {
		p.ProviderTimeout = 30 * time.Second
	}
	if p.CommandTimeout <= 0 {
		p.CommandTimeout = 12 * time.Second
	}

	return nil
}
