package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3001
	defaultDBPath     = "decode.db"
	defaultEnv        = "development"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int      `yaml:"port"`
	DatabasePath   string   `yaml:"database_path"`
	RedisURL       string   `yaml:"redis_url"`
	Env            string   `yaml:"env"` // "development" | "production"
	AllowedOrigins []string `yaml:"allowed_origins"`
	JWTSecret      string   `yaml:"jwt_secret"`
	AI             AIConfig `yaml:"ai"`
}

// AIConfig configures model providers and per-use-case model assignments.
type AIConfig struct {
	Providers    []AIProvider       `yaml:"providers"`
	ExplainModel *AIModelAssignment `yaml:"explain_model,omitempty"`
	TitleModel   *AIModelAssignment `yaml:"title_model,omitempty"`
	ExtractModel *AIModelAssignment `yaml:"extract_model,omitempty"`
}

// AIModelAssignment pins a use case to a provider and optional model override.
type AIModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

// AIProvider describes one upstream model endpoint.
type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "development") || c.Env == ""
}

// Load reads the YAML config file and applies defaults and env overrides.
// A missing file is not an error: defaults plus env apply.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		cfg.DatabasePath = defaultDBPath
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = defaultEnv
	}
}

// applyEnvOverrides keeps parity with the original dotenv deployment style:
// a bare API key in the environment is enough to get a working provider.
func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("DECODE_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("DECODE_DB_PATH")); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(os.Getenv("DECODE_REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DECODE_ENV")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("DECODE_JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}

	if v := strings.TrimSpace(os.Getenv("GROQ_API_KEY")); v != "" && len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = append(cfg.AI.Providers, AIProvider{
			ID:           "groq",
			Name:         "Groq",
			Type:         "OpenAI-Compatible",
			APIKey:       v,
			Endpoint:     "https://api.groq.com/openai",
			DefaultModel: "llama-3.3-70b-versatile",
			Enabled:      true,
		})
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = append(cfg.AI.Providers, AIProvider{
			ID:           "openai",
			Name:         "OpenAI",
			Type:         "OpenAI",
			APIKey:       v,
			DefaultModel: "gpt-4o-mini",
			Enabled:      true,
		})
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" && len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = append(cfg.AI.Providers, AIProvider{
			ID:           "anthropic",
			Name:         "Anthropic",
			Type:         "Anthropic",
			APIKey:       v,
			DefaultModel: "claude-haiku-4-5-20251001",
			Enabled:      true,
		})
	}
}
