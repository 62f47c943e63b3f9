// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.geochain/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Storage: PostgreSQL connection (see storage.go)
//   - Retrieval: expansion, MMR, balancing and citation knobs
//   - Server: HTTP listen address, CORS, rate limiting
//   - Tracing: OTLP trace export (see observability.go)
//
// Sensitive data (passwords, API keys) is never logged; see MarshalJSON.
// Validation lives in validation.go and returns sentinel errors for
// errors.Is() checks.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidRetrieval indicates a retrieval knob is out of range.
	ErrInvalidRetrieval = errors.New("invalid retrieval setting")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidServerPort indicates the HTTP server port is out of range.
	ErrInvalidServerPort = errors.New("invalid server port")

	// ErrInvalidRateLimit indicates the rate limit settings are out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// DefaultGeminiEmbedderModel is the default Gemini embedder model.
// gemini-embedding-001 supports truncation to 768 dimensions via
// OutputDimensionality; the pgvector schema stores 768-dimensional vectors.
const DefaultGeminiEmbedderModel = "gemini-embedding-001"

// RetrievalConfig holds the retrieval pipeline knobs.
type RetrievalConfig struct {
	// MaxVariants bounds the expanded query list, original included.
	MaxVariants int `mapstructure:"max_variants" json:"max_variants"`
	// FetchK is the candidate pool size per variant.
	FetchK int `mapstructure:"fetch_k" json:"fetch_k"`
	// TopK is the MMR selection size per variant.
	TopK int `mapstructure:"top_k" json:"top_k"`
	// Lambda is the MMR relevance/diversity weight in (0, 1].
	Lambda float64 `mapstructure:"lambda" json:"lambda"`
	// TargetTotal is the balanced selection size handed to citation.
	TargetTotal int `mapstructure:"target_total" json:"target_total"`
	// ContextChars bounds each citation context entry.
	ContextChars int `mapstructure:"context_chars" json:"context_chars"`
	// MinDistinctSources is the diversity floor the prompt asks for.
	MinDistinctSources int `mapstructure:"min_distinct_sources" json:"min_distinct_sources"`
	// WarnDistinctSources is the post-generation verification floor.
	WarnDistinctSources int `mapstructure:"warn_distinct_sources" json:"warn_distinct_sources"`
	// VariantTimeout is the per-variant retrieval budget.
	VariantTimeout time.Duration `mapstructure:"variant_timeout" json:"variant_timeout"`
	// OverallTimeout bounds a whole pipeline run across all variants.
	OverallTimeout time.Duration `mapstructure:"overall_timeout" json:"overall_timeout"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host" json:"host"`
	Port        int      `mapstructure:"port" json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	// TrustProxy trusts X-Real-IP/X-Forwarded-For (set true behind a reverse proxy).
	TrustProxy bool `mapstructure:"trust_proxy" json:"trust_proxy"`
	// RateLimitRPS is the sustained per-client request rate.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps" json:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"`     // "gemini" (default), "ollama", "openai"
	ModelName string `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash", "llama3.3", "gpt-4o"

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Retrieval pipeline configuration
	Retrieval RetrievalConfig `mapstructure:"retrieval" json:"retrieval"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration (serve mode only)
	Server ServerConfig `mapstructure:"server" json:"server"`

	// Tracing configuration (see observability.go)
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Dir returns the configuration directory (~/.geochain), creating it if
// needed. Tools that need scratch state (lock files) share this directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".geochain")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return configDir, nil
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	configDir, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // also support the current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultGeminiEmbedderModel)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Retrieval defaults
	viper.SetDefault("retrieval.max_variants", 3)
	viper.SetDefault("retrieval.fetch_k", 100)
	viper.SetDefault("retrieval.top_k", 30)
	viper.SetDefault("retrieval.lambda", 0.5)
	viper.SetDefault("retrieval.target_total", 15)
	viper.SetDefault("retrieval.context_chars", 1000)
	viper.SetDefault("retrieval.min_distinct_sources", 3)
	viper.SetDefault("retrieval.warn_distinct_sources", 2)
	viper.SetDefault("retrieval.variant_timeout", "10s")
	viper.SetDefault("retrieval.overall_timeout", "25s")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "geochain")
	viper.SetDefault("postgres_password", "geochain_dev_password")
	viper.SetDefault("postgres_db_name", "geochain")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	viper.SetDefault("server.trust_proxy", false)
	viper.SetDefault("server.rate_limit_rps", 5.0)
	viper.SetDefault("server.rate_limit_burst", 10)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.endpoint", "localhost:4318")
	viper.SetDefault("tracing.environment", "dev")
	viper.SetDefault("tracing.service_name", "geochain")
}

// bindEnvVariables binds environment overrides explicitly.
// API keys are not bound here: GEMINI_API_KEY and OPENAI_API_KEY are read
// directly by the Genkit plugins; Validate checks their presence for the
// selected provider.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "GEOCHAIN_PROVIDER")
	mustBind("model_name", "GEOCHAIN_MODEL_NAME")
	mustBind("embedder_model", "GEOCHAIN_EMBEDDER_MODEL")
	mustBind("ollama_host", "GEOCHAIN_OLLAMA_HOST")

	mustBind("retrieval.max_variants", "GEOCHAIN_MAX_VARIANTS")
	mustBind("retrieval.fetch_k", "GEOCHAIN_FETCH_K")
	mustBind("retrieval.top_k", "GEOCHAIN_TOP_K")
	mustBind("retrieval.lambda", "GEOCHAIN_LAMBDA")
	mustBind("retrieval.target_total", "GEOCHAIN_TARGET_TOTAL")
	mustBind("retrieval.variant_timeout", "GEOCHAIN_VARIANT_TIMEOUT")
	mustBind("retrieval.overall_timeout", "GEOCHAIN_OVERALL_TIMEOUT")

	mustBind("server.host", "GEOCHAIN_HOST")
	mustBind("server.port", "GEOCHAIN_PORT")
	mustBind("server.cors_origins", "GEOCHAIN_CORS_ORIGINS")
	mustBind("server.trust_proxy", "GEOCHAIN_TRUST_PROXY")

	mustBind("tracing.enabled", "GEOCHAIN_TRACING_ENABLED")
	mustBind("tracing.endpoint", "GEOCHAIN_TRACING_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching: "****" leaks
// passwords containing "*", "[REDACTED]" leaks passwords containing its
// letters.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked to prevent substring matching; longer secrets keep
// the first and last 2 characters for debug utility.
//
// This defends against accidental logging of real secrets, not against
// compromised logs. If logs leak, rotate secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// ServerAddr returns the host:port the HTTP server listens on.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
