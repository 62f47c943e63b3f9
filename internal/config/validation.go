package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider and API key validation
	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required",
				ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty for the ollama provider",
				ErrInvalidProvider)
		}
	default:
		return fmt.Errorf("%w: %q is not supported, must be one of: gemini, openai, ollama",
			ErrInvalidProvider, c.Provider)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 3. Retrieval configuration validation
	if err := c.Retrieval.validate(); err != nil {
		return err
	}

	// 4. PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}
	// Warn on the default dev password but do not block dev setups.
	if c.PostgresPassword == "geochain_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// 5. PostgreSQL SSL mode validation. Modern modes only: the deprecated
	// allow/prefer modes are vulnerable to MITM downgrade.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if c.PostgresSSLMode == "" {
		return fmt.Errorf("%w: postgres_ssl_mode is empty (should have default from setDefaults)",
			ErrInvalidPostgresSSLMode)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// 6. Server configuration validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidServerPort, c.Server.Port)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("%w: rate_limit_rps must be positive, got %g",
			ErrInvalidRateLimit, c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("%w: rate_limit_burst must be at least 1, got %d",
			ErrInvalidRateLimit, c.Server.RateLimitBurst)
	}

	return nil
}

func (r RetrievalConfig) validate() error {
	if r.MaxVariants < 1 || r.MaxVariants > 10 {
		return fmt.Errorf("%w: max_variants must be between 1 and 10, got %d",
			ErrInvalidRetrieval, r.MaxVariants)
	}
	if r.FetchK < 1 || r.FetchK > 1000 {
		return fmt.Errorf("%w: fetch_k must be between 1 and 1000, got %d",
			ErrInvalidRetrieval, r.FetchK)
	}
	if r.TopK < 1 || r.TopK > r.FetchK {
		return fmt.Errorf("%w: top_k must be between 1 and fetch_k (%d), got %d",
			ErrInvalidRetrieval, r.FetchK, r.TopK)
	}
	if r.Lambda <= 0 || r.Lambda > 1 {
		return fmt.Errorf("%w: lambda must be in (0, 1], got %g",
			ErrInvalidRetrieval, r.Lambda)
	}
	if r.TargetTotal < 1 || r.TargetTotal > r.TopK*10 {
		return fmt.Errorf("%w: target_total must be between 1 and %d, got %d",
			ErrInvalidRetrieval, r.TopK*10, r.TargetTotal)
	}
	if r.ContextChars < 100 {
		return fmt.Errorf("%w: context_chars must be at least 100, got %d",
			ErrInvalidRetrieval, r.ContextChars)
	}
	if r.MinDistinctSources < 1 {
		return fmt.Errorf("%w: min_distinct_sources must be at least 1, got %d",
			ErrInvalidRetrieval, r.MinDistinctSources)
	}
	if r.WarnDistinctSources < 1 || r.WarnDistinctSources > r.MinDistinctSources {
		return fmt.Errorf("%w: warn_distinct_sources must be between 1 and min_distinct_sources (%d), got %d",
			ErrInvalidRetrieval, r.MinDistinctSources, r.WarnDistinctSources)
	}
	// Zero timeouts fall back to pipeline defaults; negative ones are bugs.
	if r.VariantTimeout < 0 || r.OverallTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative, got variant=%s overall=%s",
			ErrInvalidRetrieval, r.VariantTimeout, r.OverallTimeout)
	}
	if r.VariantTimeout > 0 && r.OverallTimeout > 0 && r.VariantTimeout > r.OverallTimeout {
		return fmt.Errorf("%w: variant_timeout (%s) must not exceed overall_timeout (%s)",
			ErrInvalidRetrieval, r.VariantTimeout, r.OverallTimeout)
	}
	return nil
}
