package corpus

// SearchOption configures search behavior using the functional options
// pattern, mirroring context.WithTimeout-style APIs.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	fetchK  int
	filters map[string]string
}

// Defaults for search behavior. fetchK deliberately exceeds topK so MMR has
// a pool to diversify over.
const (
	DefaultTopK   = 30
	DefaultFetchK = 100
)

// WithTopK sets the maximum number of results to return.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithFetchK sets the candidate-pool size for pool (MMR-capable) searches.
func WithFetchK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.fetchK = k
		}
	}
}

// WithFilter restricts results by a metadata field. Supported keys:
// "source_name", "source_type", and "country" (membership in the document's
// countries list). Multiple filters combine with AND.
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filters == nil {
			c.filters = make(map[string]string)
		}
		c.filters[key] = value
	}
}

// buildSearchConfig applies options over the defaults.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:   DefaultTopK,
		fetchK: DefaultFetchK,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fetchK < cfg.topK {
		cfg.fetchK = cfg.topK
	}
	return cfg
}
