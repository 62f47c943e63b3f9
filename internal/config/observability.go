package config

// TracingConfig holds OTLP trace export configuration.
//
// Traces are sent to a local OpenTelemetry collector over OTLP/HTTP.
// See internal/observability for the exporter setup.
type TracingConfig struct {
	// Enabled toggles trace export; disabled installs a no-op provider.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP/HTTP collector endpoint (default: localhost:4318).
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Environment is the deployment environment tag (default: dev).
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the service name on exported spans (default: geochain).
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}
