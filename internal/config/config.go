// Package config provides configuration management for the related-work
// retrieval service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/helixir/related-work-service/internal/observability"
	"github.com/helixir/related-work-service/internal/papersources/arxiv"
	"github.com/helixir/related-work-service/internal/papersources/semanticscholar"
	"github.com/helixir/related-work-service/internal/pdf"
	"github.com/helixir/related-work-service/internal/retrieval"
	"github.com/helixir/related-work-service/internal/storage"
)

// Config holds all configuration for the service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Storage contains the tier directory locations.
	Storage StorageConfig `mapstructure:"storage"`
	// Logging contains structured logging settings.
	Logging observability.LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Retrieval contains merger settings.
	Retrieval retrieval.Config `mapstructure:"retrieval"`
	// PDF contains download client settings.
	PDF pdf.Config `mapstructure:"pdf"`
	// Materializer contains the download pool settings.
	Materializer retrieval.MaterializerConfig `mapstructure:"materializer"`
	// Sources contains the remote source adapter settings.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig aliases the store's own config so viper unmarshals it in
// place.
type StorageConfig = storage.Config

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// SourcesConfig holds configuration for the remote paper sources.
type SourcesConfig struct {
	// ArXiv contains arXiv API settings.
	ArXiv arxiv.Config `mapstructure:"arxiv"`
	// SemanticScholar contains Semantic Scholar Graph API settings.
	SemanticScholar semanticscholar.Config `mapstructure:"semantic_scholar"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RELATEDWORK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/related-work-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine, env vars and defaults cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" so they never load from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment
// variables.
func loadSecrets(cfg *Config) {
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("RELATEDWORK_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Storage defaults
	v.SetDefault("storage.curated_dir", "data/curated")
	v.SetDefault("storage.cached_dir", "data/cached")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "relatedwork")

	// Retrieval defaults
	v.SetDefault("retrieval.default_max_results", 20)
	v.SetDefault("retrieval.dedup_threshold", retrieval.DefaultDedupThreshold)
	v.SetDefault("retrieval.over_fetch_factor", 2)

	// PDF download defaults
	v.SetDefault("pdf.timeout", "60s")
	v.SetDefault("pdf.max_size", 50*1024*1024)
	v.SetDefault("pdf.allow_private_networks", false)

	// Materializer defaults
	v.SetDefault("materializer.workers", 4)
	v.SetDefault("materializer.timeout", "60s")

	// arXiv defaults. arXiv asks clients to stay under 3 req/sec.
	v.SetDefault("sources.arxiv.enabled", true)
	v.SetDefault("sources.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("sources.arxiv.timeout", "30s")
	v.SetDefault("sources.arxiv.rate_limit", 3.0)
	v.SetDefault("sources.arxiv.burst_size", 3)
	v.SetDefault("sources.arxiv.max_results", 100)

	// Semantic Scholar defaults. Unauthenticated clients share a pool of
	// roughly 1 req/sec.
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "30s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0)
	v.SetDefault("sources.semantic_scholar.burst_size", 1)
	v.SetDefault("sources.semantic_scholar.max_results", 100)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	if c.Storage.CuratedDir == "" {
		return fmt.Errorf("storage curated_dir is required")
	}
	if c.Storage.CachedDir == "" {
		return fmt.Errorf("storage cached_dir is required")
	}
	if c.Storage.CuratedDir == c.Storage.CachedDir {
		return fmt.Errorf("storage tiers must use distinct directories")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Retrieval.DedupThreshold < 0 || c.Retrieval.DedupThreshold > 1 {
		return fmt.Errorf("dedup threshold must be between 0 and 1")
	}
	if c.Retrieval.DefaultMaxResults <= 0 {
		return fmt.Errorf("default max results must be positive")
	}
	if c.Materializer.Workers <= 0 {
		return fmt.Errorf("materializer workers must be positive")
	}

	return nil
}
