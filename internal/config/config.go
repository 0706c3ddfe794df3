package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/knirvcorp/knirvembed/go/internal/embedding"
)

// Strategy selects which embedding backend is constructed.
type Strategy string

const (
	StrategyTFIDF    Strategy = "tfidf"
	StrategySpectral Strategy = "spectral"
)

// EmbedderConfig selects and configures the embedding backend.
type EmbedderConfig struct {
	Strategy         Strategy `yaml:"strategy"`
	embedding.Config `yaml:",inline"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig configures span export. Tracing is off unless an endpoint is
// set.
type TracingConfig struct {
	ServiceName    string `yaml:"service_name"`
	JaegerEndpoint string `yaml:"jaeger_endpoint"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// Load reads a config from the given path. A missing file returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Validate rejects unrecognized strategy, method and smoothing names.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Strategy {
	case StrategyTFIDF, StrategySpectral:
	default:
		return fmt.Errorf("strategy %q: %w", c.Embedder.Strategy, embedding.ErrUnsupportedMethod)
	}
	return c.Embedder.Config.Validate()
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.Strategy == "" {
		cfg.Embedder.Strategy = StrategyTFIDF
	}
	cfg.Embedder.Config = cfg.Embedder.Config.WithDefaults()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "knirvembed"
	}
}
