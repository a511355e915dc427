package disruptor

import (
	"fmt"

	"github.com/creastat/disruptor/core"
	"github.com/kelseyhightower/envconfig"
)

// Config holds disruptor configuration loaded from the environment
type Config struct {
	BufferSize   int    `envconfig:"BUFFER_SIZE" default:"1024"`
	WaitStrategy string `envconfig:"WAIT_STRATEGY" default:"blocking"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads configuration from environment variables under prefix,
// e.g. DISRUPTOR_BUFFER_SIZE for prefix "disruptor"
func LoadConfig(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() *Config {
	return &Config{
		BufferSize:   1024,
		WaitStrategy: string(core.WaitStrategyBlocking),
		LogLevel:     "info",
	}
}

// NewFromConfig creates a disruptor from cfg. Options given here override cfg.
func NewFromConfig[T any](factory func() T, cfg *Config, opts ...Option) (*Disruptor[T], error) {
	waitStrategy, err := core.ParseWaitStrategy(cfg.WaitStrategy)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	all := append([]Option{WithWaitStrategy(waitStrategy), WithLogLevel(cfg.LogLevel)}, opts...)
	return New(factory, cfg.BufferSize, all...)
}
