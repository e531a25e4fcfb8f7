package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy selects how the dispatcher treats multiple endpoints.
type Policy string

const (
	// PolicyFirstSuccess walks endpoints in registration order and returns the first success.
	PolicyFirstSuccess Policy = "first-success"
	// PolicyConfirm queries every endpoint concurrently and requires all successes to agree.
	PolicyConfirm Policy = "confirm"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxRetries   = 1
	DefaultRetryBackoff = 250 * time.Millisecond
)

// Client is a named RPC endpoint as written in the config file.
type Client struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config holds all provider settings loaded from the YAML file.
type Config struct {
	Network         NetworkType `yaml:"network"`
	TimeoutStr      string      `yaml:"timeout"`
	RetryBackoffStr string      `yaml:"retryBackoff"`
	MaxRetries      *int        `yaml:"maxRetries"`
	Policy          Policy      `yaml:"policy"`
	Clients         []Client    `yaml:"clients"`

	// Parsed values - marked with `yaml:"-"` to be ignored by the parser.
	Timeout      time.Duration `yaml:"-"`
	RetryBackoff time.Duration `yaml:"-"`
}

// Default returns a configuration with every default applied and no clients.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail to parse.
	_ = cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from the specified YAML file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML data and sets default values where missing.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MaxRetriesOrDefault returns the configured retry count for transient failures.
func (c *Config) MaxRetriesOrDefault() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

// Validate checks a Config that may have been built in code rather than
// parsed. Zero durations and an empty policy or network are left for the
// defaults; anything else unknown or negative is rejected.
func (c *Config) Validate() error {
	switch c.Policy {
	case "", PolicyFirstSuccess, PolicyConfirm:
	default:
		return fmt.Errorf("invalid policy '%s'", c.Policy)
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("invalid maxRetries %d", *c.MaxRetries)
	}
	if c.Network != "" {
		if _, err := ForNetwork(c.Network); err != nil {
			return err
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retryBackoff must not be negative, got %s", c.RetryBackoff)
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.Network == "" {
		c.Network = NetworkLocal
	}
	if c.Policy == "" {
		c.Policy = PolicyFirstSuccess
	}
	if c.TimeoutStr == "" {
		c.TimeoutStr = DefaultTimeout.String()
	}
	if c.RetryBackoffStr == "" {
		c.RetryBackoffStr = DefaultRetryBackoff.String()
	}

	var err error
	c.Timeout, err = time.ParseDuration(c.TimeoutStr)
	if err != nil {
		return fmt.Errorf("invalid timeout duration '%s': %w", c.TimeoutStr, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	c.RetryBackoff, err = time.ParseDuration(c.RetryBackoffStr)
	if err != nil {
		return fmt.Errorf("invalid retryBackoff duration '%s': %w", c.RetryBackoffStr, err)
	}
	return c.Validate()
}
