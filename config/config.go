package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/hashsplit"
)

// Size is a byte count that accepts human readable forms such as 64Ki or 2MiB
type Size int

// ParseSize parses a byte count. Binary suffixes (Ki, Mi, Gi) and decimal
// ones (k, M, G) are both accepted.
func ParseSize(s string) (Size, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > uint64(int(^uint(0)>>1)) {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return Size(n), nil
}

// UnmarshalYAML accepts integers and human readable strings
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	size, err := ParseSize(value.Value)
	if err != nil {
		return err
	}
	*s = size
	return nil
}

// String renders the size with the largest exact binary unit
func (s Size) String() string {
	return hashsplit.FormatSize(int(s))
}

type InputConfig struct {
	Decompress string `yaml:"decompress"` // "none", "gzip", "zstd" or "auto"
	RateLimit  Size   `yaml:"rate_limit"` // bytes per second across all inputs, 0 for unlimited
}

type OutputConfig struct {
	Format  string `yaml:"format"` // "text" or "json"
	Digests bool   `yaml:"digests"`
}

type MonitoringConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" or "text"
}

type Config struct {
	Algorithm      string           `yaml:"algorithm"`
	Threshold      uint32           `yaml:"threshold"`
	MinSize        Size             `yaml:"min_size"`
	MaxSize        Size             `yaml:"max_size"`
	TreeThresholds []uint32         `yaml:"tree_thresholds"`
	Workers        int              `yaml:"workers"`
	Input          InputConfig      `yaml:"input"`
	Output         OutputConfig     `yaml:"output"`
	Monitoring     MonitoringConfig `yaml:"monitoring"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{
		Threshold:      13,
		MinSize:        64 * 1024,
		MaxSize:        2 * 1024 * 1024,
		TreeThresholds: []uint32{17, 21},
		Output:         OutputConfig{Digests: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads path over the defaults, applies HASHSPLIT_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	// Override with environment variables
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	// Apply defaults
	cfg.applyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides overrides config values with environment variables if set
func (c *Config) applyEnvironmentOverrides() error {
	if val := os.Getenv("HASHSPLIT_ALGORITHM"); val != "" {
		c.Algorithm = val
	}
	if val := os.Getenv("HASHSPLIT_THRESHOLD"); val != "" {
		t, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return fmt.Errorf("HASHSPLIT_THRESHOLD: %w", err)
		}
		c.Threshold = uint32(t)
	}
	if val := os.Getenv("HASHSPLIT_MIN_SIZE"); val != "" {
		size, err := ParseSize(val)
		if err != nil {
			return fmt.Errorf("HASHSPLIT_MIN_SIZE: %w", err)
		}
		c.MinSize = size
	}
	if val := os.Getenv("HASHSPLIT_MAX_SIZE"); val != "" {
		size, err := ParseSize(val)
		if err != nil {
			return fmt.Errorf("HASHSPLIT_MAX_SIZE: %w", err)
		}
		c.MaxSize = size
	}
	if val := os.Getenv("HASHSPLIT_WORKERS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("HASHSPLIT_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if val := os.Getenv("HASHSPLIT_DECOMPRESS"); val != "" {
		c.Input.Decompress = val
	}
	if val := os.Getenv("HASHSPLIT_RATE_LIMIT"); val != "" {
		size, err := ParseSize(val)
		if err != nil {
			return fmt.Errorf("HASHSPLIT_RATE_LIMIT: %w", err)
		}
		c.Input.RateLimit = size
	}
	if val := os.Getenv("HASHSPLIT_OUTPUT_FORMAT"); val != "" {
		c.Output.Format = val
	}
	if val := os.Getenv("HASHSPLIT_LOG_LEVEL"); val != "" {
		c.Monitoring.LogLevel = val
	}
	if val := os.Getenv("HASHSPLIT_LOG_FORMAT"); val != "" {
		c.Monitoring.LogFormat = val
	}
	return nil
}

// applyDefaults sets default values for unset configuration fields
func (c *Config) applyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "RRS1"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.Input.Decompress == "" {
		c.Input.Decompress = "none"
	}
	if c.Output.Format == "" {
		c.Output.Format = "text"
	}
	if c.Monitoring.LogLevel == "" {
		c.Monitoring.LogLevel = "info"
	}
	if c.Monitoring.LogFormat == "" {
		c.Monitoring.LogFormat = "text"
	}
}

// Policy returns the boundary policy described by the configuration
func (c *Config) Policy() boundary.Policy {
	return boundary.Policy{
		Threshold: c.Threshold,
		MinSize:   int(c.MinSize),
		MaxSize:   int(c.MaxSize),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	known := false
	for _, name := range hashsplit.Algorithms() {
		if name == c.Algorithm {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: %q (must be one of %s)",
			hashsplit.ErrUnknownAlgorithm, c.Algorithm, strings.Join(hashsplit.Algorithms(), ", "))
	}

	if c.Threshold > 32 {
		return fmt.Errorf("threshold must be 0-32, got %d", c.Threshold)
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}

	for i := 1; i < len(c.TreeThresholds); i++ {
		if c.TreeThresholds[i] < c.TreeThresholds[i-1] {
			return fmt.Errorf("tree_thresholds must not decrease, got %v", c.TreeThresholds)
		}
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}

	switch c.Input.Decompress {
	case "none", "gzip", "zstd", "auto":
	default:
		return fmt.Errorf("invalid input.decompress: %s (must be none, gzip, zstd, or auto)", c.Input.Decompress)
	}

	if c.Output.Format != "json" && c.Output.Format != "text" {
		return fmt.Errorf("invalid output.format: %s (must be json or text)", c.Output.Format)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[strings.ToLower(c.Monitoring.LogLevel)] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, error, or fatal)",
			c.Monitoring.LogLevel)
	}

	// Validate log format
	if c.Monitoring.LogFormat != "json" && c.Monitoring.LogFormat != "text" {
		return fmt.Errorf("invalid log_format: %s (must be json or text)", c.Monitoring.LogFormat)
	}

	return nil
}
