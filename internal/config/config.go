// Package config loads huescheme settings from layered YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/huescheme/internal/colour"
	"github.com/jmylchreest/huescheme/internal/image"
)

const (
	appDir         = "huescheme"
	configFileName = "config.yaml"

	// EnvConfigPath names an explicit config file when --config is not given.
	EnvConfigPath = "HUESCHEME_CONFIG"
)

// For mocking in tests.
var getUserConfigPath = func() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, configFileName), nil
}

// Config is the complete huescheme configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AnalysisConfig selects the extraction algorithm and quantizer behaviour.
type AnalysisConfig struct {
	Algorithm    string `yaml:"algorithm"`
	Iterations   int    `yaml:"iterations"`
	Seeding      string `yaml:"seeding"`
	EmptyCluster string `yaml:"empty_cluster"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	MaxPixels       int           `yaml:"max_pixels"` // decoded width*height
	MaxConcurrent   int           `yaml:"max_concurrent"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rate_burst"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig configures the Redis result cache. An empty RedisAddr
// disables caching.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	q := colour.DefaultQuantizerConfig()
	return Config{
		Analysis: AnalysisConfig{
			Algorithm:    string(colour.AlgorithmLab),
			Iterations:   q.MaxIterations,
			Seeding:      string(q.Seeding),
			EmptyCluster: string(q.EmptyCluster),
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadBytes:  image.MaxFileSize,
			MaxPixels:       image.DefaultMaxPixels,
			MaxConcurrent:   4,
			RateLimit:       10,
			RateBurst:       20,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Prefix: "huescheme",
			TTL:    24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load layers the defaults, the user config file and an explicit file.
// explicitPath falls back to $HUESCHEME_CONFIG; a named file that does not
// exist is an error, a missing user file is not.
func Load(explicitPath string) (Config, error) {
	cfg := Defaults()

	userPath, err := getUserConfigPath()
	if err == nil {
		if _, statErr := os.Stat(userPath); statErr == nil {
			if err := mergeFile(&cfg, userPath); err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userPath, err)
			}
		}
	}

	if explicitPath == "" {
		explicitPath = os.Getenv(EnvConfigPath)
	}
	if explicitPath != "" {
		if err := mergeFile(&cfg, explicitPath); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// mergeFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified config path, intended to be read
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := c.Analysis.Quantizer(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if !colour.IsValidAlgorithm(colour.Algorithm(c.Analysis.Algorithm)) {
		return fmt.Errorf("analysis: unknown algorithm %q (valid: %v)", c.Analysis.Algorithm, colour.ValidAlgorithms())
	}

	s := c.Server
	if s.Addr == "" {
		return fmt.Errorf("server: addr is required")
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("server: max_upload_bytes must be positive, got %d", s.MaxUploadBytes)
	}
	if s.MaxPixels <= 0 {
		return fmt.Errorf("server: max_pixels must be positive, got %d", s.MaxPixels)
	}
	if s.MaxConcurrent < 1 {
		return fmt.Errorf("server: max_concurrent must be at least 1, got %d", s.MaxConcurrent)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("server: rate_limit cannot be negative")
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		return fmt.Errorf("server: rate_burst must be at least 1 when rate limiting is enabled")
	}

	if c.Cache.RedisAddr != "" && c.Cache.TTL < 0 {
		return fmt.Errorf("cache: ttl cannot be negative")
	}

	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		return fmt.Errorf("metrics: path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

// Quantizer converts the analysis section into a validated quantizer
// configuration.
func (a AnalysisConfig) Quantizer() (colour.QuantizerConfig, error) {
	q := colour.QuantizerConfig{
		Count:         colour.PaletteSize,
		MaxIterations: a.Iterations,
		Seeding:       colour.Seeding(a.Seeding),
		EmptyCluster:  colour.EmptyClusterPolicy(a.EmptyCluster),
	}
	return q, q.Validate()
}
