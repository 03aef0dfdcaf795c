// Package config loads the hxboundary server configuration from YAML.
package config

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pthm/hxboundary"
	"gopkg.in/yaml.v3"
)

// EnvKey overrides Descriptors.Key when set.
const EnvKey = "HXBOUNDARY_KEY"

// Config holds the full server configuration.
type Config struct {
	Listen      string           `yaml:"listen"`
	Descriptors DescriptorConfig `yaml:"descriptors"`
	Log         LogConfig        `yaml:"log"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}

// DescriptorConfig configures the protector for session-hosted descriptors.
type DescriptorConfig struct {
	Key     string        `yaml:"key"`      // base64
	KeyFile string        `yaml:"key_file"` // raw key bytes
	Encrypt bool          `yaml:"encrypt"`
	MaxAge  time.Duration `yaml:"max_age"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns sane defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Descriptors: DescriptorConfig{
			MaxAge: hxboundary.DefaultDescriptorMaxAge,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads a YAML config file over Default. An empty path yields the
// defaults. EnvKey is applied afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if key := os.Getenv(EnvKey); key != "" {
		cfg.Descriptors.Key = key
		cfg.Descriptors.KeyFile = ""
	}
	return cfg, cfg.Validate()
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.Descriptors.Key != "" && c.Descriptors.KeyFile != "" {
		return fmt.Errorf("descriptors: key and key_file are mutually exclusive")
	}
	if c.Descriptors.Key != "" {
		if _, err := base64.StdEncoding.DecodeString(c.Descriptors.Key); err != nil {
			return fmt.Errorf("descriptors.key is not valid base64: %w", err)
		}
	}
	if c.Descriptors.MaxAge <= 0 {
		return fmt.Errorf("descriptors.max_age must be > 0")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}

// DescriptorKey returns the configured key bytes. ok is false when no key
// is configured.
func (c *Config) DescriptorKey() (key []byte, ok bool, err error) {
	switch {
	case c.Descriptors.Key != "":
		key, err = base64.StdEncoding.DecodeString(c.Descriptors.Key)
	case c.Descriptors.KeyFile != "":
		key, err = os.ReadFile(c.Descriptors.KeyFile)
		if err != nil {
			err = fmt.Errorf("read key file: %w", err)
		}
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// Protector builds the descriptor protector for key.
func (c *Config) Protector(key []byte) (*hxboundary.DataProtector, error) {
	opts := []hxboundary.ProtectorOption{hxboundary.WithMaxAge(c.Descriptors.MaxAge)}
	if c.Descriptors.Encrypt {
		opts = append(opts, hxboundary.WithEncryption())
	}
	return hxboundary.NewDataProtector(key, opts...)
}

// Logger builds a logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
