// Package config loads disbotter.yaml (or .json) project settings.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/disbotter/disbotter/internal/logging"
	"github.com/disbotter/disbotter/pkg/builder"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "disbotter.yaml"

// Config represents the structure of disbotter.yaml.
type Config struct {
	// Nodes lists the directories scanned for node scripts.
	Nodes []string `yaml:"nodes" json:"nodes"`
	// Output is the directory compiled programs are exported to.
	Output string `yaml:"output" json:"output"`
	// Declarations is the file gen-node-declarations writes to.
	Declarations string `yaml:"declarations" json:"declarations"`
	Indent       string `yaml:"indent" json:"indent"`
	// Inputs is the unresolved input policy: strict or undefined.
	Inputs  string `yaml:"inputs" json:"inputs"`
	Workers int    `yaml:"workers" json:"workers"`
	// LogFormat is text or json.
	LogFormat string `yaml:"log_format" json:"log_format"`

	Server ServerConfig `yaml:"server" json:"server"`
	Redis  RedisConfig  `yaml:"redis" json:"redis"`
}

// ServerConfig configures the compile service.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// CacheDir stores compiled programs on disk when Redis is not configured.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// CacheKey is a base64 AES-256 key. When set, cached programs are encrypted.
	CacheKey string `yaml:"cache_key" json:"cache_key"`
	// CacheFallbackKeys still decrypt entries written before a key rotation.
	CacheFallbackKeys []string `yaml:"cache_fallback_keys" json:"cache_fallback_keys"`
}

// CacheKeys decodes CacheKey and CacheFallbackKeys. A nil active key means
// encryption is off.
func (s ServerConfig) CacheKeys() (active []byte, fallback [][]byte, err error) {
	if s.CacheKey == "" {
		if len(s.CacheFallbackKeys) > 0 {
			return nil, nil, errors.New("cache_fallback_keys requires cache_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(s.CacheKey); err != nil {
		return nil, nil, fmt.Errorf("invalid cache_key: %w", err)
	}
	for i, k := range s.CacheFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid cache_fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// RedisConfig configures the Redis program cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	TTL      string `yaml:"ttl" json:"ttl"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// TTLDuration parses TTL. An empty TTL means no expiration.
func (r RedisConfig) TTLDuration() (time.Duration, error) {
	if r.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid redis ttl %q: %w", r.TTL, err)
	}
	return d, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Nodes:        []string{"nodes"},
		Output:       "out",
		Declarations: "nodes.json",
		Indent:       builder.DefaultIndent,
		Inputs:       "strict",
		Workers:      1,
		LogFormat:    string(logging.FormatText),
		Server:       ServerConfig{Addr: ":8080"},
	}
}

// Load reads a configuration file (YAML or JSON, chosen by extension) over
// the defaults. A missing file yields the defaults unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if _, err := c.InputPolicy(); err != nil {
		return err
	}
	if _, err := c.Redis.TTLDuration(); err != nil {
		return err
	}
	if _, _, err := c.Server.CacheKeys(); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// InputPolicy parses the Inputs setting.
func (c *Config) InputPolicy() (builder.InputPolicy, error) {
	return builder.ParseInputPolicy(c.Inputs)
}
