package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig  `koanf:"server"`
	Analysis ServiceConfig `koanf:"analysis"`
	Avatar   ServiceConfig `koanf:"avatar"`
	Storage  StorageConfig `koanf:"storage"`
	Logging  LoggingConfig `koanf:"logging"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// ServiceConfig points at one of the two upstream services.
type ServiceConfig struct {
	BaseURL string `koanf:"base_url"`
	Timeout string `koanf:"timeout"` // Duration string like "30s"
}

// TimeoutOrDefault parses the configured timeout, falling back to def when
// the field is empty or unparseable.
func (s ServiceConfig) TimeoutOrDefault(def time.Duration) time.Duration {
	if s.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

type StorageConfig struct {
	Driver string `koanf:"driver"` // sqlite, memory, none
	Path   string `koanf:"path"`   // sqlite only
}

type LoggingConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
}

// Load reads configuration from the given YAML file (skipped when the file
// does not exist) and overlays SERENE_-prefixed environment variables, with
// "__" separating nesting levels (SERENE_ANALYSIS__BASE_URL).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	// Environment variables override file config
	if err := k.Load(env.Provider("SERENE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SERENE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("analysis.base_url") {
		k.Set("analysis.base_url", "http://localhost:8000")
	}
	if !k.Exists("avatar.base_url") {
		k.Set("avatar.base_url", "http://localhost:8001")
	}
	if !k.Exists("storage.driver") {
		k.Set("storage.driver", "memory")
	}
	if !k.Exists("logging.level") {
		k.Set("logging.level", "info")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LogLevel maps the configured level name to a slog level string accepted by
// slog.Level.UnmarshalText; unknown names fall back to "info".
func (c *Config) LogLevel() string {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return strings.ToLower(c.Logging.Level)
	}
	return "info"
}
