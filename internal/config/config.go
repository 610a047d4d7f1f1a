// Package config assembles the application configuration from defaults, an
// optional YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizzler/internal/llm"
	"github.com/abhisek/quizzler/internal/quiz"
	"github.com/abhisek/quizzler/internal/ratelimit"
)

// Config is the complete application configuration.
type Config struct {
	LLM     llm.Config       `yaml:"llm"`
	Limiter ratelimit.Config `yaml:"limiter"`
	Quiz    quiz.Config      `yaml:"quiz"`

	// DB is the SQLite database path. Empty means store.DefaultDBPath.
	DB string `yaml:"db"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM:     llm.DefaultConfig(),
		Limiter: ratelimit.DefaultConfig(),
		Quiz:    quiz.DefaultConfig(),
	}
}

// DefaultPath returns the config file location:
// $XDG_CONFIG_HOME/quizzler/config.yaml, else ~/.config/quizzler/config.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quizzler", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "quizzler.yaml")
	}
	return filepath.Join(home, ".config", "quizzler", "config.yaml")
}

// Load builds the configuration. path names a YAML file that must exist;
// an empty path reads DefaultPath if present. Environment overrides are
// applied on top, then provider auto-discovery runs when the selected
// provider has no key.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg.ApplyEnv()
	if !cfg.LLM.HasAPIKey() {
		cfg.LLM.Discover()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected so typos do not
// silently fall back to defaults.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from QUIZZLER_* environment variables.
func (c *Config) ApplyEnv() {
	c.LLM.ApplyEnv()

	if v := os.Getenv("QUIZZLER_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("QUIZZLER_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("QUIZZLER_LIMITER_BACKEND"); v != "" {
		c.Limiter.Backend = v
	}
	if v := os.Getenv("QUIZZLER_REDIS_ADDR"); v != "" {
		c.Limiter.Redis.Addr = v
	}
	if v := os.Getenv("QUIZZLER_REDIS_PASSWORD"); v != "" {
		c.Limiter.Redis.Password = v
	}
	if v := os.Getenv("QUIZZLER_LIMITER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limiter.Capacity = n
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring QUIZZLER_LIMITER_CAPACITY=%q: %v\n", v, err)
		}
	}
}

// Validate checks every section except the LLM credentials, which are only
// required by commands that generate questions.
func (c Config) Validate() error {
	if err := c.Limiter.Validate(); err != nil {
		return fmt.Errorf("limiter: %w", err)
	}
	if err := c.Quiz.Validate(); err != nil {
		return err
	}
	return nil
}

// Marshal renders cfg as YAML with API keys redacted.
func Marshal(cfg Config) ([]byte, error) {
	redact := func(s *string) {
		if *s != "" {
			*s = "REDACTED"
		}
	}
	redact(&cfg.LLM.Anthropic.APIKey)
	redact(&cfg.LLM.OpenAI.APIKey)
	redact(&cfg.LLM.Gemini.APIKey)
	redact(&cfg.LLM.OpenRouter.APIKey)
	redact(&cfg.Limiter.Redis.Password)
	return yaml.Marshal(cfg)
}
