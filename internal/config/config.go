// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server's runtime configuration
type Config struct {
	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	WSAddr      string   `env:"WS_ADDR" envDefault:":8081"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// RedisAddr empty runs an embedded in-memory Redis
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/actions.db"`
	ArchiveDir string `env:"ARCHIVE_DIR" envDefault:"data/archive"`

	// RulesPath overlays a YAML rule set onto the defaults
	RulesPath string `env:"RULES_PATH"`
	DiceSeed  int64  `env:"DICE_SEED"`

	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	DiscordToken string `env:"DISCORD_TOKEN"`
	DiscordGuild string `env:"DISCORD_GUILD_ID"`
	DiscordAppID string `env:"DISCORD_APPLICATION_ID"`

	OpenAIKey         string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	CommentaryTimeout time.Duration `env:"COMMENTARY_TIMEOUT" envDefault:"5s"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR cannot be empty")
	}
	if c.WSAddr == "" {
		return errors.New("WS_ADDR cannot be empty")
	}
	if len(c.TokenSecret) > 0 && len(c.TokenSecret) < 16 {
		return errors.New("TOKEN_SECRET must be at least 16 characters")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.CommentaryTimeout <= 0 {
		return errors.New("COMMENTARY_TIMEOUT must be positive")
	}
	return nil
}
