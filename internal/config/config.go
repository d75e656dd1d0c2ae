// Package config loads service settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set, check the .env file")

type Config struct {
	Environment        string
	Host               string
	Port               int
	GeminiAPIKey       string
	AssetsDir          string
	HistoryDB          string
	MaxUploadBytes     int
	RateLimitPerMinute int
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Load reads the given dotenv files (missing files are skipped) and then
// builds a Config from the process environment. Variables already set in the
// environment win over values from the files.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Environment:  stringOr(getenv("ENVIRONMENT"), EnvDevelopment),
		Host:         stringOr(getenv("HOST"), "0.0.0.0"),
		GeminiAPIKey: getenv("GEMINI_API_KEY"),
		AssetsDir:    stringOr(getenv("ASSETS_DIR"), "assets"),
		HistoryDB:    getenv("HISTORY_DB"),
	}

	var err error
	if cfg.Port, err = intOr(getenv("PORT"), 8000); err != nil {
		return Config{}, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.MaxUploadBytes, err = intOr(getenv("MAX_UPLOAD_BYTES"), 10<<20); err != nil {
		return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.RateLimitPerMinute, err = intOr(getenv("RATE_LIMIT_PER_MINUTE"), 30); err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	return cfg, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative, got %d", n)
	}
	return n, nil
}
