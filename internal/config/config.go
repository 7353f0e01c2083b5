// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the tacc binaries.
type Config struct {
	HTTPAddr      string
	GRPCAddr      string
	Mode          string // "debug" or "release"
	AuthSecret    string
	RateBurst     int
	RatePerSec    int
	DefaultLabels []string
	StreamBuffer  int
}

// Load reads .env (or the given file) and then the environment. A missing
// default .env is not an error; a missing explicit file is.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	burst, err := intEnv("TACC_RATE_BURST", 50)
	if err != nil {
		return nil, err
	}
	perSec, err := intEnv("TACC_RATE_PER_SEC", 20)
	if err != nil {
		return nil, err
	}
	buffer, err := intEnv("TACC_STREAM_BUFFER", 16)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:      getEnvOrDefault("TACC_HTTP_ADDR", ":8080"),
		GRPCAddr:      getEnvOrDefault("TACC_GRPC_ADDR", ":9091"),
		Mode:          getEnvOrDefault("TACC_MODE", "release"),
		AuthSecret:    strings.TrimSpace(os.Getenv("TACC_AUTH_SECRET")),
		RateBurst:     burst,
		RatePerSec:    perSec,
		DefaultLabels: splitList(getEnvOrDefault("TACC_DEFAULT_LABELS", "GBP")),
		StreamBuffer:  buffer,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case "debug", "release":
	default:
		return fmt.Errorf("TACC_MODE must be debug or release, got %q", c.Mode)
	}
	if c.RateBurst <= 0 || c.RatePerSec <= 0 {
		return fmt.Errorf("rate limits must be positive (burst=%d, per_sec=%d)", c.RateBurst, c.RatePerSec)
	}
	if len(c.DefaultLabels) == 0 {
		return fmt.Errorf("TACC_DEFAULT_LABELS must name at least one label")
	}
	if c.StreamBuffer < 1 {
		return fmt.Errorf("TACC_STREAM_BUFFER must be >= 1")
	}
	return nil
}

// AuthEnabled reports whether bearer tokens are required.
func (c *Config) AuthEnabled() bool { return c.AuthSecret != "" }

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
