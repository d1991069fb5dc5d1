// Package config loads the admin twin server configuration from the environment.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// TwinConfig holds the admin twin server configuration.
type TwinConfig struct {
	ListenAddr string // HTTP listen address (default ":8087")
	LogLevel   string // debug, info, warn, error (default "info")

	// Parent credentials the twin accepts. Generated when unset.
	IKey string
	SKey string
	// Host the client signs requests for. Empty means the request Host header.
	Host string

	RateLimitRPS   float64 // sustained requests per second per integration key (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	// Warnings collects non-fatal warnings generated during loading. They
	// are logged by the caller once the logger exists.
	Warnings []string
}

// SlogLevel maps LogLevel to an slog.Level.
func (c *TwinConfig) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

// ParseLevel maps a level name to an slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadTwinFromEnv reads the twin configuration from environment variables.
func LoadTwinFromEnv() (*TwinConfig, error) {
	cfg := &TwinConfig{
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		IKey:       os.Getenv("TWIN_IKEY"),
		SKey:       os.Getenv("TWIN_SKEY"),
		Host:       os.Getenv("TWIN_HOST"),
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS must be a non-negative number, got %q", v)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer, got %q", v)
		}
		cfg.RateLimitBurst = n
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8087"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 50
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 100
	}
	if (cfg.IKey == "") != (cfg.SKey == "") {
		return nil, fmt.Errorf("TWIN_IKEY and TWIN_SKEY must be set together")
	}
	if cfg.IKey == "" {
		cfg.IKey = "DIDEVTWINXXXXXXXXXXX"
		cfg.SKey = "dev-twin-secret-change-me"
		cfg.Warnings = append(cfg.Warnings, "TWIN_IKEY/TWIN_SKEY not set, using insecure development credentials")
	}
	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes one pair of matching surrounding quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
