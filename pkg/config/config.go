package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/natserract/mkto/pkg/marketo"
)

// Environment variables read by Load.
const (
	EnvBaseURL      = "MARKETO_BASE_URL"
	EnvMunchkinID   = "MARKETO_MUNCHKIN_ID"
	EnvClientID     = "MARKETO_CLIENT_ID"
	EnvClientSecret = "MARKETO_CLIENT_SECRET"
	EnvAPIVersion   = "MARKETO_API_VERSION"
	EnvUseBulk      = "MARKETO_USE_BULK"
	EnvTimeout      = "MARKETO_TIMEOUT"
)

// Load reads a .env file if present, then builds a validated Marketo
// config from the environment.
func Load() (*marketo.Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// LoadFile reads the given env files into the process environment, without
// overriding variables already set, and builds the config.
func LoadFile(filenames ...string) (*marketo.Config, error) {
	if err := godotenv.Load(filenames...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a config using getenv for lookups.
func FromEnv(getenv func(string) string) (*marketo.Config, error) {
	cfg := &marketo.Config{
		BaseURL:      strings.TrimSpace(getenv(EnvBaseURL)),
		MunchkinID:   strings.TrimSpace(getenv(EnvMunchkinID)),
		ClientID:     getenv(EnvClientID),
		ClientSecret: getenv(EnvClientSecret),
	}

	if v := getenv(EnvAPIVersion); v != "" {
		version, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(v), "v"))
		if err != nil {
			return nil, &marketo.ConfigError{Field: "APIVersion", Msg: fmt.Sprintf("%s must be an integer, got %q", EnvAPIVersion, v)}
		}
		cfg.APIVersion = version
	}

	if v := getenv(EnvUseBulk); v != "" {
		useBulk, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, &marketo.ConfigError{Field: "UseBulkEndpoint", Msg: fmt.Sprintf("%s must be a boolean, got %q", EnvUseBulk, v)}
		}
		cfg.UseBulkEndpoint = useBulk
	}

	if v := getenv(EnvTimeout); v != "" {
		timeout, err := parseTimeout(v)
		if err != nil {
			return nil, &marketo.ConfigError{Field: "Timeout", Msg: fmt.Sprintf("%s: %v", EnvTimeout, err)}
		}
		cfg.Timeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTimeout accepts a Go duration ("45s") or a bare number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
