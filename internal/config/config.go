// Package config provides application configuration.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/surelook/holmes-mcp/internal/profile"
	"github.com/surelook/holmes-mcp/internal/store"
)

// Transport names.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config holds all application configuration.
type Config struct {
	StoreBackend string
	SupabaseURL  string
	SupabaseKey  string
	DatabaseURL  string
	SQLitePath   string

	ProfileAPIKey string
	ProfileAPIURL string

	Transport   string
	Host        string
	Port        string
	BearerToken string

	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", store.BackendPostgREST)),
		SupabaseURL:  getEnvAny([]string{"PUBLIC_SUPABASE_URL", "SUPABASE_URL"}, ""),
		SupabaseKey:  getEnvAny([]string{"PUBLIC_SUPABASE_PUBLISHABLE_DEFAULT_KEY", "SUPABASE_KEY"}, ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/holmes.db"),

		ProfileAPIKey: getEnv("PROFILE_API_KEY", ""),
		ProfileAPIURL: getEnv("PROFILE_API_URL", profile.DefaultBaseURL),

		Transport:   strings.ToLower(getEnv("MCP_TRANSPORT", TransportHTTP)),
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "8000"),
		BearerToken: getEnv("MCP_BEARER_TOKEN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail at startup. Missing
// store or profile credentials are not errors: those tools report them when
// called.
func (c *Config) Validate() error {
	if err := store.ValidBackend(c.StoreBackend); err != nil {
		return err
	}
	switch c.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("MCP_TRANSPORT must be %s or %s, got %q", TransportHTTP, TransportStdio, c.Transport)
	}
	if c.Transport == TransportHTTP {
		port, err := strconv.Atoi(c.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
		}
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// StoreOptions returns the store backend settings.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.StoreBackend,
		URL:         c.SupabaseURL,
		Key:         c.SupabaseKey,
		DatabaseURL: c.DatabaseURL,
		SQLitePath:  c.SQLitePath,
	}
}

// getEnv treats a blank variable as unset.
func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// getEnvAny returns the first non-empty variable among keys.
func getEnvAny(keys []string, fallback string) string {
	for _, key := range keys {
		if value := getEnv(key, ""); value != "" {
			return value
		}
	}
	return fallback
}
