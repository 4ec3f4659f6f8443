// Package config provides configuration management for the cropper.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// Default values
	DefaultPort               = 8790
	DefaultLogLevel           = "info"
	DefaultResizeDebounceMs   = 16
	DefaultHistoryStore       = HistoryStoreMemory
	DefaultSessionIdleTimeout = 1800 // seconds

	MaxResizeDebounceMs = 1000

	HistoryStoreMemory = "memory"
	HistoryStoreSQLite = "sqlite"

	// Environment variable names
	EnvPort               = "CROPPER_PORT"
	EnvLogLevel           = "CROPPER_LOG_LEVEL"
	EnvResizeDebounceMs   = "CROPPER_RESIZE_DEBOUNCE_MS"
	EnvHistoryStore       = "CROPPER_HISTORY_STORE"
	EnvSessionIdleTimeout = "CROPPER_SESSION_IDLE_TIMEOUT_S"
	EnvAuthToken          = "CROPPER_AUTH_TOKEN"
	EnvHeadless           = "CROPPER_HEADLESS"
	EnvAllowedOrigins     = "CROPPER_ALLOWED_ORIGINS"
)

// DefaultAllowedOrigins are the local dev servers a browser view layer
// usually runs on.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	ResizeDebounce() time.Duration
	HistoryStore() string
	SessionIdleTimeout() time.Duration
	AuthToken() string
	Headless() bool
	AllowedOrigins() []string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port               int
	logLevel           string
	resizeDebounceMs   int
	historyStore       string
	sessionIdleTimeout int
	authToken          string
	headless           bool
	allowedOrigins     []string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:               DefaultPort,
		logLevel:           DefaultLogLevel,
		resizeDebounceMs:   DefaultResizeDebounceMs,
		historyStore:       DefaultHistoryStore,
		sessionIdleTimeout: DefaultSessionIdleTimeout,
		allowedOrigins:     append([]string(nil), DefaultAllowedOrigins...),
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if d := os.Getenv(EnvResizeDebounceMs); d != "" {
		ms, err := strconv.Atoi(d)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvResizeDebounceMs, err)
		}
		if ms < 0 || ms > MaxResizeDebounceMs {
			return nil, fmt.Errorf("invalid %s: must be between 0 and %d", EnvResizeDebounceMs, MaxResizeDebounceMs)
		}
		cfg.resizeDebounceMs = ms
	}

	if hs := os.Getenv(EnvHistoryStore); hs != "" {
		hs = strings.ToLower(strings.TrimSpace(hs))
		if hs != HistoryStoreMemory && hs != HistoryStoreSQLite {
			return nil, fmt.Errorf("invalid %s: must be %q or %q", EnvHistoryStore, HistoryStoreMemory, HistoryStoreSQLite)
		}
		cfg.historyStore = hs
	}

	if it := os.Getenv(EnvSessionIdleTimeout); it != "" {
		secs, err := strconv.Atoi(it)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSessionIdleTimeout, err)
		}
		if secs < 1 {
			return nil, fmt.Errorf("invalid %s: must be positive", EnvSessionIdleTimeout)
		}
		cfg.sessionIdleTimeout = secs
	}

	cfg.authToken = strings.TrimSpace(os.Getenv(EnvAuthToken))

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if ao := os.Getenv(EnvAllowedOrigins); ao != "" {
		cfg.allowedOrigins = splitList(ao)
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// ResizeDebounce returns the trailing-edge window for coalescing resizes
func (c *EnvConfig) ResizeDebounce() time.Duration {
	return time.Duration(c.resizeDebounceMs) * time.Millisecond
}

// HistoryStore returns the settings history backend (memory or sqlite)
func (c *EnvConfig) HistoryStore() string {
	return c.historyStore
}

func (c *EnvConfig) SessionIdleTimeout() time.Duration {
	return time.Duration(c.sessionIdleTimeout) * time.Second
}

// AuthToken returns the configured API token. Empty means the caller
// should generate one for this process.
func (c *EnvConfig) AuthToken() string {
	return c.authToken
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
