package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Pool    PoolConfig
	Render  RenderConfig
	Fetch   FetchConfig
	CORS    CORSConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8000
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how headless Chrome instances are launched.
type BrowserConfig struct {
	// RenderEnabled toggles the render path. When false every request
	// is served from static markup.
	RenderEnabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to both the browser and the static fetcher.
	Proxy string

	// Stealth injects go-rod/stealth evasions before navigation.
	Stealth bool // default: false
}

// PoolConfig controls the browser checkout pool.
type PoolConfig struct {
	// Size is the maximum number of live browser processes.
	Size int // default: 2

	// AcquireTimeout bounds how long a render waits for a free browser.
	AcquireTimeout time.Duration // default: 15s

	// IdleTimeout closes browsers that sat unused this long.
	IdleTimeout time.Duration // default: 5m
}

// RenderConfig holds the fixed render-path bounds.
type RenderConfig struct {
	NavigationTimeout   time.Duration // default: 60s
	SettleDelay         time.Duration // default: 3s
	SelectorWaitTimeout time.Duration // default: 10s

	// BlockedResourceTypes lists resource types aborted during rendering.
	// default: ["Image", "Stylesheet", "Font"]
	BlockedResourceTypes []string
}

// FetchConfig controls the static fetch.
type FetchConfig struct {
	Timeout time.Duration // default: 30s
}

// CORSConfig controls cross-origin access for the front end.
type CORSConfig struct {
	AllowOrigins []string // default: ["http://localhost:3000"]
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("CARDSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("CARDSCRAPE_PORT", 8000),
			Mode: envOr("CARDSCRAPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			RenderEnabled: envBoolOr("CARDSCRAPE_RENDER", true),
			Headless:      envBoolOr("CARDSCRAPE_HEADLESS", true),
			NoSandbox:     envBoolOr("CARDSCRAPE_NO_SANDBOX", false),
			BrowserBin:    os.Getenv("CARDSCRAPE_BROWSER_BIN"),
			Proxy:         os.Getenv("CARDSCRAPE_PROXY"),
			Stealth:       envBoolOr("CARDSCRAPE_STEALTH", false),
		},
		Pool: PoolConfig{
			Size:           envIntOr("CARDSCRAPE_POOL_SIZE", 2),
			AcquireTimeout: envDurationOr("CARDSCRAPE_POOL_ACQUIRE_TIMEOUT", 15*time.Second),
			IdleTimeout:    envDurationOr("CARDSCRAPE_POOL_IDLE", 5*time.Minute),
		},
		Render: RenderConfig{
			NavigationTimeout:   envDurationOr("CARDSCRAPE_NAV_TIMEOUT", 60*time.Second),
			SettleDelay:         envDurationOr("CARDSCRAPE_SETTLE_DELAY", 3*time.Second),
			SelectorWaitTimeout: envDurationOr("CARDSCRAPE_SELECTOR_TIMEOUT", 10*time.Second),
			BlockedResourceTypes: envSliceOr("CARDSCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font",
			}),
		},
		Fetch: FetchConfig{
			Timeout: envDurationOr("CARDSCRAPE_STATIC_TIMEOUT", 30*time.Second),
		},
		CORS: CORSConfig{
			AllowOrigins: envSliceOr("CARDSCRAPE_CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Log: LogConfig{
			Level:  envOr("CARDSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("CARDSCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
