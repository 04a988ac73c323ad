package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Engine    EngineConfig
}

// EngineConfig controls the fetch dispatcher.
type EngineConfig struct {
	// EscalationDelays is the staged start delay for each engine tier.
	// Only consulted when more than one engine is configured.
	EscalationDelays []time.Duration // default: [0s, 3s]
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000 (PORT wins over FILMGRAB_PORT)
	Mode string // "debug", "release", "test"; default: "release"

	// CORSEnabled adds the browser-facing CORS headers to /api/scrape.
	CORSEnabled bool // default: true

	// Diagnostics includes the per-request trace lines in responses.
	Diagnostics bool // default: true
}

// BrowserConfig controls the optional headless browser engine.
type BrowserConfig struct {
	// Enabled adds a Rod engine behind the plain HTTP engine.
	Enabled bool // default: false

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls the scrape-and-resolve pipeline.
type ScraperConfig struct {
	// FetchTimeout is the deadline applied to every outbound call.
	FetchTimeout time.Duration // default: 15s

	// ResolveConcurrency caps how many qualities are resolved at once.
	// 1 resolves them one after another.
	ResolveConcurrency int // default: 4

	// ImageBrand is the substring a poster's src must contain.
	ImageBrand string // default: "filmyzilla"

	// UserAgent overrides the desktop browser User-Agent.
	UserAgent string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty disables auth.
	APIKeys []string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// Enabled toggles the limiter.
	Enabled bool // default: false

	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per identity.
	Burst int // default: 5
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
			Host:        envOr("FILMGRAB_HOST", "0.0.0.0"),
			Port:        envIntOr("PORT", envIntOr("FILMGRAB_PORT", 5000)),
			Mode:        envOr("FILMGRAB_MODE", "release"),
			CORSEnabled: envBoolOr("FILMGRAB_CORS_ENABLED", true),
			Diagnostics: envBoolOr("FILMGRAB_DIAGNOSTICS", true),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("FILMGRAB_BROWSER_ENABLED", false),
			Headless:   envBoolOr("FILMGRAB_HEADLESS", true),
			MaxPages:   envIntOr("FILMGRAB_MAX_PAGES", 4),
			NoSandbox:  envBoolOr("FILMGRAB_NO_SANDBOX", false),
			BrowserBin: os.Getenv("FILMGRAB_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			FetchTimeout:       envDurationOr("FILMGRAB_FETCH_TIMEOUT", 15*time.Second),
			ResolveConcurrency: envIntOr("FILMGRAB_RESOLVE_CONCURRENCY", 4),
			ImageBrand:         envOr("FILMGRAB_IMAGE_BRAND", "filmyzilla"),
			UserAgent:          os.Getenv("FILMGRAB_USER_AGENT"),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("FILMGRAB_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			Enabled:           envBoolOr("FILMGRAB_RATE_ENABLED", false),
			RequestsPerSecond: envFloatOr("FILMGRAB_RATE_RPS", 2.0),
			Burst:             envIntOr("FILMGRAB_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("FILMGRAB_LOG_LEVEL", "info"),
			Format: envOr("FILMGRAB_LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			EscalationDelays: envDurationSliceOr("FILMGRAB_ESCALATION_DELAYS", []time.Duration{0, 3 * time.Second}),
		},
	}
}

// LoadEnvFile copies variables from a dotenv file into the process
// environment without overriding ones already set. A missing file is not an
// error. An empty path means ".env".
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
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

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
