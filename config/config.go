package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Variant names the two supported crawl strategies.
const (
	// VariantStatic re-fetches watch pages over plain HTTP and reads the
	// iframe from the static DOM. No catalog walk.
	VariantStatic = "static"

	// VariantBrowser drives a headless browser for stream resolution and
	// walks the full A-Z catalog.
	VariantBrowser = "browser"
)

// Latest-episode URL styles. The site has used both path shapes; neither
// is a bug, so both stay selectable.
const (
	// LatestURLDirect qualifies the anchor href with the origin as-is.
	LatestURLDirect = "direct"

	// LatestURLWatch inserts a literal "/watch" segment before the slug.
	LatestURLWatch = "watch"
)

// Config holds all application configuration.
type Config struct {
	Site      SiteConfig
	Fetch     FetchConfig
	Crawl     CrawlConfig
	Stream    StreamConfig
	Browser   BrowserConfig
	Output    OutputConfig
	Webhook   WebhookConfig
	Server    ServerConfig
	Cache     CacheConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// SiteConfig describes the target site and its page templates.
type SiteConfig struct {
	// Origin is scheme+host with no trailing slash.
	Origin string // default: "https://aniwatchtv.to"

	// HomePath is the homepage path.
	HomePath string // default: "/home"

	// AZListPath is the alphabetical index path.
	AZListPath string // default: "/az-list"
}

// HomeURL returns the absolute homepage URL.
func (s SiteConfig) HomeURL() string { return s.Origin + s.HomePath }

// AZListURL returns the absolute alphabetical index URL.
func (s SiteConfig) AZListURL() string { return s.Origin + s.AZListPath }

// FetchConfig controls the page fetcher.
type FetchConfig struct {
	// Engine selects the page fetch engine: "http" or "rod".
	Engine string // default: "http"

	// Timeout is the per-request deadline.
	Timeout time.Duration // default: 15s

	// UserAgent is sent with every request.
	UserAgent string

	// Referer is sent with every request.
	Referer string // default: "https://www.google.com/"

	// AcceptLanguage is sent with every request.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// Proxy is an optional HTTP proxy URL.
	Proxy string
}

// CrawlConfig controls the variant and catalog walking.
type CrawlConfig struct {
	// Variant is VariantStatic or VariantBrowser.
	Variant string // default: "browser"

	// LatestURLStyle is LatestURLDirect or LatestURLWatch.
	// Empty means the variant's own style.
	LatestURLStyle string

	// WalkCatalog toggles the A-Z walk. Defaults to true for the browser variant.
	WalkCatalog bool

	// PageDelay is the fixed delay between catalog page fetches.
	PageDelay time.Duration // default: 1s

	// ResolveStreams toggles stream resolution for homepage items.
	ResolveStreams bool // default: true
}

// StreamConfig controls stream URL resolution.
type StreamConfig struct {
	// IframeSelector locates the embed iframe on watch pages.
	IframeSelector string // default: "iframe#iframe-embed"

	// WaitTimeout bounds the wait for the iframe to appear.
	WaitTimeout time.Duration // default: 25s

	// SettleDelay is applied after the iframe appears, before reading src.
	SettleDelay time.Duration // default: 2s

	// ProviderHost must be a substring of an accepted src. Empty disables the check.
	ProviderHost string // default: "megacloud"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects stealth.JS into the session's tab.
	Stealth bool // default: true

	// BlockAds blocks requests to known ad and tracking domains.
	BlockAds bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir string // default: "."
}

// WebhookConfig controls the optional run notification.
type WebhookConfig struct {
	URL    string
	Secret string
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// CacheConfig controls the API's response cache.
type CacheConfig struct {
	// TTL is how long homepage and catalog responses are reused. 0 disables caching.
	TTL time.Duration // default: 5m

	// MaxEntries bounds the number of cached responses.
	MaxEntries int // default: 1000
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	variant := strings.ToLower(envOr("ANISCRAPE_VARIANT", VariantBrowser))
	if variant != VariantStatic {
		variant = VariantBrowser
	}

	return &Config{
		Site: SiteConfig{
			Origin:     strings.TrimRight(envOr("ANISCRAPE_ORIGIN", "https://aniwatchtv.to"), "/"),
			HomePath:   envOr("ANISCRAPE_HOME_PATH", "/home"),
			AZListPath: envOr("ANISCRAPE_AZ_PATH", "/az-list"),
		},
		Fetch: FetchConfig{
			Engine:         envOr("ANISCRAPE_PAGE_ENGINE", "http"),
			Timeout:        envDurationOr("ANISCRAPE_HTTP_TIMEOUT", 15*time.Second),
			UserAgent:      envOr("ANISCRAPE_USER_AGENT", DefaultUserAgent),
			Referer:        envOr("ANISCRAPE_REFERER", "https://www.google.com/"),
			AcceptLanguage: envOr("ANISCRAPE_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Proxy:          os.Getenv("ANISCRAPE_PROXY"),
		},
		Crawl: CrawlConfig{
			Variant:        variant,
			LatestURLStyle: os.Getenv("ANISCRAPE_LATEST_URL_STYLE"),
			WalkCatalog:    envBoolOr("ANISCRAPE_CRAWL_CATALOG", variant == VariantBrowser),
			PageDelay:      envDurationOr("ANISCRAPE_PAGE_DELAY", time.Second),
			ResolveStreams: envBoolOr("ANISCRAPE_RESOLVE_STREAMS", true),
		},
		Stream: StreamConfig{
			IframeSelector: envOr("ANISCRAPE_IFRAME_SELECTOR", "iframe#iframe-embed"),
			WaitTimeout:    envDurationOr("ANISCRAPE_STREAM_WAIT", 25*time.Second),
			SettleDelay:    envDurationOr("ANISCRAPE_STREAM_SETTLE", 2*time.Second),
			ProviderHost:   envOr("ANISCRAPE_PROVIDER_HOST", "megacloud"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("ANISCRAPE_HEADLESS", true),
			NoSandbox:  envBoolOr("ANISCRAPE_NO_SANDBOX", false),
			BrowserBin: os.Getenv("ANISCRAPE_BROWSER_BIN"),
			Stealth:    envBoolOr("ANISCRAPE_STEALTH", true),
			BlockAds:   envBoolOr("ANISCRAPE_BLOCK_ADS", true),
			BlockedResourceTypes: envSliceOr("ANISCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Output: OutputConfig{
			Dir: envOr("ANISCRAPE_OUTPUT_DIR", "."),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("ANISCRAPE_WEBHOOK_URL"),
			Secret: os.Getenv("ANISCRAPE_WEBHOOK_SECRET"),
		},
		Server: ServerConfig{
			Host: envOr("ANISCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("ANISCRAPE_PORT", 8080),
			Mode: envOr("ANISCRAPE_MODE", "release"),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("ANISCRAPE_CACHE_TTL", 5*time.Minute),
			MaxEntries: envIntOr("ANISCRAPE_CACHE_MAX_ENTRIES", 1000),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("ANISCRAPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("ANISCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("ANISCRAPE_RATE_RPS", 1.0),
			Burst:             envIntOr("ANISCRAPE_RATE_BURST", 3),
		},
		Log: LogConfig{
			Level:  envOr("ANISCRAPE_LOG_LEVEL", "info"),
			Format: envOr("ANISCRAPE_LOG_FORMAT", "json"),
		},
	}
}

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// EffectiveLatestURLStyle resolves the latest-episode URL style, falling
// back to the variant's own convention when none is set.
func (c CrawlConfig) EffectiveLatestURLStyle() string {
	switch strings.ToLower(c.LatestURLStyle) {
	case LatestURLDirect:
		return LatestURLDirect
	case LatestURLWatch:
		return LatestURLWatch
	}
	if c.Variant == VariantStatic {
		return LatestURLDirect
	}
	return LatestURLWatch
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
