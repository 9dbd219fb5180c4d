package pagecraft

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/pagecraft/assets"
	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/views"
)

// DefaultOwner owns every document created through the admin UI.
const DefaultOwner = "admin"

// SiteConfig holds all configuration for a pagecraft site.
type SiteConfig struct {
	Name        string // Site name (default "pagecraft")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Default meta description

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/pagecraft.db")

	AnalyticsEnabled      bool   // Record document views (default true via ConfigFromEnv)
	AnalyticsDatabasePath string // Analytics SQLite path (default "data/analytics.db")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: cookie session secret
	CookieSecure  bool   // Set true for HTTPS

	PageCacheTTL time.Duration // Public page cache TTL (default 5min)
	RedisURL     string        // Optional second cache level
	SessionIdle  time.Duration // Editor sessions expire after this (default 2h)

	S3          assets.S3Config // Uploads go to S3 when Bucket is set
	UnsplashKey string          // Enables image search
	UnsplashURL string          // Override for Unsplash-compatible APIs
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "pagecraft"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pagecraft.db"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.PageCacheTTL == 0 {
		c.PageCacheTTL = 5 * time.Minute
	}
	if c.SessionIdle == 0 {
		c.SessionIdle = 2 * time.Hour
	}
}

func (c SiteConfig) views() views.SiteConfig {
	return views.SiteConfig{Name: c.Name, URL: c.URL, Description: c.Description}
}

// ConfigFromEnv reads a SiteConfig from the environment.
func ConfigFromEnv() SiteConfig {
	return SiteConfig{
		Name:                  EnvOr("SITE_NAME", "pagecraft"),
		URL:                   EnvOr("SITE_URL", "http://localhost:3000"),
		Description:           EnvOr("SITE_DESCRIPTION", "Pages, links and emails built with pagecraft."),
		Addr:                  EnvOr("ADDR", ":3000"),
		DatabasePath:          EnvOr("DATABASE_PATH", "data/pagecraft.db"),
		AnalyticsEnabled:      envBool("ANALYTICS_ENABLED", true),
		AnalyticsDatabasePath: EnvOr("ANALYTICS_DATABASE_PATH", "data/analytics.db"),
		AdminPassword:         EnvOr("ADMIN_PASSWORD", ""),
		SessionSecret:         EnvOr("ADMIN_SESSION_SECRET", ""),
		CookieSecure:          envBool("COOKIE_SECURE", false),
		PageCacheTTL:          envDuration("PAGE_CACHE_TTL", 5*time.Minute),
		RedisURL:              EnvOr("REDIS_URL", ""),
		SessionIdle:           envDuration("EDITOR_SESSION_IDLE", 2*time.Hour),
		S3: assets.S3Config{
			Bucket:          EnvOr("S3_BUCKET", ""),
			Region:          EnvOr("S3_REGION", ""),
			Endpoint:        EnvOr("S3_ENDPOINT", ""),
			AccessKeyID:     EnvOr("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: EnvOr("S3_SECRET_ACCESS_KEY", ""),
			PublicURL:       EnvOr("S3_PUBLIC_URL", ""),
		},
		UnsplashKey: EnvOr("UNSPLASH_ACCESS_KEY", ""),
		UnsplashURL: EnvOr("UNSPLASH_API_URL", ""),
	}
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(EnvOr(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(EnvOr(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets and local uploads
// (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithLogger replaces the default production logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		a.Logger = log
	}
}

// WithStorage replaces the upload storage chosen from config.
func WithStorage(s assets.Storage) Option {
	return func(a *App) {
		a.Assets = s
	}
}

// WithShortener replaces the store-backed link shortener.
func WithShortener(s Shortener) Option {
	return func(a *App) {
		a.Shortener = s
	}
}

// WithViews replaces the built-in views.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithPalette replaces the default element catalog.
func WithPalette(p *builder.Palette) Option {
	return func(a *App) {
		a.Palette = p
	}
}
