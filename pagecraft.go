// Package pagecraft is a block-based page builder for link pages, landing
// pages, forms and email templates, built with Go, Echo and templ.
//
// Documents are edited through server-side sessions driven by htmx,
// stored in SQLite and published under /p/<slug>/. Views are
// replaceable through the ViewFuncs struct.
package pagecraft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pagecraft/analytics"
	"github.com/eringen/pagecraft/assets"
	"github.com/eringen/pagecraft/builder"
	"github.com/eringen/pagecraft/views"
)

// ViewFuncs holds the templ components the handlers render. Replace any
// of them to customize the site without touching handler logic.
type ViewFuncs struct {
	PublicPage     func(cfg views.SiteConfig, doc *builder.Document) templ.Component
	NotFound       func(cfg views.SiteConfig) templ.Component
	ServerError    func(cfg views.SiteConfig) templ.Component
	AdminLogin     func(cfg views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(cfg views.SiteConfig, d views.Dashboard) templ.Component
	EditorPage     func(cfg views.SiteConfig, v builder.View, csrfToken string) templ.Component
	Canvas         func(v builder.View) templ.Component
	PreviewDialog  func(doc *builder.Document) templ.Component
	Flash          func(msg string, isError bool) templ.Component
	ShareLink      func(url string) templ.Component
}

// DefaultViews returns the built-in views.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		PublicPage:     views.PublicPage,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		EditorPage:     views.EditorPage,
		Canvas:         views.Canvas,
		PreviewDialog:  views.PreviewDialog,
		Flash:          views.Flash,
		ShareLink:      views.ShareLink,
	}
}

// App is the central pagecraft application. It wires together the store,
// caches, editor sessions, handlers and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Logger    *zap.Logger
	Store     *Store
	Cache     *PageCache
	Sessions  *builder.Sessions
	Palette   *builder.Palette
	Assets    assets.Storage
	Searcher  *assets.Searcher
	Shortener Shortener
	Recorder  *analytics.Recorder
	Views     ViewFuncs

	loginLimiter   *LoginLimiter
	analyticsStore *analytics.Store
	customRoutes   []func(*App)
	staticDir      string
	stops          []func()
	ready          bool
}

// New creates a new pagecraft App. Call Init, or Start which calls it.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     DefaultViews(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		log, err := zap.NewProduction()
		if err != nil {
			log = zap.NewNop()
		}
		a.Logger = log
	}
	return a
}

// Init opens the databases, starts background workers and registers
// middleware and routes. It is idempotent.
func (a *App) Init() error {
	if a.ready {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return errors.New("pagecraft: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("pagecraft: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pagecraft: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewPageCache(a.Store, a.Config.PageCacheTTL, a.Logger)
	if a.Config.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.Cache.UseRedis(ctx, a.Config.RedisURL)
		cancel()
		if err != nil {
			a.Logger.Warn("page cache: redis unavailable, using memory only", zap.Error(err))
		}
	}

	if a.Palette == nil {
		a.Palette = builder.DefaultPalette()
	}
	a.Sessions = builder.NewSessions(a.Palette, a.Config.SessionIdle)
	stopEviction := a.Sessions.StartEviction(time.Minute, func(n int) {
		a.Logger.Info("editor sessions evicted", zap.Int("count", n))
	})
	a.stops = append(a.stops, stopEviction)

	if a.Assets == nil {
		if a.Config.S3.Bucket != "" {
			s3Storage, err := assets.NewS3Storage(a.Config.S3)
			if err != nil {
				return fmt.Errorf("pagecraft: init s3: %w", err)
			}
			a.Assets = s3Storage
		} else {
			a.Assets = assets.NewLocalStorage(a.staticDir)
		}
	}
	a.Searcher = assets.NewSearcher(a.Config.UnsplashURL, a.Config.UnsplashKey)
	if a.Shortener == nil {
		a.Shortener = NewStoreShortener(a.Store, a.Config.URL)
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.stops = append(a.stops, a.loginLimiter.Stop)

	if a.Config.AnalyticsEnabled {
		analyticsStore, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("pagecraft: init analytics: %w", err)
		}
		a.analyticsStore = analyticsStore
		if err := analytics.InitSalt(analyticsStore); err != nil {
			return fmt.Errorf("pagecraft: init analytics salt: %w", err)
		}
		a.Recorder = analytics.NewRecorder(analyticsStore, a.Logger, analytics.RecorderConfig{})
		a.stops = append(a.stops,
			analyticsStore.StartCleanupScheduler(365, 24*time.Hour, a.Logger),
			a.Recorder.Close)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("pagecraft listening", zap.String("addr", a.Config.Addr), zap.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))
	e.GET("/public/pagecraft.js", echo.WrapHandler(embeddedHandler))
	e.GET("/public/pagecraft.css", echo.WrapHandler(embeddedHandler))

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/p/:slug/", a.handlePublicPage)
	e.GET("/s/:code/", a.handleShortLink)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.POST("/documents/", a.handleCreateDocument)
	admin.GET("/documents/:id/edit/", a.handleEditDocument)
	admin.DELETE("/documents/:id/", a.handleDeleteDocument)
	admin.GET("/images/", a.handleImageList)
	admin.POST("/images/upload/", a.handleImageUpload)
	admin.DELETE("/images/:filename/", a.handleImageDelete)
	admin.GET("/images/search/", a.handleImageSearch)
	if a.analyticsStore != nil {
		analytics.NewHandler(a.analyticsStore, a.Logger).RegisterRoutes(admin)
	}

	a.registerEditorRoutes(admin.Group("/edit/:session"))
}

// Close stops background workers and closes the databases.
func (a *App) Close() error {
	for i := len(a.stops) - 1; i >= 0; i-- {
		a.stops[i]()
	}
	a.stops = nil
	var errs []error
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.analyticsStore != nil {
		errs = append(errs, a.analyticsStore.Close())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if
// it is empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "pagecraft: required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return v
}
