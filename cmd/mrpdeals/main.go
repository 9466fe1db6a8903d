// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/mrpdeals/mrpdeals-go/internal/ai"
	"github.com/mrpdeals/mrpdeals-go/internal/cache"
	"github.com/mrpdeals/mrpdeals-go/internal/config"
	"github.com/mrpdeals/mrpdeals-go/internal/geoip"
	"github.com/mrpdeals/mrpdeals-go/internal/handler"
	"github.com/mrpdeals/mrpdeals-go/internal/logging"
	"github.com/mrpdeals/mrpdeals-go/internal/mail"
	"github.com/mrpdeals/mrpdeals-go/internal/middleware"
	"github.com/mrpdeals/mrpdeals-go/internal/model"
	"github.com/mrpdeals/mrpdeals-go/internal/render"
	"github.com/mrpdeals/mrpdeals-go/internal/scheduler"
	"github.com/mrpdeals/mrpdeals-go/internal/seo"
	"github.com/mrpdeals/mrpdeals-go/internal/service"
	"github.com/mrpdeals/mrpdeals-go/internal/session"
	"github.com/mrpdeals/mrpdeals-go/internal/store"
	"github.com/mrpdeals/mrpdeals-go/internal/version"
	"github.com/mrpdeals/mrpdeals-go/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "MRP Deals - curated deals directory\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_DB_PATH           SQLite database path (default: ./data/mrpdeals.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_UPLOADS_DIR       Logo uploads directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_SMTP_HOST         SMTP relay for password reset mail (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_OPENAI_API_KEY    OpenAI key for description drafts (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_GEOIP_DB_PATH     GeoLite2-Country.mmdb path (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  MRP_DO_SEED           Seed demo deals on first run (default: false)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		fmt.Println(version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime})
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Create version info from build-time injected values
	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	slog.Info("starting mrpdeals", "version", versionInfo.Version, "commit", versionInfo.GitCommit)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Ensure uploads directory exists for deal logos
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Seed default data
	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Seed demo deals if enabled
	if err := store.SeedDemo(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding demo deals: %w", err)
	}

	queries := store.New(db)

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize cache backend (memory by default, Redis when configured)
	cacheStore, cacheInfo, err := cache.New(cache.Config{
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := cacheStore.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	if cfg.UseRedisCache() && cacheInfo.Backend == "memory" {
		slog.Warn("cache initialized", "backend", cacheInfo.Backend, "note", "Redis unavailable, using fallback")
	} else {
		slog.Info("cache initialized", "backend", cacheInfo.Backend, "detail", cacheInfo.Detail)
	}
	dealCache := cache.NewDealCache(cacheStore, time.Duration(cfg.CacheTTL)*time.Second)

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Initialize GeoIP lookup for click country stats
	var geoLookup *geoip.Lookup
	if cfg.GeoIPEnabled() {
		geoLookup = geoip.NewLookup()
		if err := geoLookup.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("GeoIP database unavailable, clicks will have no country", "error", err)
		} else {
			slog.Info("GeoIP lookup initialized", "path", cfg.GeoIPDBPath)
		}
	}

	// Initialize mail sender for password reset codes
	var sender mail.Sender
	if cfg.SMTPEnabled() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
		slog.Info("SMTP sender initialized", "host", cfg.SMTPHost)
	} else {
		sender = mail.NewLogSender(logger)
		slog.Info("SMTP not configured, reset codes are logged instead")
	}

	// Initialize AI description draft generator
	generator := ai.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if generator.Enabled() {
		slog.Info("description draft generator enabled", "model", cfg.OpenAIModel)
	}

	// Site name feeds reset mail subjects and page meta; settings
	// override the defaults
	siteName := "MRP Deals"
	if v, err := queries.GetSettingValue(ctx, model.SettingSiteName); err == nil && v != "" {
		siteName = v
	}
	tagline, _ := queries.GetSettingValue(ctx, model.SettingSiteTagline)
	siteConfig := seo.SiteConfig{
		SiteName: siteName,
		SiteURL:  cfg.BaseURL,
		Tagline:  tagline,
	}

	// Initialize services
	eventService := service.NewEventService(db, logger)
	accessService := service.NewAccessService(db, logger)
	clickService := service.NewClickService(db, geoLookup, logger)
	dealService := service.NewDealService(db, dealCache, generator, logger)
	logoService := service.NewLogoService(db, cfg.UploadsDir, dealCache, logger)
	resetService := service.NewResetService(db, sender, siteName, logger)

	// Initialize and start scheduler (event pruning, reset purge, GeoIP reload)
	sched := scheduler.New(eventService, resetService, geoLookup, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))                    // Gzip compression with level 5
	r.Use(chimw.GetHead)                        // Handle HEAD requests for uptime monitoring
	r.Use(middleware.Timeout(30 * time.Second)) // 30 second request timeout
	r.Use(middleware.StripTrailingSlash)        // Redirect /path/ to /path (301)

	// Security headers middleware (CSP, HSTS, X-Frame-Options, etc.)
	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	// Request path middleware for logging context
	r.Use(middleware.RequestPath)

	r.Use(sessionManager.LoadAndSave)

	// CSRF protection middleware (JSON API routes are exempted per group)
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Initialize login protection
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	// Public rate limiter for auth routes (defense-in-depth)
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, loginProtection, eventService)
	adminHandler := handler.NewAdminHandler(db, renderer)
	usersHandler := handler.NewUsersHandler(db, eventService, renderer)
	dealsHandler := handler.NewDealsHandler(dealService, logoService, clickService, eventService, renderer)
	siteHandler := handler.NewSiteHandler(dealService, clickService, renderer, siteConfig)
	accessHandler := handler.NewAccessHandler(accessService)
	settingsHandler := handler.NewSettingsHandler(db, accessService, eventService, renderer)
	eventsHandler := handler.NewEventsHandler(eventService, renderer)
	resetHandler := handler.NewResetHandler(renderer, sessionManager, resetService)
	healthHandler := handler.NewHealthHandler(db)
	seoHandler := handler.NewSEOHandler(dealService, queries, cfg.BaseURL, cfg.IsDevelopment())

	// Health check routes (public)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Crawler endpoints (public)
	r.Get("/sitemap.xml", seoHandler.Sitemap)
	r.Get("/robots.txt", seoHandler.Robots)
	r.Get("/.well-known/security.txt", seoHandler.SecurityTxt)

	// Public site routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sessionManager, db))
		r.Use(csrfMiddleware)
		r.Get(handler.RouteRoot, siteHandler.Home)
		r.Get(handler.RouteDeals+handler.RouteParamSlug, siteHandler.DealDetail)
		r.Get(handler.RouteDeals+handler.RouteParamSlug+"/go", siteHandler.DealGo)
		r.Get(handler.RouteUnlock, siteHandler.UnlockPage)
	})

	// Auth routes (public, with CSRF and rate limiting)
	// Defense-in-depth: publicRateLimiter + loginProtection on POST /login
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.HTMLMiddleware())
		r.Use(csrfMiddleware)
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Get(handler.RouteSignup, authHandler.SignupForm)
		r.Post(handler.RouteSignup, authHandler.Signup)
		r.Get(handler.RouteLogout, authHandler.Logout)
		r.Post(handler.RouteLogout, authHandler.Logout)

		// Password reset wizard
		r.Get(handler.RouteForgot, resetHandler.EmailForm)
		r.Post(handler.RouteForgot, resetHandler.SendCode)
		r.Get(handler.RouteForgot+"/code", resetHandler.CodeForm)
		r.Post(handler.RouteForgot+"/code", resetHandler.VerifyCode)
		r.Get(handler.RouteForgot+"/password", resetHandler.PasswordForm)
		r.Post(handler.RouteForgot+"/password", resetHandler.SetPassword)
	})

	// Admin routes (protected with CSRF)
	r.Route("/admin", func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Use(middleware.RequireAdmin())

		r.Get(handler.RouteRoot, adminHandler.Dashboard)
		r.Get(handler.RouteEvents, eventsHandler.List)

		// Deal management routes
		r.Get(handler.RouteDeals, dealsHandler.List)
		r.Get(handler.RouteDeals+handler.RouteSuffixNew, dealsHandler.NewForm)
		r.Post(handler.RouteDeals, dealsHandler.Create)
		r.Post(handler.RouteDeals+handler.RouteSuffixReorder, dealsHandler.Reorder)
		r.Post(handler.RouteDeals+handler.RouteSuffixSuggest, dealsHandler.Suggest)
		r.Get(handler.RouteDealsID, dealsHandler.EditForm)
		r.Put(handler.RouteDealsID, dealsHandler.Update)
		r.Post(handler.RouteDealsID, dealsHandler.Update) // HTML forms can't send PUT
		r.Post(handler.RouteDealsID+"/publish", dealsHandler.TogglePublish)
		r.Post(handler.RouteDealsID+"/delete", dealsHandler.Delete)
		r.Delete(handler.RouteDealsID, dealsHandler.Delete)
		r.Post(handler.RouteDealsID+handler.RouteSuffixLogo, dealsHandler.UploadLogo)
		r.Post(handler.RouteDealsID+handler.RouteSuffixLogo+"/delete", dealsHandler.RemoveLogo)

		// User management routes
		r.Get(handler.RouteUsers, usersHandler.List)
		r.Get(handler.RouteUsers+handler.RouteSuffixNew, usersHandler.NewForm)
		r.Post(handler.RouteUsers, usersHandler.Create)
		r.Get(handler.RouteUsersID, usersHandler.EditForm)
		r.Put(handler.RouteUsersID, usersHandler.Update)
		r.Post(handler.RouteUsersID, usersHandler.Update) // HTML forms can't send PUT
		r.Post(handler.RouteUsersID+"/delete", usersHandler.Delete)
		r.Delete(handler.RouteUsersID, usersHandler.Delete)

		// Settings routes
		r.Get(handler.RouteSettings, settingsHandler.Form)
		r.Put(handler.RouteSettings, settingsHandler.Save)
		r.Post(handler.RouteSettings, settingsHandler.Save) // HTML forms can't send PUT
	})

	// JSON API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)
		r.Use(apiRateLimiter.Middleware())
		r.Use(middleware.OptionalLoadUser(sessionManager, db))

		// Unlock submissions get the same per-IP throttle as login,
		// slowing brute force against the shared code.
		r.With(loginProtection.Middleware()).Post("/access/unlock", accessHandler.Unlock)
	})

	// Static file serving
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	// Static assets: cache for 1 year
	staticHandler := middleware.StaticCache(365 * 24 * time.Hour)(http.StripPrefix("/static/dist/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/dist/*", staticHandler)

	// Serve uploaded deal logos, cached for 1 week
	uploadsHandler := middleware.StaticCache(7 * 24 * time.Hour)(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/uploads/*", uploadsHandler)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Allow for logo uploads on slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
