package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/config"
	"github.com/carelink/hms/internal/domain/dashboard"
	"github.com/carelink/hms/internal/domain/documents"
	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/domain/notification"
	"github.com/carelink/hms/internal/domain/reports"
	"github.com/carelink/hms/internal/domain/scheduling"
	"github.com/carelink/hms/internal/domain/settings"
	"github.com/carelink/hms/internal/domain/triage"
	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
	"github.com/carelink/hms/internal/platform/cache"
	"github.com/carelink/hms/internal/platform/db"
	"github.com/carelink/hms/internal/platform/delivery"
	"github.com/carelink/hms/internal/platform/middleware"
	"github.com/carelink/hms/internal/platform/websocket"
)

const version = "0.1.0"

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	doctorCache := openCache(ctx, cfg, logger)

	rules, err := triage.LoadRules(cfg.TriageRulesFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.TriageRulesFile).Msg("failed to load triage rules")
	}

	blobs := blobstore.NewPGStore(pool)
	tx := db.NewTxRunner(pool)
	hub := websocket.NewHub(logger)

	// Repositories and the dispatcher come first: every service that raises
	// events takes the dispatcher as its notifier.
	identityRepo := identity.NewRepoPG(pool)
	settingsSvc := settings.NewService(settings.NewRepoPG(pool), logger)

	channels := deliveryChannels(cfg, settingsSvc.HospitalName(ctx))
	channels = append(channels, notification.WithPublisher(hub))
	dispatcher := notification.NewDispatcher(notification.NewRepoPG(pool), identityRepo,
		dispatcherOptions(cfg), logger, channels...)

	identitySvc := identity.NewService(identityRepo, dispatcher, logger)
	apptSvc := scheduling.NewService(scheduling.NewRepoPG(pool), identityRepo, dispatcher, logger)
	reportsSvc := reports.NewService(reports.NewRepoPG(pool), identityRepo, apptSvc, blobs, tx, dispatcher, logger)
	documentsSvc := documents.NewService(documents.NewRepoPG(pool), blobs, tx, logger)
	dashboardSvc := dashboard.NewService(identitySvc, apptSvc, reportsSvc)
	notificationSvc := notification.NewService(notification.NewRepoPG(pool), dispatcher)

	finder := triage.NewCachedFinder(identitySvc, doctorCache, cfg.DoctorCacheTTL, logger)
	triageSvc := triage.NewService(triage.NewClassifier(rules, nil), triage.NewRanker(finder, logger))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Role"},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	authn := authMiddleware(cfg)
	if usesDevAuth(cfg) {
		logger.Warn().Msg("development mode: requests are authenticated from X-User-ID and X-User-Role headers")
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/ws", websocket.NewHandler(hub, cfg.CORSOrigins, logger).HandleConnect, authn)

	apiV1 := e.Group("/api/v1", authn, middleware.RateLimit(rateLimitConfig(cfg)))

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(apptSvc).RegisterRoutes(apiV1)
	reports.NewHandler(reportsSvc).RegisterRoutes(apiV1)
	documents.NewHandler(documentsSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notificationSvc).RegisterRoutes(apiV1)
	triage.NewHandler(triageSvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboardSvc, settingsSvc).RegisterRoutes(apiV1)
	settings.NewHandler(settingsSvc).RegisterRoutes(apiV1)

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("pending notifications abandoned")
	}
	if closer, ok := doctorCache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	logger.Info().Msg("server stopped")
	return nil
}

// openCache connects to Redis when configured. The doctor lookup degrades to
// uncached reads when Redis is missing or unreachable.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.Nop{}
	}
	c, err := cache.NewRedis(ctx, cfg.RedisURL, "hms:")
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, doctor lookups are not cached")
		return cache.Nop{}
	}
	logger.Info().Msg("connected to redis")
	return c
}

// usesDevAuth reports whether requests are trusted from headers: only in
// development and only when no token verification source is configured.
func usesDevAuth(cfg *config.Config) bool {
	return cfg.IsDev() && cfg.AuthSigningKey == "" && cfg.AuthJWKSURL == ""
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	if usesDevAuth(cfg) {
		return auth.DevAuthMiddleware()
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: []byte(cfg.AuthSigningKey),
	})
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	return rl
}

func dispatcherOptions(cfg *config.Config) notification.Options {
	opts := notification.DefaultOptions()
	opts.WriteTimeout = cfg.NotifyWriteTimeout
	opts.MaxRetries = cfg.NotifyMaxRetries
	opts.Concurrency = cfg.NotifyConcurrency
	opts.EventTimeout = cfg.NotifyEventTimeout
	return opts
}

// deliveryChannels returns the email and SMS mirrors that are configured,
// plus templates branded with hospital when it is set.
func deliveryChannels(cfg *config.Config, hospital string) []notification.Option {
	var opts []notification.Option
	if hospital != "" {
		opts = append(opts, notification.WithTemplates(delivery.NewTemplateEngine(hospital)))
	}
	if cfg.EmailEnabled() {
		opts = append(opts, notification.WithEmail(delivery.NewSMTPSender(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)))
	}
	if cfg.SMSEnabled() {
		opts = append(opts, notification.WithSMS(delivery.NewTwilioSender(
			cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)))
	}
	return opts
}
