package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leadflow/ingest-server/internal/config"
	"github.com/leadflow/ingest-server/internal/database"
	"github.com/leadflow/ingest-server/internal/handler"
	"github.com/leadflow/ingest-server/internal/middleware"
	"github.com/leadflow/ingest-server/internal/redis"
	"github.com/leadflow/ingest-server/internal/repository"
	"github.com/leadflow/ingest-server/internal/service"
	"github.com/leadflow/ingest-server/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), config.DBMigrateTimeout)
	if err := db.Migrate(migrateCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}
	migrateCancel()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	eventRepo := repository.NewEventRepository(db.DB)
	inboundCallRepo := repository.NewInboundCallRepository(db.DB)
	contactRepo := repository.NewContactRepository(db.DB)
	audienceRepo := repository.NewAudienceRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	webhookDedup := service.NewRedisDedupStore(redisClient.Client)
	var pageViewDedup service.DedupStore
	if cfg.PageViewDedupEnabled {
		pageViewDedup = service.NewRedisDedupStore(redisClient.Client)
		log.Info().Msg("server-side page_view deduplication enabled")
	}

	eventService := service.NewEventService(eventRepo, pageViewDedup)
	analyticsService := service.NewAnalyticsService(eventRepo)
	inboundService := service.NewInboundService(inboundCallRepo, webhookDedup, cfg.WebhookDedupTTL(), broker)
	contactService := service.NewContactService(contactRepo)
	audienceService := service.NewAudienceService(db, audienceRepo)

	operatorAuth := middleware.NewOperatorAuthMiddleware(cfg.OperatorTokenHash)
	gatewaySignature := middleware.NewGatewaySignatureMiddleware(cfg.GatewayWebhookSecret)
	trackingRateLimit := middleware.NewIPRateLimitMiddleware(
		service.NewFailOpenRateLimiter(redisClient.Client),
		cfg.TrackingRateLimitPerMin,
		config.TrackingRateLimitWindow,
		"tracking",
	)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(isProduction)

	r := newRouter(routes{
		tracking:          handler.NewTrackingHandler(eventService, analyticsService),
		webhook:           handler.NewWebhookHandler(inboundService),
		contacts:          handler.NewContactHandler(contactService),
		audience:          handler.NewAudienceHandler(audienceService),
		leads:             handler.NewLeadsHandler(inboundService, broker),
		health:            handler.NewHealthHandler(db),
		operatorAuth:      operatorAuth,
		gatewaySignature:  gatewaySignature,
		trackingRateLimit: trackingRateLimit,
		securityHeaders:   securityHeaders,
		importMaxBytes:    cfg.ImportMaxBytes,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
