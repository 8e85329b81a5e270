package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/config"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/database"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/handler"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/jobs"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/meeting"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/middleware"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/notify"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/redis"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/repository"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/service"
	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/sse"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

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

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewSessionRepository(db.DB)
	tokenRepo := repository.NewJoinTokenRepository(db.DB)
	auditRepo := repository.NewAuditLogRepository(db.DB)
	connRepo := repository.NewConnectionRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	provisioner := meeting.NewZoomProvisioner(cfg)
	notifier := notify.NewBrokerNotifier(broker)

	sessionService := service.NewSessionService(
		db, sessionRepo, tokenRepo, auditRepo, connRepo, userRepo,
		provisioner, notifier, cfg.JoinTokenTTL(),
	)

	authMiddleware := middleware.NewAuthMiddleware(userRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	sessionHandler := handler.NewSessionHandler(sessionService)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Get("/events", eventsHandler.ServeHTTP)
		r.Mount("/sessions", sessionHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(tokenRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

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
