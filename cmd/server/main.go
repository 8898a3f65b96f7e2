// Command server runs the HolidayHome API: photo decoration, the per-device
// generation quota ledger, referrals, and purchase-credit reconciliation.
//
// Startup order: env → config → logging → tracing → database → HTTP server,
// then a signal-driven graceful shutdown that drains in-flight generations
// before closing the database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jmmlabs/holidayhome-backend/internal/config"
	"github.com/jmmlabs/holidayhome-backend/internal/gemini"
	httpapi "github.com/jmmlabs/holidayhome-backend/internal/http"
	"github.com/jmmlabs/holidayhome-backend/internal/observability"
	"github.com/jmmlabs/holidayhome-backend/internal/repo"
	"github.com/jmmlabs/holidayhome-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=…".
var version = ""

func main() {
	// Local development convenience; production injects real env vars.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging: level from config, pretty console output opt-in.
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty || sysutil.IsTruthy(os.Getenv("LOG_PRETTY")) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version, "dev")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	image := gemini.NewHTTPClient(cfg.Gemini.APIKey,
		gemini.WithImageModel(cfg.Gemini.ImageModel),
		gemini.WithTextModel(cfg.Gemini.TextModel),
		gemini.WithHTTPClient(&http.Client{Timeout: cfg.Gemini.Timeout}),
	)
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is empty; /generate will fail until it is set")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, image, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("version", appVersion).
			Str("port", cfg.Port).
			Str("db", cfg.DBPath).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Give in-flight generations time to finish; they can run close to the
	// image-service timeout.
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
