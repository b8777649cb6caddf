package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/config"
	"github.com/Dosada05/fightclub-brackets/db"
	"github.com/Dosada05/fightclub-brackets/handlers"
	"github.com/Dosada05/fightclub-brackets/repositories"
	api "github.com/Dosada05/fightclub-brackets/routes"
	"github.com/Dosada05/fightclub-brackets/services"
	"github.com/Dosada05/fightclub-brackets/storage"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.EnsureSchema(schemaCtx, dbConn)
	cancelSchema()
	if err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database ready")

	var archiver services.ReportArchiver
	if cfg.R2 != nil {
		uploader, err := storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = services.NewReportArchiver(uploader)
		logger.Info("synthesis reports will be archived to R2", slog.String("bucket", cfg.R2.BucketName))
	}

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(appCtx)

	fighterRepo := repositories.NewPostgresFighterRepository(dbConn)
	clubRepo := repositories.NewPostgresClubRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)

	fighterFactory := services.NewFighterFactory(fighterRepo)
	synthesisService := services.NewSynthesisService(
		fighterRepo,
		clubRepo,
		competitionRepo,
		bracketRepo,
		fighterFactory,
		wsHub,
		archiver,
		logger,
		cfg.Synthesis.BatchConcurrency,
	)
	bracketService := services.NewBracketService(fighterRepo, competitionRepo, bracketRepo, wsHub, logger)
	defaults := services.NewSynthesisConfig(cfg.Synthesis)

	if cfg.Synthesis.ScheduleInterval > 0 {
		scheduler, err := services.NewSynthesisScheduler(cfg.Synthesis.ScheduleInterval, synthesisService, competitionRepo, archiver, defaults, logger)
		if err != nil {
			logger.Error("failed to create synthesis scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Error("failed to stop synthesis scheduler", slog.Any("error", err))
			}
		}()
		logger.Info("synthesis scheduler started", slog.Duration("interval", cfg.Synthesis.ScheduleInterval))
	}

	bracketHandler := handlers.NewBracketHandler(bracketService)
	synthesisHandler := handlers.NewSynthesisHandler(synthesisService, defaults, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		cfg.CORSAllowedOrigins,
		bracketHandler,
		synthesisHandler,
		webSocketHandler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
