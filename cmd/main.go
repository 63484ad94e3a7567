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

	"github.com/bgaliyev/cue-league/brackets"
	"github.com/bgaliyev/cue-league/config"
	"github.com/bgaliyev/cue-league/db"
	"github.com/bgaliyev/cue-league/handlers"
	"github.com/bgaliyev/cue-league/repositories"
	api "github.com/bgaliyev/cue-league/routes"
	"github.com/bgaliyev/cue-league/services"
	"github.com/bgaliyev/cue-league/storage"
)

const schedulerInterval = 30 * time.Second

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
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	txRunner := repositories.NewSQLTxRunner(dbConn)

	generators := []brackets.Generator{
		brackets.NewSingleEliminationGenerator(txRunner, matchRepo, participantRepo, logger),
	}

	bracketService := services.NewBracketService(generators, matchRepo, participantRepo, tournamentRepo, logger)
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey)
	userService := services.NewUserService(userRepo, uploader)
	matchService := services.NewMatchService(matchRepo, participantRepo, tournamentRepo, bracketService, wsHub, logger)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		participantRepo,
		matchRepo,
		bracketService,
		uploader,
		wsHub,
		logger,
	)
	participantService := services.NewParticipantService(participantRepo, tournamentRepo, userRepo, uploader)
	logger.Info("services initialized")

	// Opens registration and auto-starts tournaments as their dates pass.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament status scheduler started", slog.Duration("interval", schedulerInterval))

		if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := tournamentService.AutoUpdateStatusesByDates(context.Background()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	router := api.InitRoutes(api.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		User:        handlers.NewUserHandler(userService),
		Tournament:  handlers.NewTournamentHandler(tournamentService, bracketService),
		Participant: handlers.NewParticipantHandler(participantService),
		Match:       handlers.NewMatchHandler(matchService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, logger),
	}, cfg.JWTSecretKey)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
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
