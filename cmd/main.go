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

	"github.com/bracket-of-death/backend/auth"
	"github.com/bracket-of-death/backend/brackets"
	"github.com/bracket-of-death/backend/config"
	"github.com/bracket-of-death/backend/db"
	"github.com/bracket-of-death/backend/handlers"
	"github.com/bracket-of-death/backend/repositories"
	api "github.com/bracket-of-death/backend/routes"
	"github.com/bracket-of-death/backend/services"
	"github.com/bracket-of-death/backend/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
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
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.PhotoStorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2Bucket,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("photo storage initialized")
	} else {
		logger.Info("photo storage not configured, uploads disabled")
	}

	var idpClient *auth.AdminClient
	if cfg.IdentityAdminEnabled() {
		idpClient, err = auth.NewAdminClient(auth.AdminClientConfig{
			BaseURL:       cfg.KeycloakURL,
			Realm:         cfg.KeycloakRealm,
			AdminUser:     cfg.KeycloakAdminUser,
			AdminPassword: cfg.KeycloakAdminPassword,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize identity provider client", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("identity provider client initialized")
	} else {
		logger.Info("identity provider not configured, account management disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)

	seedingService := services.NewSeedingService(playerRepo, logger)
	playerService := services.NewPlayerService(playerRepo, logger)
	statsService := services.NewStatsService(playerRepo, resultRepo, logger)
	registrationService := services.NewRegistrationService(dbConn, registrationRepo, tournamentRepo, playerRepo, logger)
	bracketService := services.NewBracketService(
		dbConn, tournamentRepo, matchRepo, seedingService,
		brackets.NewSeededSingleEliminationGenerator(), wsHub, logger,
	)
	matchService := services.NewMatchService(dbConn, matchRepo, tournamentRepo, resultRepo, wsHub, logger)
	tournamentService := services.NewTournamentService(
		dbConn, tournamentRepo, matchRepo, resultRepo, playerRepo, registrationRepo,
		statsService, wsHub, logger,
	)
	deletionService := services.NewDeletionService(
		dbConn, tournamentRepo, matchRepo, resultRepo, registrationRepo, statsService, logger,
	)
	photoService := services.NewPhotoService(tournamentRepo, uploader, logger)

	playerHandler := handlers.NewPlayerHandler(playerService, statsService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, deletionService, photoService)
	matchHandler := handlers.NewMatchHandler(matchService, bracketService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	seedingHandler := handlers.NewSeedingHandler(seedingService, tournamentService)
	statsHandler := handlers.NewStatsHandler(statsService)
	userHandler := handlers.NewUserHandler(idpClient)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg,
		playerHandler,
		tournamentHandler,
		matchHandler,
		registrationHandler,
		seedingHandler,
		statsHandler,
		userHandler,
		webSocketHandler,
	)

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
