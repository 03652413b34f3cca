package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thanakrit-dev/election-be/internal/api"
	"github.com/thanakrit-dev/election-be/internal/auth"
	"github.com/thanakrit-dev/election-be/internal/captcha"
	"github.com/thanakrit-dev/election-be/internal/config"
	"github.com/thanakrit-dev/election-be/internal/database"
	"github.com/thanakrit-dev/election-be/internal/logger"
	"github.com/thanakrit-dev/election-be/internal/monitoring"
	"github.com/thanakrit-dev/election-be/internal/services"
	"github.com/thanakrit-dev/election-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket hub for the live result feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up token manager and captcha gate
	tokens := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	verifier := captcha.NewTurnstile(cfg.TurnstileSecret, cfg.TurnstileFailOpen)

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db)
	settingService := services.NewSettingService(db, eventService)
	authService := services.NewAuthService(userService, tokens, verifier, eventService)
	candidateService := services.NewCandidateService(db, settingService, eventService)
	voteService := services.NewVoteService(db, settingService, eventService, hub)

	// Bootstrap admin account if configured
	if err := userService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure admin account")
	}

	// Set up and run the background tally snapshotter
	snapshotter := monitoring.NewSnapshotter(voteService, cfg.SnapshotSchedule)
	if err := snapshotter.Run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start tally snapshotter")
	}

	// Set up router
	router := api.NewRouter(api.Deps{
		Tokens:     tokens,
		Hub:        hub,
		Auth:       authService,
		Users:      userService,
		Candidates: candidateService,
		Votes:      voteService,
		Settings:   settingService,
		Events:     eventService,
		CORSOrigin: cfg.CORSOrigin,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	snapshotter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
