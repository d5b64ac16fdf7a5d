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

	"github.com/moodlog/moodlog-be/internal/api"
	"github.com/moodlog/moodlog-be/internal/auth"
	"github.com/moodlog/moodlog-be/internal/config"
	"github.com/moodlog/moodlog-be/internal/database"
	"github.com/moodlog/moodlog-be/internal/logger"
	"github.com/moodlog/moodlog-be/internal/monitoring"
	"github.com/moodlog/moodlog-be/internal/services"
	"github.com/moodlog/moodlog-be/internal/websocket"
)

const (
	tokenTTL       = 24 * time.Hour
	eventRetention = 30 * 24 * time.Hour
)

func main() {
	logger.Init()

	// Load configuration; refuse to start with anything missing
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath())
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath()).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the activity event stream hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokens := auth.NewTokenService(cfg.JWTSecret, tokenTTL)
	sequenceService := services.NewSequenceService(db)
	userService := services.NewUserService(db, sequenceService)
	entryService := services.NewEntryService(db, sequenceService)
	eventService := services.NewEventService(db, hub)

	// Set up and run the background event pruner
	pruner := monitoring.NewPruner(eventService, eventRetention)
	if err := pruner.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start event pruner")
	}

	// Set up router
	router := api.NewRouter(tokens, hub, userService, entryService, eventService)

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

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
