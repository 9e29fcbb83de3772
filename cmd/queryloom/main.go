package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/queryloom/queryloom/internal/config"
	"github.com/queryloom/queryloom/internal/server"
	"github.com/queryloom/queryloom/internal/store"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg)

	if cfg.MetadataDatabaseURL == "" {
		log.Fatal().Msg("METADATA_DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.MetadataDatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to metadata store")
	}
	if err := st.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metadata schema")
	}

	srv, err := server.New(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Msg("starting queryloom")

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
