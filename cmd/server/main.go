package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mvmaia/contas/internal/api"
	"github.com/mvmaia/contas/internal/auth"
	"github.com/mvmaia/contas/internal/config"
	"github.com/mvmaia/contas/internal/extract"
	"github.com/mvmaia/contas/internal/storage/sqlite"
	"github.com/mvmaia/contas/internal/transcribe"
	"github.com/mvmaia/contas/internal/voice"
	"github.com/mvmaia/contas/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	var pipeline *voice.Pipeline
	if cfg.GoogleCredentialsFile != "" {
		transcriber, err := transcribe.NewGoogle(context.Background(),
			cfg.GoogleCredentialsFile, cfg.FFmpegPath, cfg.TranscribeTimeout)
		if err != nil {
			slog.Error("Failed to initialize transcription", "error", err)
			os.Exit(1)
		}
		pipeline = voice.New(transcriber, extract.New(), store)
		slog.Info("Voice transcription enabled", "timeout", cfg.TranscribeTimeout)
	} else {
		slog.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, audio endpoint disabled")
	}

	server := api.NewServer(store, tokens, pipeline)

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("API server starting", "address", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
