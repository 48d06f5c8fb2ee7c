// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mvmaia/contas/internal/auth"
)

const (
	defaultTranscribeTimeout = 90 * time.Second
	maxTranscribeTimeout     = 180 * time.Second
)

// Config holds everything the server needs to start.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	TokenTTL  time.Duration

	// Transcription is optional: when GoogleCredentialsFile is empty the
	// audio endpoint is disabled and the rest of the API works normally.
	GoogleCredentialsFile string
	FFmpegPath            string
	TranscribeTimeout     time.Duration
}

// Load reads configuration from environment variables. JWT_SECRET is the
// only required variable.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  8080,
		DBPath:                getEnv("DB_PATH", "./data/contas.db"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		TokenTTL:              auth.DefaultTokenTTL,
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FFmpegPath:            getEnv("FFMPEG_PATH", "ffmpeg"),
		TranscribeTimeout:     defaultTranscribeTimeout,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	if port := os.Getenv("PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &cfg.Port); err != nil || cfg.Port <= 0 {
			return nil, fmt.Errorf("invalid PORT %q", port)
		}
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q", ttl)
		}
		cfg.TokenTTL = d
	}

	if timeout := os.Getenv("TRANSCRIBE_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid TRANSCRIBE_TIMEOUT %q", timeout)
		}
		cfg.TranscribeTimeout = d
	}
	if cfg.TranscribeTimeout > maxTranscribeTimeout {
		cfg.TranscribeTimeout = maxTranscribeTimeout
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
