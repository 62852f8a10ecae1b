// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendDynamo    = "dynamo"
	BackendFirestore = "firestore"
)

type Config struct {
	// GeminiAPIKey is the deployment-default key. Settings and per-request
	// overrides take precedence.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	// GeminiModel overrides the structured-flow model.
	GeminiModel string `env:"GEMINI_MODEL"`

	StoreBackend       string `env:"STORE_BACKEND" envDefault:"memory"`
	WardrobeTable      string `env:"WARDROBE_TABLE_NAME"`
	PhotoBucket        string `env:"PHOTO_BUCKET_NAME"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID"`
	OwnerID            string `env:"WARDROBE_OWNER_ID" envDefault:"default"`

	SentryDSN string `env:"SENTRY_DSN"`
	// SentryEnvironment tags Sentry events, e.g. "prod".
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"development"`

	// SettingsPath overrides ~/.styleai/settings.yaml.
	SettingsPath string `env:"STYLEAI_SETTINGS"`
	// SSMAPIKeyParam is the SSM parameter holding the key in Lambda.
	SSMAPIKeyParam string `env:"SSM_API_KEY_PARAM" envDefault:"/styleai/prod/gemini-api-key"`

	// Port for the HTTP server.
	Port int `env:"PORT" envDefault:"8080"`
	// AllowedOrigins are extra CORS origins beyond localhost.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected store backend has what it needs.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendDynamo:
		if c.WardrobeTable == "" {
			return fmt.Errorf("WARDROBE_TABLE_NAME is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	case BackendFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want memory, dynamo, or firestore)", c.StoreBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}
