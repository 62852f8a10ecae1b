// Package auth resolves and validates the Gemini API key.
package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/settings"
)

// EnvVar is the variable config.Config reads the deployment-default key from.
const EnvVar = "GEMINI_API_KEY"

// KeySource is a last-resort key lookup, e.g. SSM Parameter Store in Lambda.
type KeySource func(ctx context.Context) (string, error)

// GetAPIKey returns the Gemini API key from the first source that has one.
// Priority order:
//  1. override (a per-request key)
//  2. the settings file
//  3. deployment, the configured default (config.Config.GeminiAPIKey)
//  4. fallbacks, in order
//
// If none has a key it returns a *ValidationError of type ErrTypeNoKey.
func GetAPIKey(ctx context.Context, override string, s settings.Settings, deployment string, fallbacks ...KeySource) (string, error) {
	if key := strings.TrimSpace(override); key != "" {
		log.Debug().Msg("Using API key override")
		return key, nil
	}
	if s.HasAPIKey() {
		log.Debug().Msg("Using API key from settings file")
		return s.GeminiAPIKey, nil
	}
	if key := strings.TrimSpace(deployment); key != "" {
		log.Debug().Msg("Using deployment API key")
		return key, nil
	}

	var lastErr error
	for _, src := range fallbacks {
		key, err := src(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("API key fallback source failed")
			lastErr = err
			continue
		}
		if key = strings.TrimSpace(key); key != "" {
			log.Debug().Msg("Using API key from fallback source")
			return key, nil
		}
	}

	return "", &ValidationError{
		Type:    ErrTypeNoKey,
		Message: "API key not found. Set GEMINI_API_KEY or run 'styleai key set'",
		Err:     lastErr,
	}
}
