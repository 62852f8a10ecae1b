package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/config"
	"github.com/fpang/styleai/internal/settings"
)

// InitChatClient resolves the API key (flag, then settings, then
// cfg.GeminiAPIKey, then sources), optionally validates it with a minimal
// call, and returns a flow client. Exits fatally on failure.
func InitChatClient(ctx context.Context, cfg config.Config, st settings.Settings, keyFlag string, validate bool, sources ...auth.KeySource) *chat.Client {
	apiKey, err := auth.GetAPIKey(ctx, keyFlag, st, cfg.GeminiAPIKey, sources...)
	if err != nil {
		HandleValidationError(err)
	}

	var opts []chat.Option
	if cfg.GeminiModel != "" {
		opts = append(opts, chat.WithModel(cfg.GeminiModel))
	}
	client, err := chat.NewClient(apiKey, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	if validate {
		gen, err := chat.GeminiGenerators(ctx, apiKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Gemini client")
		}
		if err := auth.ValidateAPIKey(ctx, gen, client.Model()); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}
	return client
}
