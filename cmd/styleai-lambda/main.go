// Package main provides the Lambda entry point for the StyleAI API.
//
// It serves the same handler as `styleai serve` behind API Gateway (HTTP API,
// payload v2). The default Gemini key comes from GEMINI_API_KEY or the SSM
// parameter named by SSM_API_KEY_PARAM; clients may still send their own key
// in X-Gemini-Api-Key.
//
// Endpoints:
//
//	GET    /api/health
//	POST   /api/describe
//	POST   /api/suggest
//	POST   /api/extract
//	POST   /api/summarize
//	POST   /api/speech
//	POST   /api/consult
//	GET    /api/wardrobe
//	POST   /api/wardrobe
//	PUT    /api/wardrobe/{id}
//	DELETE /api/wardrobe/{id}
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/api"
	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/config"
	"github.com/fpang/styleai/internal/lambdaboot"
	"github.com/fpang/styleai/internal/logging"
	"github.com/fpang/styleai/internal/settings"
	"github.com/fpang/styleai/internal/store"
)

var (
	handler     http.Handler
	flushSentry func()
)

func init() {
	initStart := time.Now()
	logging.InitJSON(os.Stdout)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	clients := lambdaboot.InitAWS(ctx)
	ws, _, err := lambdaboot.InitStore(ctx, cfg, &clients)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open wardrobe store")
	}

	// No settings file in Lambda: configured key, then SSM.
	apiKey, err := auth.GetAPIKey(ctx, "", settings.Settings{}, cfg.GeminiAPIKey, lambdaboot.SSMKeySource(clients.SSM, cfg.SSMAPIKeyParam))
	if err != nil {
		log.Warn().Err(err).Msg("No default API key, every request must send " + api.APIKeyHeader)
	}
	client, err := chat.NewClient(apiKey, chat.WithModel(cfg.GeminiModel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	view := store.NewView(ws)
	if err := view.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load wardrobe")
	}

	flushSentry = lambdaboot.InitSentry(cfg, "styleai-lambda@"+commitHash)
	// Warm containers outlive other instances' writes, so reads reload.
	handler = api.New(client, view,
		api.WithAllowedOrigins(cfg.AllowedOrigins...),
		api.WithReloadOnRead(),
	).Handler()

	lambdaboot.StartupLog("styleai-lambda", initStart).
		Store("backend", cfg.StoreBackend).
		Store("table", cfg.WardrobeTable).
		S3Bucket("photos", cfg.PhotoBucket).
		SSMParam("geminiApiKey", cfg.SSMAPIKeyParam).
		Feature("defaultKey", apiKey != "").
		Feature("sentry", cfg.SentryDSN != "").
		Config("model", client.Model()).
		Config("commitHash", commitHash).
		Config("buildTime", buildTime).
		Log()
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		defer flushSentry()
		return adapter.ProxyWithContext(ctx, req)
	})
}
