package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/styleai/internal/api"
	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/lambdaboot"
	"github.com/fpang/styleai/internal/store"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wardrobe API over HTTP",
	Long: `Serve starts the JSON API used by the web client. Requests may carry
their own key in the X-Gemini-Api-Key header; otherwise the resolved default
key is used.

Examples:
  styleai serve
  styleai serve --port 9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default $PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	initStart := time.Now()
	e := loadEnv()
	ctx := cmd.Context()

	port := e.cfg.Port
	if portFlag != 0 {
		port = portFlag
	}

	apiKey, err := auth.GetAPIKey(ctx, keyFlag, e.settings, e.cfg.GeminiAPIKey)
	if err != nil {
		log.Warn().Msg("No default API key, every request must send " + api.APIKeyHeader)
	}
	client, err := chat.NewClient(apiKey, chat.WithModel(e.cfg.GeminiModel))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	view, closeFn, err := e.openView(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	opts := []api.Option{
		api.WithLanguage(e.language()),
		api.WithAllowedOrigins(e.cfg.AllowedOrigins...),
	}
	w, watched := view.Store().(store.Watcher)
	if watched {
		go func() {
			if err := view.Follow(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Wardrobe watch stopped")
			}
		}()
	} else {
		opts = append(opts, api.WithReloadOnRead())
	}

	flush := lambdaboot.InitSentry(e.cfg, release())
	defer flush()

	handler := api.New(client, view, opts...).Handler()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Shutdown did not complete cleanly")
		}
	}()

	lambdaboot.StartupLog("styleai-serve", initStart).
		Store("backend", e.cfg.StoreBackend).
		Store("table", e.cfg.WardrobeTable).
		S3Bucket("photos", e.cfg.PhotoBucket).
		Feature("defaultKey", apiKey != "").
		Feature("watch", watched).
		Feature("sentry", e.cfg.SentryDSN != "").
		Config("port", strconv.Itoa(port)).
		Config("model", client.Model()).
		Config("buildTime", buildTime).
		Log()
	fmt.Printf("\n  StyleAI API: http://localhost:%d/api/health\n\n", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
