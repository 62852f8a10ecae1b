package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/cli"
	"github.com/fpang/styleai/internal/config"
	"github.com/fpang/styleai/internal/lambdaboot"
	"github.com/fpang/styleai/internal/logging"
	"github.com/fpang/styleai/internal/settings"
	"github.com/fpang/styleai/internal/store"
)

// Global flags
var (
	modelFlag    string
	keyFlag      string
	languageFlag string
)

// rootCmd is the main Cobra command for the styleai CLI.
var rootCmd = &cobra.Command{
	Use:   "styleai",
	Short: "AI wardrobe assistant - describe clothes and plan outfits",
	Long: `StyleAI keeps a wardrobe of clothing photos and uses Gemini to describe
garments, suggest outfits for an occasion and weather, and read suggestions
aloud.

The wardrobe lives in the store selected by STORE_BACKEND (memory, dynamo,
or firestore). The API key is read from --api-key, then the settings file
(~/.styleai/settings.yaml), then GEMINI_API_KEY.

Examples:
  styleai key set
  styleai describe shirt.jpg --add
  styleai suggest --occasion "Dinner party" --weather "Cool evening"
  styleai suggest --language vi --audio outfit.wav
  styleai wardrobe list
  styleai serve --port 9090
  styleai mcp`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default "+chat.DefaultModelName+")")
	rootCmd.PersistentFlags().StringVar(&keyFlag, "api-key", "", "Gemini API key for this run, overrides settings")
	rootCmd.PersistentFlags().StringVarP(&languageFlag, "language", "l", "", "Response language, e.g. en or vi (default from settings)")

	rootCmd.AddCommand(describeCmd, suggestCmd, summarizeCmd, speakCmd, wardrobeCmd, keyCmd, serveCmd, mcpCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			log.Error().Err(err).Msg("Command failed")
		}
		os.Exit(1)
	}
}

// env is the configuration every subcommand starts from.
type env struct {
	cfg          config.Config
	settings     settings.Settings
	settingsPath string
}

// loadEnv initializes logging and loads configuration and settings. Exits
// fatally on misconfiguration.
func loadEnv() env {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if modelFlag != "" {
		cfg.GeminiModel = modelFlag
	}

	path := cfg.SettingsPath
	if path == "" {
		if path, err = settings.DefaultPath(); err != nil {
			log.Fatal().Err(err).Msg("Failed to locate settings file")
		}
	}
	st, err := settings.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load settings")
	}
	return env{cfg: cfg, settings: st, settingsPath: path}
}

// language is the flag, then the saved preference.
func (e env) language() string {
	if languageFlag != "" {
		return languageFlag
	}
	return e.settings.Language
}

func (e env) chatClient(ctx context.Context, validate bool) *chat.Client {
	return cli.InitChatClient(ctx, e.cfg, e.settings, keyFlag, validate)
}

// openView opens the configured store and loads it into a view. The caller
// must run the returned close func once the view is no longer needed;
// commands return errors after this point instead of exiting.
func (e env) openView(ctx context.Context) (*store.View, func(), error) {
	ws, closeFn, err := lambdaboot.InitStore(ctx, e.cfg, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s wardrobe store: %w", e.cfg.StoreBackend, err)
	}
	if e.cfg.StoreBackend == config.BackendMemory {
		log.Warn().Msg("STORE_BACKEND=memory: the wardrobe is not persisted after exit")
	}
	view := store.NewView(ws)
	if err := view.Load(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load wardrobe: %w", err)
	}
	return view, closeFn, nil
}

// reportedError is a command failure whose user-facing message was already
// logged.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }
