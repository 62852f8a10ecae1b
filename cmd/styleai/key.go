package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/cli"
	"github.com/fpang/styleai/internal/settings"
)

var keyNoValidateFlag bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the saved Gemini API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Validate and save a Gemini API key to the settings file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := loadEnv()
		ctx := cmd.Context()

		key := ""
		if len(args) == 1 {
			key = args[0]
		} else {
			key = cli.NewPrompter(os.Stdin, os.Stdout).Ask("Gemini API key", "")
		}

		if key != "" && !keyNoValidateFlag {
			gen, err := chat.GeminiGenerators(ctx, key)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create Gemini client")
			}
			model := e.cfg.GeminiModel
			if model == "" {
				model = chat.DefaultModelName
			}
			if err := auth.ValidateAPIKey(ctx, gen, model); err != nil {
				cli.HandleValidationError(err)
			}
		}

		// A blank key removes the saved one.
		e.settings.SetAPIKey(key)
		if err := settings.Save(e.settingsPath, e.settings); err != nil {
			log.Fatal().Err(err).Msg("Failed to save settings")
		}
		if e.settings.HasAPIKey() {
			fmt.Printf("API key saved to %s\n", e.settingsPath)
		} else {
			fmt.Printf("API key removed from %s\n", e.settingsPath)
		}
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved Gemini API key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		e := loadEnv()
		e.settings.SetAPIKey("")
		if err := settings.Save(e.settingsPath, e.settings); err != nil {
			log.Fatal().Err(err).Msg("Failed to save settings")
		}
		fmt.Printf("API key removed from %s\n", e.settingsPath)
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the API key would be read from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		e := loadEnv()
		switch {
		case keyFlag != "":
			fmt.Println("API key: --api-key flag")
		case e.settings.HasAPIKey():
			fmt.Printf("API key: settings file %s\n", e.settingsPath)
		case e.cfg.GeminiAPIKey != "":
			fmt.Printf("API key: %s (environment or .env)\n", auth.EnvVar)
		default:
			fmt.Println("API key: not configured. Run `styleai key set`")
		}
		if e.settings.Language != "" {
			fmt.Printf("Language: %s\n", e.settings.Language)
		}
	},
}

var keyLanguageCmd = &cobra.Command{
	Use:   "language <code>",
	Short: "Save the default response language, e.g. en or vi",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := loadEnv()
		e.settings.Language = args[0]
		if err := settings.Save(e.settingsPath, e.settings); err != nil {
			log.Fatal().Err(err).Msg("Failed to save settings")
		}
		fmt.Printf("Language set to %s\n", args[0])
	},
}

func init() {
	keySetCmd.Flags().BoolVar(&keyNoValidateFlag, "no-validate", false, "Save without a test call to Gemini")
	keyCmd.AddCommand(keySetCmd, keyClearCmd, keyStatusCmd, keyLanguageCmd)
}
