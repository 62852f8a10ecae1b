package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/cli"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/stylist"
	"github.com/fpang/styleai/internal/wardrobe"
)

// --- describe ---

var (
	describeCategoriesFlag []string
	describeAddFlag        bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [photo]",
	Short: "Describe a garment photo and pick its category",
	Long: `Describe sends a clothing photo to Gemini and prints a short description
and one of the wardrobe categories. Without a path, a file dialog opens.

Examples:
  styleai describe jacket.png
  styleai describe boots.webp --category Footwear --category Accessory
  styleai describe shirt.jpg --add`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDescribe,
}

func init() {
	describeCmd.Flags().StringSliceVarP(&describeCategoriesFlag, "category", "c", nil, "Restrict the category choice (repeatable)")
	describeCmd.Flags().BoolVar(&describeAddFlag, "add", false, "Store the item in the wardrobe after describing it")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	e := loadEnv()
	ctx := cmd.Context()

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		picked, err := cli.PickPhoto()
		if errors.Is(err, cli.ErrCanceled) {
			fmt.Println("No photo selected")
			return nil
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to pick a photo")
		}
		path = picked
	}
	path = cli.ValidateAndResolveFile(path)

	photo, err := cli.ReadPhoto(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read photo")
	}

	var categories []wardrobe.Category
	for _, name := range describeCategoriesFlag {
		c, err := wardrobe.ParseCategory(name)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --category")
		}
		categories = append(categories, c)
	}

	client := e.chatClient(ctx, false)
	out, err := client.GenerateDescription(ctx, schema.DescriptionInput{
		PhotoDataURI: photo,
		Language:     e.language(),
		Categories:   categories,
	})
	if err != nil {
		return flowError(err, "Could not generate a description for the image")
	}

	fmt.Printf("\nCategory:    %s\nDescription: %s\n", out.Category, out.Description)

	if describeAddFlag {
		view, closeFn, err := e.openView(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		item, err := view.Add(ctx, schema.NewItem{PhotoDataURI: photo, Description: out.Description, Category: out.Category})
		if err != nil {
			return flowError(err, "Failed to add item to the wardrobe")
		}
		fmt.Printf("Added:       %s\n", item.ID)
	}
	return nil
}

// --- suggest ---

var (
	occasionFlag string
	weatherFlag  string
	styleFlag    string
	genderFlag   string
	audioFlag    string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest an outfit from your wardrobe",
	Long: `Suggest asks Gemini for an outfit built only from your stored wardrobe
and lists the matching items. Missing occasion or weather is prompted for.
With --audio, the suggestion is also rendered as a WAV file.

Examples:
  styleai suggest --occasion "Beach party" --weather "Hot and sunny"
  styleai suggest -o "Job interview" -w "Rainy" --style minimal --gender female
  styleai suggest --language vi --audio suggestion.wav`,
	Args: cobra.NoArgs,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVarP(&occasionFlag, "occasion", "o", "", "The occasion to dress for")
	suggestCmd.Flags().StringVarP(&weatherFlag, "weather", "w", "", "The expected weather")
	suggestCmd.Flags().StringVar(&styleFlag, "style", "", "Optional style preference")
	suggestCmd.Flags().StringVar(&genderFlag, "gender", "", "Optional gender: male or female")
	suggestCmd.Flags().StringVar(&audioFlag, "audio", "", "Write the spoken suggestion to this WAV file")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	e := loadEnv()
	ctx := cmd.Context()

	prompter := cli.NewPrompter(os.Stdin, os.Stdout)
	occasion := occasionFlag
	if occasion == "" {
		occasion = prompter.Ask("Occasion", "")
	}
	weather := weatherFlag
	if weather == "" {
		weather = prompter.Ask("Weather", "")
	}

	client := e.chatClient(ctx, false)
	view, closeFn, err := e.openView(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	req := stylist.Request{
		Occasion: occasion,
		Weather:  weather,
		Style:    styleFlag,
		Gender:   wardrobe.Gender(strings.ToLower(genderFlag)),
		Language: e.language(),
		Mute:     audioFlag == "",
	}
	out, err := stylist.New(client, view).Consult(ctx, req)
	if err != nil {
		return flowError(err, "I couldn't come up with a suggestion")
	}

	fmt.Printf("\n%s\n\n%s\n\nWhy: %s\n\n", out.Request, out.Suggestion, out.Reasoning)
	cli.FormatWardrobe(os.Stdout, out.Items)

	if audioFlag != "" {
		return writeAudio(out.Audio, audioFlag)
	}
	return nil
}

// --- summarize ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize your wardrobe and style",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		ctx := cmd.Context()

		client := e.chatClient(ctx, false)
		view, closeFn, err := e.openView(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		items := view.Items()
		if len(items) == 0 {
			fmt.Println("Your wardrobe is empty")
			return nil
		}

		out, err := client.SummarizeWardrobe(ctx, schema.SummaryInput{WardrobeDescription: wardrobe.Describe(items)})
		if err != nil {
			return flowError(err, "Could not summarize the wardrobe")
		}
		fmt.Printf("\n%s\n", out.WardrobeSummary)
		return nil
	},
}

// --- speak ---

var speakOutFlag string

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Render text as speech to a WAV file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := loadEnv()
		ctx := cmd.Context()

		client := e.chatClient(ctx, false)
		res := client.GenerateSpeech(ctx, strings.Join(args, " "))
		return writeAudio(res.Audio, speakOutFlag)
	},
}

func init() {
	speakCmd.Flags().StringVarP(&speakOutFlag, "out", "o", "speech.wav", "Output WAV file")
}

// writeAudio saves a WAV data URI. Missing audio is reported, not an error.
func writeAudio(audioURI, path string) error {
	if audioURI == "" {
		log.Warn().Msg("No audio was produced")
		return nil
	}
	d, err := wardrobe.ParseDataURI(audioURI)
	if err != nil {
		log.Error().Err(err).Msg("Unreadable audio payload")
		return nil
	}
	if err := os.WriteFile(path, d.Data, 0o644); err != nil {
		return fmt.Errorf("write audio to %s: %w", path, err)
	}
	fmt.Printf("Audio written to %s (%d bytes)\n", path, len(d.Data))
	return nil
}

// flowError logs the user-facing message for a failed flow or store call
// and returns err marked as reported.
func flowError(err error, msg string) error {
	if errors.Is(err, chat.ErrNoAPIKey) {
		log.Error().Msg(userMessage(err, msg))
	} else {
		log.Error().Err(err).Msg(userMessage(err, msg))
	}
	return reportedError{err: err}
}

// userMessage picks what to tell the user about err, falling back to msg.
func userMessage(err error, msg string) string {
	if errors.Is(err, chat.ErrNoAPIKey) {
		hint, _ := cli.ValidationHint(&auth.ValidationError{Type: auth.ErrTypeNoKey, Message: "no API key", Err: err})
		return hint
	}
	if errors.Is(err, stylist.ErrEmptyWardrobe) {
		return "Your wardrobe is empty. Add items with `styleai describe <photo> --add` first"
	}
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		return msg
	}
	if ve := auth.ClassifyError(err); ve.Type != auth.ErrTypeUnknown {
		if hint, ok := cli.ValidationHint(ve); ok {
			return hint
		}
	}
	return msg
}
