package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/auth"
)

// ValidateAndResolveFile returns the absolute path of an existing regular
// file. Exits fatally otherwise.
func ValidateAndResolveFile(path string) string {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Fatal().Str("path", path).Msg("File not found")
	case err != nil:
		log.Fatal().Err(err).Str("path", path).Msg("Failed to access file")
	case info.IsDir():
		log.Fatal().Str("path", path).Msg("Path is a directory, expected a photo")
	}

	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

var keyHints = map[auth.ValidationErrorType]string{
	auth.ErrTypeNoKey:         "No API key configured. Run `styleai key set` or set GEMINI_API_KEY",
	auth.ErrTypeInvalidKey:    "Invalid API key. Run `styleai key set` with a new key",
	auth.ErrTypeNetworkError:  "Could not reach Gemini. Check your internet connection",
	auth.ErrTypeQuotaExceeded: "Gemini quota exceeded. Try again later or check your usage limits",
}

// ValidationHint returns the user-facing hint for a key or transport
// failure. ok is false when err is not a *auth.ValidationError.
func ValidationHint(err error) (hint string, ok bool) {
	var ve *auth.ValidationError
	if !errors.As(err, &ve) {
		return "", false
	}
	if hint, ok := keyHints[ve.Type]; ok {
		return hint, true
	}
	return "Gemini request failed", true
}

// HandleValidationError exits with a hint matching the key or transport
// failure in err.
func HandleValidationError(err error) {
	hint, ok := ValidationHint(err)
	if !ok {
		log.Fatal().Err(err).Msg("Unexpected error while checking the API key")
	}
	var ve *auth.ValidationError
	if errors.As(err, &ve) && ve.Type == auth.ErrTypeNoKey {
		log.Fatal().Msg(hint)
	}
	log.Fatal().Err(err).Msg(hint)
	os.Exit(1)
}

