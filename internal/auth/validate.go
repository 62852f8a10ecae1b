package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/metrics"
)

// ValidationError represents a specific type of API key failure.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Err     error
}

// ValidationErrorType categorizes key failures.
type ValidationErrorType int

const (
	// ErrTypeNoKey indicates no API key was found.
	ErrTypeNoKey ValidationErrorType = iota
	// ErrTypeInvalidKey indicates the API key is invalid or revoked.
	ErrTypeInvalidKey
	// ErrTypeNetworkError indicates a network connectivity issue.
	ErrTypeNetworkError
	// ErrTypeQuotaExceeded indicates the API quota has been exceeded.
	ErrTypeQuotaExceeded
	// ErrTypeUnknown indicates an unknown error occurred.
	ErrTypeUnknown
)

func (t ValidationErrorType) String() string {
	switch t {
	case ErrTypeNoKey:
		return "no_key"
	case ErrTypeInvalidKey:
		return "invalid"
	case ErrTypeNetworkError:
		return "network_error"
	case ErrTypeQuotaExceeded:
		return "quota"
	default:
		return "unknown"
	}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Generator is the Gemini call used for validation. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ValidateAPIKey verifies the key behind gen with a one-word prompt to model.
// It returns nil if the key works, or a *ValidationError describing the
// failure. Each attempt is recorded as an EMF metric tagged with its result.
func ValidateAPIKey(ctx context.Context, gen Generator, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, model, genai.Text("hi"), nil)

	var valErr *ValidationError
	if err != nil {
		valErr = ClassifyError(err)
	} else if resp == nil || len(resp.Candidates) == 0 {
		log.Warn().Msg("API key validation returned empty response")
		valErr = &ValidationError{Type: ErrTypeUnknown, Message: "API returned empty response"}
	}

	result := "success"
	if valErr != nil {
		result = valErr.Type.String()
	}
	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Since("ApiKeyValidationMs", start).
		Count("ApiKeyValidationResult").
		Flush()

	if valErr != nil {
		return valErr
	}
	log.Info().Dur("duration", time.Since(start)).Msg("API key validated successfully")
	return nil
}

// ClassifyError maps a Gemini call failure to a *ValidationError. The HTTP
// and CLI boundaries use it to explain transport failures to the user.
func ClassifyError(err error) *ValidationError {
	if err == nil {
		return nil
	}

	var already *ValidationError
	if errors.As(err, &already) {
		return already
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		ve := classifyStatus(apiErr)
		log.Error().Int("code", apiErr.Code).Str("type", ve.Type.String()).Msg("Gemini API error")
		return ve
	}

	msg := strings.ToLower(err.Error())
	for _, r := range messageRules {
		for _, needle := range r.needles {
			if strings.Contains(msg, needle) {
				log.Error().Err(err).Str("type", r.typ.String()).Msg("Gemini call failed")
				return &ValidationError{Type: r.typ, Message: r.message, Err: err}
			}
		}
	}
	log.Error().Err(err).Msg("Unknown error calling Gemini")
	return &ValidationError{Type: ErrTypeUnknown, Message: "Gemini request failed", Err: err}
}

// messageRules classify errors that carry no HTTP status, in order.
var messageRules = []struct {
	typ     ValidationErrorType
	message string
	needles []string
}{
	{ErrTypeInvalidKey, "API key is invalid or has been revoked",
		[]string{"api key not valid", "invalid api key", "api_key_invalid", "permission denied"}},
	{ErrTypeQuotaExceeded, "API quota exceeded or rate limited",
		[]string{"quota", "resource exhausted", "rate limit"}},
	{ErrTypeNetworkError, "Network error - check your internet connection",
		[]string{"connection", "network", "timeout", "dial", "no such host", "unreachable"}},
}

func classifyStatus(err *genai.APIError) *ValidationError {
	ve := &ValidationError{Err: err}
	switch {
	case err.Code == 400:
		ve.Type, ve.Message = ErrTypeInvalidKey, "Bad request - API key may be malformed"
	case err.Code == 401 || err.Code == 403:
		ve.Type, ve.Message = ErrTypeInvalidKey, "API key is invalid, expired, or lacks permissions"
	case err.Code == 429:
		ve.Type, ve.Message = ErrTypeQuotaExceeded, "API rate limit exceeded - try again later"
	case err.Code >= 500 && err.Code <= 504:
		ve.Type, ve.Message = ErrTypeNetworkError, "Gemini API server error - try again later"
	default:
		ve.Type, ve.Message = ErrTypeUnknown, err.Message
	}
	return ve
}
