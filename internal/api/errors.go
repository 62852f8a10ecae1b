package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/auth"
	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/store"
	"github.com/fpang/styleai/internal/stylist"
)

// Error kinds reported to clients.
const (
	kindInvalidInput  = "invalid_input"
	kindInvalidOutput = "invalid_output"
	kindEmptyResponse = "empty_response"
	kindTransport     = "transport"
	kindNoKey         = "no_key"
	kindNotFound      = "not_found"
	kindInternal      = "internal"
)

const titleGeneric = "Oh no!"

// errorBody is the notification a client shows for a failed call.
type errorBody struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// --- JSON Helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, body errorBody) {
	respondJSON(w, status, map[string]errorBody{"error": body})
}

// fail classifies err, writes the matching error response, and reports
// server-side failures to Sentry. Internal details are logged, never sent.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetRequest(r)
			scope.SetTag("kind", body.Kind)
			sentry.CaptureException(err)
		})
	} else {
		log.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request rejected")
	}
	respondError(w, status, body)
}

func classify(err error) (int, errorBody) {
	var (
		maxBytes  *http.MaxBytesError
		schemaErr *schema.Error
		opErr     *store.OpError
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, errorBody{
			Kind:    kindInvalidInput,
			Title:   "File too large",
			Message: "Please upload an image smaller than 4MB.",
		}
	case errors.Is(err, stylist.ErrEmptyWardrobe):
		return http.StatusBadRequest, errorBody{
			Kind:    kindInvalidInput,
			Title:   "Empty Wardrobe",
			Message: "Please add some items to your wardrobe before asking for suggestions.",
		}
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, errorBody{
			Kind:    kindNotFound,
			Title:   titleGeneric,
			Message: "That item is no longer in your wardrobe.",
		}
	case errors.Is(err, chat.ErrNoAPIKey):
		return http.StatusBadRequest, errorBody{
			Kind:    kindNoKey,
			Title:   titleGeneric,
			Message: "No Gemini API key is configured. Save one in settings or send " + APIKeyHeader + ".",
		}
	case errors.As(err, &schemaErr):
		return classifySchemaError(schemaErr)
	case errors.As(err, &opErr):
		return http.StatusInternalServerError, errorBody{
			Kind:    kindInternal,
			Title:   titleGeneric,
			Message: "operation failed",
		}
	default:
		ve := auth.ClassifyError(err)
		return http.StatusBadGateway, errorBody{
			Kind:    kindTransport,
			Title:   titleGeneric,
			Message: ve.Message,
		}
	}
}

func classifySchemaError(e *schema.Error) (int, errorBody) {
	if e.Kind == schema.KindInvalidInput {
		return http.StatusBadRequest, errorBody{
			Kind:    kindInvalidInput,
			Title:   titleGeneric,
			Message: e.Error(),
		}
	}

	kind := kindInvalidOutput
	if e.Kind == schema.KindEmptyResponse {
		kind = kindEmptyResponse
	}
	var msg string
	switch e.Op {
	case schema.OpDescribe:
		msg = "Could not generate a description for the image. Please write one manually."
	case schema.OpSuggest:
		msg = "I couldn't come up with a suggestion. Please try again."
	default:
		msg = "The stylist returned an answer that could not be used. Please try again."
	}
	return http.StatusBadGateway, errorBody{Kind: kind, Title: titleGeneric, Message: msg}
}

// badRequest tags a malformed request body as invalid input.
func badRequest(op string, err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return &schema.Error{Kind: schema.KindInvalidInput, Op: op, Message: "malformed request body", Err: err}
}
