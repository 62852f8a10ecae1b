// Package api exposes the styling flows and the wardrobe over HTTP JSON.
//
// Endpoints:
//
//	GET    /api/health          health check
//	POST   /api/describe        describe a garment photo
//	POST   /api/suggest         suggest an outfit
//	POST   /api/extract         resolve a suggestion to wardrobe items
//	POST   /api/summarize       summarize the wardrobe
//	POST   /api/speech          render text as WAV audio
//	POST   /api/consult         suggestion, items, and audio in one call
//	GET    /api/wardrobe        list items
//	POST   /api/wardrobe        add an item, describing it when fields are missing
//	PUT    /api/wardrobe/{id}   replace an item
//	DELETE /api/wardrobe/{id}   delete an item
//
// A request may carry its own Gemini key in the X-Gemini-Api-Key header; it
// takes precedence over the key the server was started with.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"

	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/store"
	"github.com/fpang/styleai/internal/stylist"
)

// APIKeyHeader carries a per-request Gemini key.
const APIKeyHeader = "X-Gemini-Api-Key"

// maxBodyBytes caps request bodies. A 4 MiB photo grows by a third when
// base64 encoded.
const maxBodyBytes = 6 << 20

// Flows is the set of AI flows served over HTTP. *chat.Client satisfies it.
type Flows interface {
	stylist.Flows
	GenerateDescription(ctx context.Context, in schema.DescriptionInput, opts ...chat.CallOption) (schema.DescriptionOutput, error)
	SummarizeWardrobe(ctx context.Context, in schema.SummaryInput, opts ...chat.CallOption) (schema.SummaryOutput, error)
}

// Server serves the HTTP API.
type Server struct {
	flows    Flows
	view     *store.View
	stylist  *stylist.Stylist
	language string
	origins  []string

	reloadOnRead bool
}

// Option configures a Server.
type Option func(*Server)

// WithLanguage sets the response language used when a request names none.
func WithLanguage(lang string) Option {
	return func(s *Server) {
		s.language = lang
	}
}

// WithAllowedOrigins adds CORS origins beyond localhost.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = append(s.origins, origins...)
	}
}

// WithReloadOnRead re-reads the wardrobe from the store before every request
// that reads it. Use it when the view is not kept current by a Watcher and
// other instances may write to the same store.
func WithReloadOnRead() Option {
	return func(s *Server) {
		s.reloadOnRead = true
	}
}

// New creates a Server over the given flows and wardrobe view.
func New(flows Flows, view *store.View, opts ...Option) *Server {
	s := &Server{
		flows:   flows,
		view:    view,
		stylist: stylist.New(flows, view),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes wrapped in recovery, logging, metrics, CORS,
// and gzip middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/describe", s.handleDescribe)
	mux.HandleFunc("POST /api/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/summarize", s.handleSummarize)
	mux.HandleFunc("POST /api/speech", s.handleSpeech)
	mux.HandleFunc("POST /api/consult", s.handleConsult)
	mux.HandleFunc("GET /api/wardrobe", s.handleListWardrobe)
	mux.HandleFunc("POST /api/wardrobe", s.handleAddItem)
	mux.HandleFunc("PUT /api/wardrobe/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/wardrobe/{id}", s.handleDeleteItem)

	return gzhttp.GzipHandler(withRecover(withLogging(withMetrics(s.withCORS(mux)))))
}

// refresh reloads the view when the server was built WithReloadOnRead.
func (s *Server) refresh(r *http.Request) error {
	if !s.reloadOnRead {
		return nil
	}
	return s.view.Load(r.Context())
}

// callOptions forwards the request's override key to the flows.
func callOptions(r *http.Request) []chat.CallOption {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return []chat.CallOption{chat.WithAPIKey(key)}
	}
	return nil
}

func (s *Server) languageOr(lang string) string {
	if strings.TrimSpace(lang) != "" {
		return lang
	}
	return s.language
}
