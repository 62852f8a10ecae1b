// Package chat runs the wardrobe AI flows against the Gemini API.
//
// Every structured flow follows the same path: validate input, render the
// prompt, make exactly one GenerateContent call with a response schema,
// parse the JSON answer, and validate it. Nothing is retried here.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/assets"
	"github.com/fpang/styleai/internal/jsonutil"
	"github.com/fpang/styleai/internal/metrics"
	"github.com/fpang/styleai/internal/schema"
)

// ErrNoAPIKey is returned when neither the call nor the client carries a key.
var ErrNoAPIKey = errors.New("no Gemini API key configured")

// Generator is the part of the Gemini API the flows use.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeneratorFactory builds a Generator authenticated with apiKey.
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// NewGeminiClient creates a genai client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// GeminiGenerators is the production GeneratorFactory.
func GeminiGenerators(ctx context.Context, apiKey string) (Generator, error) {
	client, err := NewGeminiClient(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client.Models, nil
}

// Client runs the flows. It is safe for concurrent use.
type Client struct {
	defaultKey  string
	model       string
	speechModel string
	factory     GeneratorFactory
	generators  *ristretto.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the structured-flow model.
func WithModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.model = name
		}
	}
}

// WithSpeechModel overrides the text-to-speech model.
func WithSpeechModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.speechModel = name
		}
	}
}

// WithGeneratorFactory replaces how Generators are built, e.g. with a fake
// in tests.
func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(c *Client) { c.factory = f }
}

// NewClient creates a Client whose calls use defaultKey unless a call
// overrides it. defaultKey may be empty if every call supplies a key.
func NewClient(defaultKey string, opts ...Option) (*Client, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     64,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generator cache: %w", err)
	}

	c := &Client{
		defaultKey:  strings.TrimSpace(defaultKey),
		model:       GetModelName(),
		speechModel: ModelGemini25FlashTTS,
		factory:     GeminiGenerators,
		generators:  cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the structured-flow model name.
func (c *Client) Model() string {
	return c.model
}

// CallOption adjusts a single flow invocation.
type CallOption func(*callConfig)

type callConfig struct {
	apiKey string
}

// WithAPIKey authenticates one call with a caller-supplied key instead of
// the client default. A blank key is ignored.
func WithAPIKey(key string) CallOption {
	return func(cc *callConfig) { cc.apiKey = strings.TrimSpace(key) }
}

// generator returns the Generator for the call's effective key. Generators
// are cached per key; creating one does not touch the network.
func (c *Client) generator(ctx context.Context, opts []CallOption) (Generator, error) {
	var cc callConfig
	for _, opt := range opts {
		opt(&cc)
	}
	key := cc.apiKey
	if key == "" {
		key = c.defaultKey
	}
	if key == "" {
		return nil, ErrNoAPIKey
	}

	if g, ok := c.generators.Get(key); ok {
		return g.(Generator), nil
	}
	g, err := c.factory(ctx, key)
	if err != nil {
		return nil, err
	}
	c.generators.Set(key, g, 1)
	return g, nil
}

// generateJSON makes one structured call and returns the raw response text.
func (c *Client) generateJSON(ctx context.Context, op string, parts []*genai.Part, responseSchema *genai.Schema, opts []CallOption) (string, error) {
	gen, err := c.generator(ctx, opts)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.SystemInstructionPrompt}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(thinkingBudget),
		},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	log.Debug().Str("flow", op).Str("model", c.model).Int("parts", len(parts)).Msg("Calling Gemini")

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, c.model, contents, config)
	recordCall(op, c.model, start, resp, err)

	if err != nil {
		log.Error().Err(err).Str("flow", op).Dur("duration", time.Since(start)).Msg("Gemini call failed")
		return "", err
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("flow", op).Msg("Received empty response from Gemini")
		return "", schema.EmptyResponse(op)
	}

	log.Debug().
		Str("flow", op).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Received response from Gemini")
	return text, nil
}

// decode parses a structured response into T, tagging failures as invalid
// model output.
func decode[T any](op, text string) (T, error) {
	out, err := jsonutil.ParseJSON[T](text)
	if err != nil {
		log.Warn().Err(err).Str("flow", op).Msg("Gemini returned unparseable JSON")
		return out, schema.InvalidOutput(op, err)
	}
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	return resp.Text()
}

// recordCall emits one EMF record per model call.
func recordCall(op, model string, start time.Time, resp *genai.GenerateContentResponse, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m := metrics.New(metrics.Namespace).
		Dimension("Flow", op).
		Dimension("Result", result).
		Since("FlowLatencyMs", start).
		Count("FlowCalls").
		Property("model", model)
	if resp != nil && resp.UsageMetadata != nil {
		m.Metric("GeminiInputTokens", float64(resp.UsageMetadata.PromptTokenCount), metrics.UnitCount)
		m.Metric("GeminiOutputTokens", float64(resp.UsageMetadata.CandidatesTokenCount), metrics.UnitCount)
	}
	m.Flush()
}
