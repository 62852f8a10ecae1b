// Package stylist runs a full outfit consultation over the stored wardrobe:
// one suggestion, then item extraction and speech in parallel.
package stylist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fpang/styleai/internal/chat"
	"github.com/fpang/styleai/internal/metrics"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// Flows is the set of AI flows a consultation uses. *chat.Client satisfies it.
type Flows interface {
	SuggestOutfit(ctx context.Context, in schema.SuggestionInput, opts ...chat.CallOption) (schema.SuggestionOutput, error)
	ExtractOutfitItems(ctx context.Context, in schema.ExtractionInput, opts ...chat.CallOption) ([]wardrobe.Item, error)
	GenerateSpeech(ctx context.Context, text string, opts ...chat.CallOption) schema.SpeechResult
}

// Wardrobe supplies the items to style from. *store.View satisfies it.
type Wardrobe interface {
	Items() []wardrobe.Item
}

// ErrEmptyWardrobe is wrapped by the invalid-input error returned when there
// is nothing to style from.
var ErrEmptyWardrobe = errors.New("wardrobe is empty")

// EmptyWardrobe builds the error returned for a consultation or suggestion
// over an empty wardrobe.
func EmptyWardrobe() error {
	return &schema.Error{
		Kind:    schema.KindInvalidInput,
		Op:      schema.OpSuggest,
		Message: "add items before asking for an outfit",
		Err:     ErrEmptyWardrobe,
	}
}

// Request is what the user asks for.
type Request struct {
	Occasion string          `json:"occasion"`
	Weather  string          `json:"weather"`
	Style    string          `json:"style,omitempty"`
	Gender   wardrobe.Gender `json:"gender,omitempty"`
	Language string          `json:"language,omitempty"`
	// Mute skips the audio rendition of the suggestion.
	Mute bool `json:"mute,omitempty"`
}

// Summary renders the request the way it is echoed back to the user,
// e.g. "Gender: female, Style: minimal, Occasion: brunch, Weather: sunny".
// Empty fields are left out.
func (r Request) Summary() string {
	var parts []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			parts = append(parts, label+": "+v)
		}
	}
	add("Gender", string(r.Gender))
	add("Style", r.Style)
	add("Occasion", r.Occasion)
	add("Weather", r.Weather)
	return strings.Join(parts, ", ")
}

// Consultation is the joined result of a consultation.
type Consultation struct {
	Request    string          `json:"request"`
	Suggestion string          `json:"suggestion"`
	Reasoning  string          `json:"reasoning"`
	Items      []wardrobe.Item `json:"items"`
	Audio      string          `json:"audio,omitempty"`
}

// Stylist runs consultations. It never modifies the wardrobe.
type Stylist struct {
	flows    Flows
	wardrobe Wardrobe
}

// New creates a Stylist.
func New(flows Flows, w Wardrobe) *Stylist {
	return &Stylist{flows: flows, wardrobe: w}
}

// Consult suggests an outfit from the current wardrobe, then concurrently
// resolves the suggested items and renders speech unless muted. Speech
// failures only drop the audio; suggestion and extraction failures fail the
// consultation.
func (s *Stylist) Consult(ctx context.Context, req Request, opts ...chat.CallOption) (Consultation, error) {
	start := time.Now()
	items := s.wardrobe.Items()
	if len(items) == 0 {
		return Consultation{}, EmptyWardrobe()
	}

	suggestion, err := s.flows.SuggestOutfit(ctx, schema.SuggestionInput{
		Wardrobe: wardrobe.Snapshot(items),
		Occasion: req.Occasion,
		Weather:  req.Weather,
		Style:    req.Style,
		Gender:   req.Gender,
		Language: req.Language,
	}, opts...)
	if err != nil {
		return Consultation{}, err
	}

	out := Consultation{
		Request:    req.Summary(),
		Suggestion: suggestion.Suggestion,
		Reasoning:  suggestion.Reasoning,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		matched, err := s.flows.ExtractOutfitItems(gctx, schema.ExtractionInput{
			SuggestionText: suggestion.Suggestion,
			Wardrobe:       items,
		}, opts...)
		if err != nil {
			return fmt.Errorf("extract outfit items: %w", err)
		}
		out.Items = matched
		return nil
	})
	if !req.Mute {
		g.Go(func() error {
			// Speech degrades to no audio and never fails the group.
			out.Audio = s.flows.GenerateSpeech(gctx, suggestion.Suggestion, opts...).Audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Consultation{}, err
	}

	log.Info().
		Int("wardrobe_size", len(items)).
		Int("matched_items", len(out.Items)).
		Bool("audio", out.Audio != "").
		Dur("duration", time.Since(start)).
		Msg("Consultation complete")
	metrics.New(metrics.Namespace).
		Dimension("Flow", "consult").
		Since("ConsultLatencyMs", start).
		Metric("ConsultMatchedItems", float64(len(out.Items)), metrics.UnitCount).
		Flush()
	return out, nil
}
