package chat

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/assets"
	"github.com/fpang/styleai/internal/schema"
)

// SuggestOutfit proposes an outfit built only from in.Wardrobe for the given
// occasion and weather. Style and gender are optional refinements.
//
// When every wardrobe entry carries an ID, the model is also asked for the IDs
// it used; the IDs are not reconciled here.
func (c *Client) SuggestOutfit(ctx context.Context, in schema.SuggestionInput, opts ...CallOption) (schema.SuggestionOutput, error) {
	if err := schema.ValidateSuggestionInput(in); err != nil {
		return schema.SuggestionOutput{}, err
	}

	withIDs := true
	for _, e := range in.Wardrobe {
		if e.ID == "" {
			withIDs = false
			break
		}
	}

	prompt := assets.RenderSuggestionPrompt(assets.SuggestionPrompt{
		Language: assets.LanguageName(in.Language),
		Gender:   in.Gender,
		Occasion: in.Occasion,
		Weather:  in.Weather,
		Style:    in.Style,
		Wardrobe: in.Wardrobe,
		WithIDs:  withIDs,
	})

	log.Info().
		Int("wardrobe_size", len(in.Wardrobe)).
		Str("occasion", in.Occasion).
		Bool("with_ids", withIDs).
		Msg("Suggesting outfit")

	text, err := c.generateJSON(ctx, schema.OpSuggest, []*genai.Part{{Text: prompt}}, suggestionSchema(withIDs), opts)
	if err != nil {
		return schema.SuggestionOutput{}, err
	}
	out, err := decode[schema.SuggestionOutput](schema.OpSuggest, text)
	if err != nil {
		return schema.SuggestionOutput{}, err
	}
	if err := schema.ValidateSuggestionOutput(out); err != nil {
		return schema.SuggestionOutput{}, err
	}
	return out, nil
}
