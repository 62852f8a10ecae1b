package chat

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/assets"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// ExtractOutfitItems asks the model which wardrobe items a free-text
// suggestion mentions and returns the matching records in the model's order.
// IDs the model invents are dropped.
func (c *Client) ExtractOutfitItems(ctx context.Context, in schema.ExtractionInput, opts ...CallOption) ([]wardrobe.Item, error) {
	if err := schema.ValidateExtractionInput(in); err != nil {
		return nil, err
	}

	prompt := assets.RenderExtractionPrompt(assets.ExtractionPrompt{
		SuggestionText: in.SuggestionText,
		Wardrobe:       in.Wardrobe,
	})

	text, err := c.generateJSON(ctx, schema.OpExtract, []*genai.Part{{Text: prompt}}, extractionSchema, opts)
	if err != nil {
		return nil, err
	}
	out, err := decode[schema.ExtractionOutput](schema.OpExtract, text)
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateExtractionOutput(out); err != nil {
		return nil, err
	}

	items := wardrobe.Reconcile(out.Items, in.Wardrobe)
	if dropped := len(out.Items) - len(items); dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("Discarded unmatched item IDs from model")
	}
	return items, nil
}
