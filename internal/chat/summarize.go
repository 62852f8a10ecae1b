package chat

import (
	"context"

	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/assets"
	"github.com/fpang/styleai/internal/schema"
)

// SummarizeWardrobe condenses a free-text wardrobe description.
func (c *Client) SummarizeWardrobe(ctx context.Context, in schema.SummaryInput, opts ...CallOption) (schema.SummaryOutput, error) {
	if err := schema.ValidateSummaryInput(in); err != nil {
		return schema.SummaryOutput{}, err
	}

	prompt := assets.RenderSummaryPrompt(assets.SummaryPrompt{WardrobeDescription: in.WardrobeDescription})
	text, err := c.generateJSON(ctx, schema.OpSummarize, []*genai.Part{{Text: prompt}}, summarySchema, opts)
	if err != nil {
		return schema.SummaryOutput{}, err
	}
	out, err := decode[schema.SummaryOutput](schema.OpSummarize, text)
	if err != nil {
		return schema.SummaryOutput{}, err
	}
	if err := schema.ValidateSummaryOutput(out); err != nil {
		return schema.SummaryOutput{}, err
	}
	return out, nil
}
