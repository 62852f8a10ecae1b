package chat

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/assets"
	"github.com/fpang/styleai/internal/schema"
	"github.com/fpang/styleai/internal/wardrobe"
)

// GenerateDescription describes the garment in a photo and picks its category
// from in.Categories (all categories when empty).
//
// The photo is validated before any network call: it must be a base64 data
// URI of a JPEG, PNG, or WebP image no larger than wardrobe.MaxPhotoBytes.
func (c *Client) GenerateDescription(ctx context.Context, in schema.DescriptionInput, opts ...CallOption) (schema.DescriptionOutput, error) {
	if err := schema.ValidateDescriptionInput(in); err != nil {
		return schema.DescriptionOutput{}, err
	}
	// Validation guarantees the URI parses.
	photo, _ := wardrobe.ParseDataURI(in.PhotoDataURI)

	allowed := in.Categories
	if len(allowed) == 0 {
		allowed = wardrobe.Categories
	}

	prompt := assets.RenderDescriptionPrompt(assets.DescriptionPrompt{
		Language:   assets.LanguageName(in.Language),
		Categories: allowed,
	})
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: photo.MIMEType, Data: photo.Data}},
		{Text: prompt},
	}

	log.Info().
		Str("mime", photo.MIMEType).
		Int("bytes", len(photo.Data)).
		Int("categories", len(allowed)).
		Msg("Generating item description")

	text, err := c.generateJSON(ctx, schema.OpDescribe, parts, descriptionSchema(allowed), opts)
	if err != nil {
		return schema.DescriptionOutput{}, err
	}
	out, err := decode[schema.DescriptionOutput](schema.OpDescribe, text)
	if err != nil {
		return schema.DescriptionOutput{}, err
	}
	if err := schema.ValidateDescriptionOutput(out, allowed); err != nil {
		return schema.DescriptionOutput{}, err
	}
	return out, nil
}
