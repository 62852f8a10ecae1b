package chat

import (
	"google.golang.org/genai"

	"github.com/fpang/styleai/internal/wardrobe"
)

// Response schemas mirror the output records in internal/schema.

func descriptionSchema(allowed []wardrobe.Category) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString, Description: "Short description of the clothing item."},
			"category":    {Type: genai.TypeString, Enum: wardrobe.CategoryNames(allowed)},
		},
		Required:         []string{"description", "category"},
		PropertyOrdering: []string{"description", "category"},
	}
}

func suggestionSchema(withIDs bool) *genai.Schema {
	s := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"suggestion": {Type: genai.TypeString},
			"reasoning":  {Type: genai.TypeString},
		},
		Required:         []string{"suggestion", "reasoning"},
		PropertyOrdering: []string{"suggestion", "reasoning"},
	}
	if withIDs {
		s.Properties["suggestedItemIds"] = &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		}
		s.PropertyOrdering = append(s.PropertyOrdering, "suggestedItemIds")
	}
	return s
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":          {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
				},
				Required: []string{"id", "description"},
			},
		},
	},
	Required: []string{"items"},
}

var summarySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"wardrobeSummary": {Type: genai.TypeString},
	},
	Required: []string{"wardrobeSummary"},
}
