package schema

import "github.com/fpang/styleai/internal/wardrobe"

// DescriptionInput is the input of generate-description.
type DescriptionInput struct {
	PhotoDataURI string `json:"photoDataUri" validate:"required,imagedatauri"`
	Language     string `json:"language"`
	// Categories restricts the model's choice. Empty means every category.
	Categories []wardrobe.Category `json:"categories,omitempty" validate:"omitempty,unique,dive,category"`
}

// DescriptionOutput is the structured answer of generate-description.
type DescriptionOutput struct {
	Description string            `json:"description" validate:"required"`
	Category    wardrobe.Category `json:"category" validate:"required,category"`
}

// SuggestionInput is the input of suggest-outfit.
type SuggestionInput struct {
	Wardrobe []wardrobe.SnapshotEntry `json:"wardrobe" validate:"required,min=1,dive"`
	Occasion string                   `json:"occasion" validate:"required,min=3"`
	Weather  string                   `json:"weather" validate:"required,min=3"`
	Style    string                   `json:"style" validate:"omitempty,min=3"`
	Gender   wardrobe.Gender          `json:"gender,omitempty" validate:"omitempty,gender"`
	Language string                   `json:"language"`
}

// SuggestionOutput is the structured answer of suggest-outfit.
type SuggestionOutput struct {
	Suggestion       string   `json:"suggestion" validate:"required"`
	Reasoning        string   `json:"reasoning" validate:"required"`
	SuggestedItemIDs []string `json:"suggestedItemIds,omitempty"`
}

// ExtractionInput is the input of extract-outfit-items.
type ExtractionInput struct {
	SuggestionText string          `json:"suggestionText" validate:"required"`
	Wardrobe       []wardrobe.Item `json:"wardrobe" validate:"dive"`
}

// ExtractionOutput is the raw model answer of extract-outfit-items, before
// reconciliation against the wardrobe.
type ExtractionOutput struct {
	Items []wardrobe.Match `json:"items" validate:"required"`
}

// SummaryInput is the input of summarize-wardrobe.
type SummaryInput struct {
	WardrobeDescription string `json:"wardrobeDescription" validate:"required"`
}

// SummaryOutput is the structured answer of summarize-wardrobe.
type SummaryOutput struct {
	WardrobeSummary string `json:"wardrobeSummary" validate:"required"`
}

// SpeechResult carries the optional WAV data URI of generate-speech.
type SpeechResult struct {
	Audio string `json:"audio,omitempty"`
}

// NewItem is the set of fields required to store an item. It is also the
// full replacement applied by an update.
type NewItem struct {
	PhotoDataURI string            `json:"photoDataUri" validate:"required,imagedatauri"`
	Description  string            `json:"description" validate:"required"`
	Category     wardrobe.Category `json:"category" validate:"required,category"`
}
