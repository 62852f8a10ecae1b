// Package wardrobe defines the clothing item model shared by the AI flows,
// the HTTP API, and the store backends.
package wardrobe

import (
	"fmt"
	"strings"
)

// Category is the fixed set of wardrobe categories the model may choose from.
type Category string

const (
	CategoryTop       Category = "Top"
	CategoryBottom    Category = "Bottom"
	CategoryOuterwear Category = "Outerwear"
	CategoryFootwear  Category = "Footwear"
	CategoryAccessory Category = "Accessory"
	CategoryDress     Category = "Dress"
)

// Categories lists every category in canonical order. Prompts and response
// schemas enumerate categories in this order.
var Categories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryOuterwear,
	CategoryFootwear,
	CategoryAccessory,
	CategoryDress,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the category set, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// CategoryNames returns the categories as plain strings, in order.
func CategoryNames(cs []Category) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = string(c)
	}
	return names
}

// Gender is the gender tag attached to an outfit request.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is male or female.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Item is a single clothing record. ID is assigned by the store on add and
// is empty for items that have not been persisted yet.
type Item struct {
	ID           string   `json:"id" dynamodbav:"id" firestore:"-" validate:"required"`
	OwnerID      string   `json:"ownerId,omitempty" dynamodbav:"ownerId,omitempty" firestore:"ownerId,omitempty"`
	PhotoDataURI string   `json:"photoDataUri" dynamodbav:"photoDataUri,omitempty" firestore:"photoDataUri" validate:"omitempty,imagedatauri"`
	Description  string   `json:"description" dynamodbav:"description" firestore:"description" validate:"required"`
	Category     Category `json:"category" dynamodbav:"category" firestore:"category" validate:"required,category"`
}

// SnapshotEntry is the photo-less view of an item sent to the model when
// asking for outfit suggestions.
type SnapshotEntry struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description" validate:"required"`
	Category    Category `json:"category" validate:"required,category"`
}

// Snapshot projects items to snapshot entries, preserving order.
func Snapshot(items []Item) []SnapshotEntry {
	out := make([]SnapshotEntry, len(items))
	for i, it := range items {
		out[i] = SnapshotEntry{ID: it.ID, Description: it.Description, Category: it.Category}
	}
	return out
}

// Describe renders items as one "- Category: description" line each, the
// free-text wardrobe description summarize-wardrobe takes.
func Describe(items []Item) string {
	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s: %s\n", it.Category, strings.TrimSpace(it.Description))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
