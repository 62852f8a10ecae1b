// Package assets provides the embedded prompt templates used by the AI flows.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time. Rendering is pure: no I/O and no shared state.
package assets

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"text/template"

	"github.com/fpang/styleai/internal/wardrobe"
)

// --- Static prompts ---

// SystemInstructionPrompt is sent as the system instruction of every
// structured flow.
//
//go:embed prompts/system-instruction.txt
var SystemInstructionPrompt string

// --- Dynamic prompt templates ---

//go:embed prompts/describe-item.txt
var describeItemTemplate string

//go:embed prompts/suggest-outfit.txt
var suggestOutfitTemplate string

//go:embed prompts/extract-outfit.txt
var extractOutfitTemplate string

//go:embed prompts/summarize-wardrobe.txt
var summarizeWardrobeTemplate string

var funcs = template.FuncMap{
	"json": func(v any) string {
		b, _ := json.Marshal(v)
		return string(b)
	},
}

// template.Must panics on malformed templates at program start.
var (
	describeTmpl  = template.Must(template.New("describe").Funcs(funcs).Parse(describeItemTemplate))
	suggestTmpl   = template.Must(template.New("suggest").Funcs(funcs).Parse(suggestOutfitTemplate))
	extractTmpl   = template.Must(template.New("extract").Funcs(funcs).Parse(extractOutfitTemplate))
	summarizeTmpl = template.Must(template.New("summarize").Funcs(funcs).Parse(summarizeWardrobeTemplate))
)

// DescriptionPrompt is the data of the photo description prompt.
type DescriptionPrompt struct {
	Language   string
	Categories []wardrobe.Category
}

// SuggestionPrompt is the data of the outfit suggestion prompt. Wardrobe
// lines are emitted in slice order.
type SuggestionPrompt struct {
	Language string
	Gender   wardrobe.Gender
	Occasion string
	Weather  string
	Style    string
	Wardrobe []wardrobe.SnapshotEntry
	// WithIDs adds item IDs to each wardrobe line and asks the model to
	// return the IDs it used.
	WithIDs bool
}

// ExtractionPrompt is the data of the outfit extraction prompt.
type ExtractionPrompt struct {
	SuggestionText string
	Wardrobe       []wardrobe.Item
}

// SummaryPrompt is the data of the wardrobe summary prompt.
type SummaryPrompt struct {
	WardrobeDescription string
}

// RenderDescriptionPrompt renders the photo description instruction. The
// photo itself travels as a separate inline part.
func RenderDescriptionPrompt(p DescriptionPrompt) string {
	return renderTemplate(describeTmpl, p)
}

// RenderSuggestionPrompt renders the outfit suggestion instruction.
func RenderSuggestionPrompt(p SuggestionPrompt) string {
	return renderTemplate(suggestTmpl, p)
}

// RenderExtractionPrompt renders the outfit extraction instruction.
func RenderExtractionPrompt(p ExtractionPrompt) string {
	return renderTemplate(extractTmpl, p)
}

// RenderSummaryPrompt renders the wardrobe summary instruction.
func RenderSummaryPrompt(p SummaryPrompt) string {
	return renderTemplate(summarizeTmpl, p)
}

func renderTemplate(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Execution only fails on template bugs, which the tests cover.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
