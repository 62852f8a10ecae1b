package assets

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultLanguage is used when a request names no response language.
const DefaultLanguage = "English"

// LanguageName turns a response language given as a BCP 47 tag ("vi",
// "en-US") into its English display name ("Vietnamese", "English").
// Anything that is not a known tag, such as a name already spelled out,
// is returned trimmed and unchanged.
func LanguageName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	base, conf := tag.Base()
	if conf == language.No {
		return s
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return s
}
