// Package jsonutil extracts and decodes JSON from model responses that may
// be wrapped in markdown code fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON object or array.
var ErrNoJSON = errors.New("no JSON content found")

// previewLimit caps how much of a bad payload is echoed into errors.
const previewLimit = 200

// StripMarkdownFences removes a ```json ... ``` (or bare ```) wrapper.
// Text without an opening fence is returned trimmed.
func StripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Drop the opening fence line, including any language hint.
	_, body, ok := strings.Cut(text, "\n")
	if !ok {
		return text
	}
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

// ExtractJSON returns the span from the first '{' or '[' to the last
// matching closer.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", ErrNoJSON
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return "", fmt.Errorf("no closing %s found", closer)
	}
	return text[start : end+1], nil
}

// ParseJSON strips fences, extracts the JSON value, and unmarshals it into T.
func ParseJSON[T any](raw string) (T, error) {
	var out T
	jsonStr, err := ExtractJSON(StripMarkdownFences(raw))
	if err != nil {
		return out, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		var zero T
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview(jsonStr))
	}
	return out, nil
}

func preview(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit] + "..."
}
