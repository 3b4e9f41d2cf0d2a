package ai

import (
	"errors"
	"strings"
)

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

// ExtractJSON pulls the JSON object out of free-form model output. A
// ```json fenced block wins; otherwise the text from the first '{' to
// the last '}' is used.
func ExtractJSON(text string) (string, error) {
	const fence = "```json"
	if start := strings.Index(text, fence); start >= 0 {
		rest := text[start+len(fence):]
		if end := strings.Index(rest, "```"); end >= 0 {
			if body := strings.TrimSpace(rest[:end]); body != "" {
				return body, nil
			}
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return "", ErrNoJSON
	}
	return text[first : last+1], nil
}
