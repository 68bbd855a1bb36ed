package analysis

import "unicode/utf8"

// PreviewMarker is appended to truncated previews
const PreviewMarker = "..."

// DefaultPreviewChars is the card preview length
const DefaultPreviewChars = 300

// Preview returns text unchanged when it fits in maxChars runes, otherwise
// its first maxChars runes followed by PreviewMarker.
func Preview(text string, maxChars int) string {
	if maxChars < 0 {
		maxChars = 0
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i] + PreviewMarker
		}
		n++
	}
	return text
}
