package analysis

import (
	"regexp"
	"strings"
)

// Section is one titled block of an analysis. The leading block before any
// header has an empty Title.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Span is a run of body text, optionally rendered strong
type Span struct {
	Text   string `json:"text"`
	Strong bool   `json:"strong,omitempty"`
}

var (
	headerRe = regexp.MustCompile(`^#{1,2}\s+(.*)$`)
	strongRe = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// Sectionize splits text at "# " and "## " header lines, keeping source order
func Sectionize(text string) []Section {
	var (
		sections []Section
		title    string
		titled   bool
		body     []string
	)

	flush := func() {
		b := strings.TrimSpace(strings.Join(body, "\n"))
		if titled || b != "" {
			sections = append(sections, Section{Title: title, Body: b})
		}
		body = body[:0]
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
			titled = true
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// Spans tokenizes **strong** runs. Unpaired delimiters stay literal and a
// strong run never crosses a line break.
func Spans(body string) []Span {
	var spans []Span
	last := 0
	for _, loc := range strongRe.FindAllStringSubmatchIndex(body, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: body[last:loc[0]]})
		}
		if inner := body[loc[2]:loc[3]]; inner != "" {
			spans = append(spans, Span{Text: inner, Strong: true})
		}
		last = loc[1]
	}
	if last < len(body) {
		spans = append(spans, Span{Text: body[last:]})
	}
	return spans
}
