// Package listing turns the model's free-text wine search replies into
// structured listings. The model is asked to emit "Name | Price | URL"
// lines, but the output is natural language and drifts; parsing is
// best-effort and never fails.
package listing

import (
	"regexp"
	"strings"

	"terroir/internal/model"
)

var (
	// First embedded absolute URL in a field; the model likes to wrap
	// links in markdown or append punctuation.
	urlPattern = regexp.MustCompile(`https?://[^\s)]+`)

	// Leading list markers on fallback lines: bullets, dashes, "1." etc.
	listMarkerPattern = regexp.MustCompile(`^[*\-•\d.]+\s*`)
)

// Parse extracts wine listings from raw model text. Lines matching the
// pipe-delimited "Name | Price | URL" shape become listings in input
// order. When no line matches at all but the text is non-empty, every
// non-trivial line is kept as a name-only listing pointing at
// fallbackURL, so a model that ignored the format instructions still
// yields something usable. A text with no usable lines produces an
// empty response, never an error.
func Parse(rawText, fallbackURL string) model.WineSearchResponse {
	wines := []model.WineListing{}

	lines := strings.Split(rawText, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}

		name := trimNameField(parts[0])
		price := strings.TrimSpace(parts[1])
		link := extractLink(parts[2])
		link = SanitizeLink(link, fallbackURL)

		if name == "" {
			continue
		}
		wines = append(wines, model.WineListing{Name: name, Price: price, Link: link})
	}

	// Fallback: the model answered in prose or plain bullets instead of
	// the requested table shape.
	if len(wines) == 0 && strings.TrimSpace(rawText) != "" {
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			clean := strings.TrimSpace(listMarkerPattern.ReplaceAllString(strings.TrimSpace(line), ""))
			// Very short remnants are headers or separators, not wines.
			if len(clean) <= 5 {
				continue
			}
			wines = append(wines, model.WineListing{Name: clean, Price: "", Link: fallbackURL})
		}
	}

	return model.WineSearchResponse{Wines: wines, Sources: []model.SourceCitation{}}
}

// trimNameField strips leading bullet/markdown characters and
// surrounding emphasis from a name column.
func trimNameField(s string) string {
	s = strings.TrimLeft(s, "*- \t")
	s = strings.TrimRight(s, "* \t")
	return strings.TrimSpace(s)
}

// extractLink pulls the first absolute URL out of a link column and
// strips trailing punctuation the model tends to append.
func extractLink(s string) string {
	link := strings.TrimSpace(s)
	if m := urlPattern.FindString(link); m != "" {
		link = m
	}
	return strings.TrimRight(link, ".,;)")
}
