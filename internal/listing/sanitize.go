package listing

import "strings"

// SanitizeLink enforces the link safety policy: a purchase link must be
// an absolute http(s) URL, otherwise the known-good fallback page is
// returned instead. The model is instructed to prefer the main shop
// page over guessed deep links; this is the last-resort enforcement of
// that rule regardless of whether the model complied.
func SanitizeLink(link, fallbackURL string) string {
	if link == "" {
		return fallbackURL
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return fallbackURL
	}
	return link
}
