package content

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	apperrors "techlam/internal/errors"
)

var (
	plainText = bluemonday.StrictPolicy()

	// embedPolicy keeps a pasted <iframe> and only its src attribute.
	embedPolicy = func() *bluemonday.Policy {
		p := bluemonday.NewPolicy()
		p.AllowElements("iframe")
		p.AllowAttrs("src").OnElements("iframe")
		p.AllowURLSchemes("https")
		p.RequireParseableURLs(true)
		return p
	}()

	iframeSrc = regexp.MustCompile(`src="([^"]+)"`)

	errBadEmbed = apperrors.NewValidationError("google_maps_embed", "must be a Google Maps embed URL")
)

// PlainText strips every HTML tag from s and returns the unescaped text.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// MapsEmbedURL accepts a Google Maps embed URL or a pasted embed <iframe> snippet and returns
// the bare embed URL.
func MapsEmbedURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "<") {
		m := iframeSrc.FindStringSubmatch(embedPolicy.Sanitize(raw))
		if m == nil {
			return "", errBadEmbed
		}
		raw = html.UnescapeString(m[1])
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return "", errBadEmbed
	}
	host := strings.ToLower(u.Hostname())
	if host != "www.google.com" && host != "google.com" && host != "maps.google.com" {
		return "", errBadEmbed
	}
	if !strings.HasPrefix(u.Path, "/maps") {
		return "", errBadEmbed
	}
	return u.String(), nil
}
