// Package normalize holds the pure field-normalization functions applied to
// raw scraped values before a canonical record is assembled. Everything here
// is stateless and safe to call from any number of concurrent pipelines.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugSeparators = regexp.MustCompile(`[\s\W_]+`)

// stripDiacritics removes combining marks after NFD decomposition, turning
// "São" into "Sao".
var stripDiacritics = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Slugify converts free text into a lowercase, hyphen-separated,
// filesystem-safe token: "São Paulo" becomes "sao-paulo". Runs of
// whitespace, punctuation, and underscores collapse into a single hyphen.
// Empty input yields an empty string.
func Slugify(text string) string {
	if text == "" {
		return ""
	}
	ascii, _, err := transform.String(stripDiacritics, text)
	if err != nil {
		ascii = text
	}
	slug := strings.ToLower(ascii)
	slug = slugSeparators.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// DocumentKeyFallback names artifacts for records whose number or year never
// surfaced during the crawl.
const DocumentKeyFallback = "arquivo-sem-nome"

// DocumentKey builds the artifact base name for a proposition:
// "projeto-de-lei-123-2024". When the number or year is missing the fixed
// fallback name is returned so the resolved path is still deterministic.
func DocumentKey(docType, number, year string) string {
	if number == "" || year == "" {
		return DocumentKeyFallback
	}
	// The number occasionally carries separators of its own ("123/A"), so
	// the joined name is slugified as a whole.
	return Slugify(Slugify(docType) + "-" + number + "-" + year)
}
