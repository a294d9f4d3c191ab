package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateStatus tells callers whether a raw date string was actually parsed.
// Downstream consumers should not have to guess whether a value in a date
// field is ISO-8601 or source-language prose.
type DateStatus int

const (
	DateParsed DateStatus = iota
	DateUnparsed
)

// Layouts attempted in order. Brazilian portals overwhelmingly use
// day-first; the US layout is last so it only catches values nothing else
// matched.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02",
	"01/02/2006",
}

var longFormDate = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})`)

var monthNames = map[string]string{
	"janeiro":   "01",
	"fevereiro": "02",
	"março":     "03",
	"abril":     "04",
	"maio":      "05",
	"junho":     "06",
	"julho":     "07",
	"agosto":    "08",
	"setembro":  "09",
	"outubro":   "10",
	"novembro":  "11",
	"dezembro":  "12",
}

// ParseDate normalizes a raw portal date to ISO-8601 (YYYY-MM-DD). It tries
// the fixed layouts first, then the Portuguese long form
// "27 de outubro de 2025". When nothing matches, the original string comes
// back unchanged with DateUnparsed; parsing never fails hard because a
// best-effort date must not drop an otherwise complete record.
func ParseDate(raw string) (string, DateStatus) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw, DateUnparsed
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), DateParsed
		}
	}

	if m := longFormDate.FindStringSubmatch(trimmed); m != nil {
		if month, ok := monthNames[strings.ToLower(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			return fmt.Sprintf("%s-%s-%02d", m[3], month, day), DateParsed
		}
	}

	return raw, DateUnparsed
}

// ISODate returns the ISO-8601 form of a raw date, or "" when the value
// could not be parsed. Collectors use it for date-window checks, where an
// unparseable date must read as unknown rather than as prose.
func ISODate(raw string) string {
	normalized, status := ParseDate(raw)
	if status != DateParsed {
		return ""
	}
	return normalized
}

// NormalizeDate is the lossy-passthrough surface used by the record builder:
// empty input maps to nil, parsed input to its ISO form, and unparseable
// input passes through as-is.
func NormalizeDate(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	normalized, _ := ParseDate(raw)
	return &normalized
}
