package normalize

import (
	"regexp"
	"strings"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

var (
	partyParens = regexp.MustCompile(`\((.*?)\)`)
	honorific   = regexp.MustCompile(`(?i)^\s*(?:Ver\.|Vereadora?\b)\s*`)
)

// SplitAuthor extracts the name and party from a raw author string. Portals
// commonly render authors as "Ver. João Silva (PT)": the parenthesized token
// becomes the party (trimmed, upper-cased), the leading honorific is
// stripped, and the remainder is the name. Without parentheses the whole
// trimmed string is the name and the party is nil.
func SplitAuthor(raw string) model.Author {
	m := partyParens.FindStringSubmatch(raw)
	if m == nil {
		return model.Author{Name: strings.TrimSpace(raw)}
	}

	party := strings.ToUpper(strings.TrimSpace(m[1]))
	name := strings.Replace(raw, m[0], "", 1)
	name = honorific.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	return model.Author{Name: name, Party: &party}
}

// SplitAuthors maps SplitAuthor over a raw author list, skipping blanks.
func SplitAuthors(raw []string) []model.Author {
	authors := make([]model.Author, 0, len(raw))
	for _, a := range raw {
		if strings.TrimSpace(a) == "" {
			continue
		}
		authors = append(authors, SplitAuthor(a))
	}
	return authors
}
