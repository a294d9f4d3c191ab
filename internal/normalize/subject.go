package normalize

import (
	"strings"
	"unicode"
)

const (
	// MaxSubjectWords caps each subject to keep labels short enough for
	// faceting.
	MaxSubjectWords = 7
	// MaxSubjects caps how many labels one record keeps.
	MaxSubjects = 8
	// MinSubjects is the confidence floor: fewer valid labels than this and
	// the whole classification is treated as a failure.
	MinSubjects = 3
)

// NormalizeSubjects cleans a classifier's subject list: each entry is
// case-normalized (first letter of the first word upper, everything else
// lower), truncated to MaxSubjectWords words, and the list is capped at
// MaxSubjects. A result with fewer than MinSubjects valid entries collapses
// to nothing rather than keeping a low-confidence partial list.
func NormalizeSubjects(raw []string) []string {
	subjects := make([]string, 0, len(raw))
	for _, s := range raw {
		s = normalizeSubject(s)
		if s == "" {
			continue
		}
		subjects = append(subjects, s)
		if len(subjects) == MaxSubjects {
			break
		}
	}
	if len(subjects) < MinSubjects {
		return nil
	}
	return subjects
}

func normalizeSubject(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	if len(words) > MaxSubjectWords {
		words = words[:MaxSubjectWords]
	}
	subject := strings.ToLower(strings.Join(words, " "))

	runes := []rune(subject)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
