// Package archive resolves deterministic artifact paths and owns the
// side-effecting sinks that write original documents, derived text, and the
// dataset file. Path resolution is pure; two records with the same identity
// always land on the same paths, which is what makes re-runs idempotent.
package archive

import (
	"strings"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

// Paths holds the relative storage locations for one record's artifacts.
// Original is nil when the source exposes no downloadable document; Text is
// always set because a text artifact is expected regardless (some portals
// embed the document text inline instead of serving a PDF).
type Paths struct {
	Original *string
	Text     string
}

// ResolvePaths maps a record identity onto its storage paths:
//
//	<uf>/<municipio>/<slug>/<docKey>.pdf  (when hasDocument)
//	<uf>/<municipio>/<slug>/<docKey>.md
//
// Jurisdiction segments a source does not have are dropped rather than
// left as empty path elements: state assemblies store under <uf>/<slug>,
// federal sources under <slug> alone.
func ResolvePaths(state, municipality, sourceSlug, docKey string, hasDocument bool) Paths {
	segments := make([]string, 0, 4)
	for _, s := range []string{normalize.Slugify(state), normalize.Slugify(municipality)} {
		if s != "" {
			segments = append(segments, s)
		}
	}
	base := strings.Join(append(segments, sourceSlug, docKey), "/")

	paths := Paths{Text: base + ".md"}
	if hasDocument {
		original := base + ".pdf"
		paths.Original = &original
	}
	return paths
}
