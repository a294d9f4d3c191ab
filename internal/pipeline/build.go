package pipeline

import (
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/archive"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

// DefaultStatusCap mirrors the portals that only surface the most recent
// procedural events; it is a visible knob rather than a hidden constant.
const DefaultStatusCap = 3

// Builder assembles canonical records from validated raw records. Pure: no
// I/O, no shared state, safe for any number of concurrent pipelines.
type Builder struct {
	// StatusCap keeps only the most recent N status-tramitation events.
	// Zero or negative keeps the full history.
	StatusCap int
}

// NewBuilder returns a Builder with the default status history cap.
func NewBuilder() *Builder {
	return &Builder{StatusCap: DefaultStatusCap}
}

// Build maps a validated raw record onto the canonical schema. Storage paths
// precomputed by a multi-stage collector win over derived ones; otherwise
// they come from the deterministic resolver, so building the same raw record
// twice yields byte-identical output (scrape timestamp aside).
func (b *Builder) Build(raw *model.RawRecord) model.CanonicalRecord {
	hasDocument := len(raw.FileURLs) > 0 || (raw.OriginURL != "" && !raw.DocumentAbsent)

	docKey := normalize.DocumentKey(raw.Type, raw.Number, raw.Year)
	paths := archive.ResolvePaths(raw.Source.State, raw.Source.Municipality, raw.Source.Slug, docKey, hasDocument)

	originalPath := paths.Original
	if raw.OriginalPath != "" && hasDocument {
		p := raw.OriginalPath
		originalPath = &p
	}
	textPath := paths.Text
	if raw.TextPath != "" {
		textPath = raw.TextPath
	}

	status := raw.Status
	if b.StatusCap > 0 && len(status) > b.StatusCap {
		status = status[len(status)-b.StatusCap:]
	}
	events := make([]model.StatusEvent, 0, len(status))
	for _, s := range status {
		events = append(events, model.StatusEvent{
			Description: s.Description,
			Date:        normalize.NormalizeDate(s.Date),
		})
	}

	subjects := raw.Subjects
	if subjects == nil {
		subjects = []string{}
	}

	return model.CanonicalRecord{
		Locality: model.Locality{
			Tier:         raw.Source.Tier,
			Municipality: raw.Source.Municipality,
			State:        raw.Source.State,
		},
		Body:         raw.Source.Body,
		Type:         raw.Type,
		Number:       raw.Number,
		Date:         normalize.NormalizeDate(raw.Date),
		Authors:      normalize.SplitAuthors(raw.Authors),
		Summary:      raw.Summary,
		Subjects:     subjects,
		Status:       events,
		OriginURL:    raw.OriginURL,
		OriginalPath: originalPath,
		TextPath:     textPath,
		ScrapedAt:    raw.ScrapedAt,
	}
}
