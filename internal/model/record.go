package model

// Tier identifies the level of government a legislative body belongs to.
type Tier string

const (
	TierMunicipal Tier = "MUNICIPAL"
	TierState     Tier = "ESTADUAL"
	TierFederal   Tier = "FEDERAL"
)

// Source identifies one legislature portal and the jurisdiction it covers.
// Every collector carries exactly one Source; the pipeline never branches on
// source identity except through these fields.
type Source struct {
	Slug         string `json:"slug" yaml:"slug"`
	Body         string `json:"casa_legislativa" yaml:"casa_legislativa"`
	Tier         Tier   `json:"esfera" yaml:"esfera"`
	State        string `json:"uf" yaml:"uf"`
	Municipality string `json:"municipio" yaml:"municipio"`
}

// RawStatusEvent is one procedural-history step as scraped, date unparsed.
type RawStatusEvent struct {
	Description string
	Date        string
}

// RawRecord is the unvalidated per-source intermediate record. Collectors
// fill whatever the portal exposes; almost everything is optional except the
// mandatory identity subset checked by MissingFields. RawRecords exist only
// in memory and are discarded once a CanonicalRecord is built or the record
// is dropped for incompleteness.
type RawRecord struct {
	Source Source

	Title   string
	Type    string
	Number  string
	Year    string
	Summary string

	Authors  []string
	Date     string
	Status   []RawStatusEvent
	Subjects []string

	// OriginURL points at the source's original document (or detail page
	// when the portal has no downloadable file). FileURLs are the documents
	// the fetch stage should download.
	OriginURL string
	FileURLs  []string

	// DocumentAbsent is set by collectors whose detail crawl established
	// that no downloadable document exists even though a detail-page URL
	// stands in as OriginURL. The builder then records a null original
	// path instead of a .pdf path nothing will ever fill.
	DocumentAbsent bool

	// InlineText holds document text already exposed by the portal itself
	// (markdown), for sources that embed the full text on the detail page.
	InlineText string

	// OriginalPath / TextPath are precomputed canonical paths for sources
	// whose multi-stage detail crawl resolves them early. When empty, the
	// builder derives them from the record identity.
	OriginalPath string
	TextPath     string

	ScrapedAt string

	// ID is the MD5 hex digest of the source detail-page URL, used as a
	// correlation key between asynchronous crawl stages.
	ID string
}

// Mandatory raw fields checked before a record may enter the builder.
var mandatoryFields = []struct {
	name  string
	value func(*RawRecord) string
}{
	{"casa_legislativa", func(r *RawRecord) string { return r.Source.Body }},
	{"tipo", func(r *RawRecord) string { return r.Type }},
	{"numero", func(r *RawRecord) string { return r.Number }},
	{"ano", func(r *RawRecord) string { return r.Year }},
	{"url", func(r *RawRecord) string { return r.OriginURL }},
}

// MissingFields returns the names of mandatory identity fields that are
// empty. An empty result means the record may proceed to normalization.
func (r *RawRecord) MissingFields() []string {
	var missing []string
	for _, f := range mandatoryFields {
		if f.value(r) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsComplete reports whether all mandatory fields are present.
func (r *RawRecord) IsComplete() bool {
	return len(r.MissingFields()) == 0
}

// NaturalKey returns the human-readable identity used in drop diagnostics.
func (r *RawRecord) NaturalKey() string {
	return r.Type + " " + r.Number + "/" + r.Year
}

// Locality is the jurisdiction block of a canonical record.
type Locality struct {
	Tier         Tier   `json:"esfera"`
	Municipality string `json:"municipio"`
	State        string `json:"estado"`
}

// Author is a normalized author with an optional party affiliation.
type Author struct {
	Name  string  `json:"nome"`
	Party *string `json:"partido"`
}

// StatusEvent is one normalized procedural-history step. Date is ISO-8601
// when parseable, the original string otherwise, nil when absent.
type StatusEvent struct {
	Description string  `json:"descricao"`
	Date        *string `json:"data"`
}

// CanonicalRecord is the normalized, sink-ready record. Field names match
// the archived dataset schema; one record becomes one JSON line. Storage
// paths are pure functions of the record identity, so rebuilding the same
// raw record always yields byte-identical paths.
type CanonicalRecord struct {
	Locality     Locality      `json:"localidade"`
	Body         string        `json:"casa_legislativa"`
	Type         string        `json:"tipo_documento"`
	Number       string        `json:"numero_documento"`
	Date         *string       `json:"data_documento"`
	Authors      []Author      `json:"autores"`
	Summary      string        `json:"ementa"`
	Subjects     []string      `json:"assuntos"`
	Status       []StatusEvent `json:"status_tramitacao"`
	OriginURL    string        `json:"url_documento_original"`
	OriginalPath *string       `json:"caminho_arquivo_original"`
	TextPath     string        `json:"caminho_arquivo_texto"`
	ScrapedAt    string        `json:"data_raspagem"`
}
