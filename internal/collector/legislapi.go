package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

// LegislAPI serves propositions for one state assembly out of a local
// dataset dump: a metadata file keyed by title and a full-text file. The
// two are correlated by the MD5 of the proposition title, which is the
// only field both dumps share.
type LegislAPI struct {
	catalog *Catalog
	house   House
}

// NewLegislAPI builds a collector for one catalog house.
func NewLegislAPI(catalog *Catalog, house House) *LegislAPI {
	return &LegislAPI{catalog: catalog, house: house}
}

// Source implements Collector.
func (l *LegislAPI) Source() model.Source {
	return model.Source{
		Slug:  l.house.Slug,
		Body:  l.house.Body,
		Tier:  model.TierState,
		State: l.house.State,
	}
}

// legisMetadata is one entry of the proposition metadata dump.
type legisMetadata struct {
	Titulo           string `json:"Titulo"`
	Autoria          string `json:"Autoria"`
	Ementa           string `json:"Ementa"`
	DataApresentacao string `json:"DataApresentacao"`
	Numero           string `json:"Numero"`
	Ano              string `json:"Ano"`
}

// legisText is one entry of the full-text dump.
type legisText struct {
	Titulo             string `json:"Titulo"`
	Texto              string `json:"Texto"`
	IDProposicaoOrigem string `json:"IdProposicaoOrigem"`
}

// Collect implements Collector. The full-text dump drives the walk;
// metadata is joined in where a matching title exists.
func (l *LegislAPI) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	metadata, err := l.loadMetadata()
	if err != nil {
		return err
	}

	var texts []legisText
	if err := loadCleanJSON(l.catalog.TextFile(l.house), &texts); err != nil {
		return err
	}

	source := l.Source()
	for _, entry := range texts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cur.Exhausted() {
			return nil
		}

		raw := l.buildRecord(source, entry, metadata)
		if verdict := cur.CheckDate(normalize.ISODate(raw.Date)); verdict != DateWithin {
			continue
		}
		if !cur.Take() {
			return nil
		}
		if err := emit(raw); err != nil {
			return err
		}
	}
	return nil
}

func (l *LegislAPI) loadMetadata() (map[string]legisMetadata, error) {
	var entries []legisMetadata
	if err := loadCleanJSON(l.catalog.MetadataFile(l.house), &entries); err != nil {
		zap.L().Warn("metadata dump unavailable, continuing with full text only",
			zap.String("source", l.house.Slug),
			zap.Error(err))
		return map[string]legisMetadata{}, nil
	}
	metadata := make(map[string]legisMetadata, len(entries))
	for _, e := range entries {
		metadata[titleKey(e.Titulo)] = e
	}
	return metadata, nil
}

func (l *LegislAPI) buildRecord(source model.Source, entry legisText, metadata map[string]legisMetadata) *model.RawRecord {
	title := strings.TrimSpace(entry.Titulo)
	docType, number, year := splitTitle(title)
	meta := metadata[titleKey(title)]

	var authors []string
	if meta.Autoria != "" {
		for _, a := range strings.Split(meta.Autoria, ",") {
			if a = strings.TrimSpace(a); a != "" {
				authors = append(authors, a)
			}
		}
	}

	return &model.RawRecord{
		Source:     source,
		Title:      title,
		Type:       docType,
		Number:     number,
		Year:       year,
		Summary:    meta.Ementa,
		Authors:    authors,
		Date:       meta.DataApresentacao,
		OriginURL:  l.buildURL(docType, number, year, entry.IDProposicaoOrigem, meta),
		InlineText: entry.Texto,
		ID:         titleKey(title),
		ScrapedAt:  time.Now().Format(time.RFC3339),
	}
}

// buildURL expands the house's URL template. A template that references
// a field the record lacks yields no URL rather than a broken one.
func (l *LegislAPI) buildURL(docType, number, year, idOrigem string, meta legisMetadata) string {
	tmpl := l.house.URLTemplate
	if tmpl == "" {
		return ""
	}
	if meta.Numero != "" {
		number = meta.Numero
	}
	if meta.Ano != "" {
		year = meta.Ano
	}
	fields := map[string]string{
		"{TIPO}":      strings.ToUpper(docType),
		"{NUMERO}":    number,
		"{ANO}":       year,
		"{ID_ORIGEM}": idOrigem,
	}
	url := tmpl
	for placeholder, value := range fields {
		if !strings.Contains(url, placeholder) {
			continue
		}
		if value == "" {
			return ""
		}
		url = strings.ReplaceAll(url, placeholder, value)
	}
	return url
}

// splitTitle breaks titles like "PL 123/2024" into type, number and
// year. Titles without the number/year token keep only the type.
func splitTitle(title string) (docType, number, year string) {
	parts := strings.Fields(title)
	if len(parts) == 0 {
		return "", "", ""
	}
	docType = parts[0]
	if len(parts) < 2 {
		return docType, "", ""
	}
	numYear := parts[1]
	if idx := strings.Index(numYear, "/"); idx >= 0 {
		number = strings.TrimSpace(numYear[:idx])
		year = strings.TrimSpace(numYear[idx+1:])
	} else {
		number = numYear
	}
	return docType, number, year
}

// titleKey is the correlation key between the two dumps.
func titleKey(title string) string {
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:])
}

// loadCleanJSON reads a dump and decodes it after stripping the stray
// control characters some of the exports contain.
func loadCleanJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "collector: read dataset %s", path)
	}
	if err := json.Unmarshal(stripControlChars(data), v); err != nil {
		return eris.Wrapf(err, "collector: parse dataset %s", path)
	}
	return nil
}

func stripControlChars(data []byte) []byte {
	clean := make([]byte, 0, len(data))
	for _, b := range data {
		if b >= 32 || b == '\n' || b == '\r' {
			clean = append(clean, b)
		}
	}
	return clean
}
