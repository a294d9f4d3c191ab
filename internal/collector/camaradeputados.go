package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

// CamaraDeputados serves federal propositions out of a single local
// dump that already joins metadata, ementa and full text. The dump
// carries no presentation dates, so the legislative year stands in for
// them and the window check is by year.
type CamaraDeputados struct {
	catalog *Catalog
}

// NewCamaraDeputados builds the federal chamber collector.
func NewCamaraDeputados(catalog *Catalog) *CamaraDeputados {
	return &CamaraDeputados{catalog: catalog}
}

// Source implements Collector.
func (c *CamaraDeputados) Source() model.Source {
	return model.Source{
		Slug: "proposicoescn",
		Body: "Câmara dos Deputados",
		Tier: model.TierFederal,
	}
}

// cnEntry is one record of the national chamber dump.
type cnEntry struct {
	Titulo  string `json:"Titulo"`
	Autoria string `json:"Autoria"`
	Ementa  string `json:"ementa"`
	Texto   string `json:"Texto"`
}

// Collect implements Collector.
func (c *CamaraDeputados) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	var entries []cnEntry
	if err := loadCleanJSON(c.catalog.NationalFile(), &entries); err != nil {
		return err
	}

	source := c.Source()
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cur.Exhausted() {
			return nil
		}

		raw := c.buildRecord(source, entry)
		if cur.CheckYear(raw.Year) != DateWithin {
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

func (c *CamaraDeputados) buildRecord(source model.Source, entry cnEntry) *model.RawRecord {
	title := strings.TrimSpace(entry.Titulo)
	docType, number, year := splitTitle(title)

	var authors []string
	for _, a := range strings.Split(entry.Autoria, ",") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	var date string
	if year != "" {
		date = year + "-01-01"
	}

	key := fmt.Sprintf("%s_%s_%s_%s", source.Body, docType, number, year)
	sum := md5.Sum([]byte(key))
	return &model.RawRecord{
		Source:     source,
		Title:      title,
		Type:       docType,
		Number:     number,
		Year:       year,
		Summary:    entry.Ementa,
		Authors:    authors,
		Date:       date,
		OriginURL:  cnSearchURL(docType, number, year),
		InlineText: entry.Texto,
		ID:         hex.EncodeToString(sum[:]),
		ScrapedAt:  time.Now().Format(time.RFC3339),
	}
}

// cnSearchURL points a dump-sourced proposition at the chamber's public
// search, the closest thing it has to a stable page.
func cnSearchURL(docType, number, year string) string {
	if docType == "" || number == "" || year == "" {
		return ""
	}
	filters := fmt.Sprintf(`[{"numero": "%s"}, {"ano": "%s"}]`, number, year)
	q := url.Values{}
	q.Set("contextoBusca", "BuscaProposicoes")
	q.Set("filtros", filters)
	q.Set("tipos", docType)
	q.Set("pagina", "1")
	return "https://www.camara.leg.br/busca-portal?" + q.Encode()
}
