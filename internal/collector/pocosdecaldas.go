package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

const (
	pocosSearchURL = "https://pocosdecaldas.siscam.com.br/Documentos/Pesquisa"
	pocosDomain    = "pocosdecaldas.siscam.com.br"
)

// pocosTitle splits titles like "Projeto de Lei Nº 12/2024".
var pocosTitle = regexp.MustCompile(`(?i)^(.*?)\s+Nº\s+(\d+)/(\d{4})`)

// pocosDocumentTypes are the siscam document-type codes collected for
// Poços de Caldas. The portal offers more types than these.
var pocosDocumentTypes = map[int]string{
	135: "Projeto de Lei",
	136: "Projeto de Lei Complementar",
	137: "Projeto de Decreto Legislativo",
	139: "Projeto de Emenda à Lei Orgânica",
}

// PocosDeCaldas crawls the siscam document search of the Poços de
// Caldas city council, one paginated listing per document type. An
// empty page ends that type's pagination.
type PocosDeCaldas struct {
	opts CrawlOptions
}

// NewPocosDeCaldas builds the Poços de Caldas collector.
func NewPocosDeCaldas(opts CrawlOptions) *PocosDeCaldas {
	return &PocosDeCaldas{opts: opts.normalized()}
}

// Source implements Collector.
func (p *PocosDeCaldas) Source() model.Source {
	return model.Source{
		Slug:         "proposicoespocosdecaldas",
		Body:         "Câmara Municipal de Poços de Caldas",
		Tier:         model.TierMunicipal,
		State:        "MG",
		Municipality: "Poços de Caldas",
	}
}

func pocosPageURL(typeCode, page int) string {
	return fmt.Sprintf("%s?id=80&pagina=%d&Modulo=8&Documento=%d", pocosSearchURL, page, typeCode)
}

// Collect implements Collector.
func (p *PocosDeCaldas) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	c := newSiteCollector(pocosDomain, p.opts)
	run := &crawlRun{ctx: ctx, cur: cur}
	source := p.Source()

	c.OnRequest(func(req *colly.Request) {
		if run.shouldAbort() {
			req.Abort()
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		cards := e.DOM.Find("div.data-list-item")
		if cards.Length() == 0 {
			return
		}

		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			entry, ok := parsePocosCard(card)
			if !ok {
				return true
			}
			if cur.CheckDate(normalize.ISODate(entry.date)) != DateWithin {
				return true
			}
			if !cur.Take() {
				return false
			}
			if err := emit(entry.record(source, e.Request)); err != nil {
				run.fail(err)
				return false
			}
			return true
		})

		if cur.Exhausted() {
			return
		}
		typeCode, okType := e.Request.Ctx.GetAny("typeCode").(int)
		page, okPage := e.Request.Ctx.GetAny("page").(int)
		if okType && okPage {
			p.schedulePage(c, run, typeCode, page+1)
		}
	})

	c.OnError(func(resp *colly.Response, err error) {
		zap.L().Warn("request failed",
			zap.String("source", source.Slug),
			zap.String("url", resp.Request.URL.String()),
			zap.Error(err))
	})

	for typeCode := range pocosDocumentTypes {
		p.schedulePage(c, run, typeCode, 1)
	}
	c.Wait()
	return run.err()
}

func (p *PocosDeCaldas) schedulePage(c *colly.Collector, run *crawlRun, typeCode, page int) {
	reqCtx := colly.NewContext()
	reqCtx.Put("typeCode", typeCode)
	reqCtx.Put("page", page)
	url := pocosPageURL(typeCode, page)
	if err := c.Request("GET", url, nil, reqCtx, nil); err != nil {
		run.fail(eris.Wrapf(err, "collector: schedule page %s", url))
	}
}

// pocosCard is one parsed listing card.
type pocosCard struct {
	title      string
	docType    string
	number     string
	year       string
	summary    string
	date       string
	authors    []string
	fileHref   string
	detailHref string
}

// parsePocosCard extracts one proposition card. Cards without an h4
// title link are not propositions.
func parsePocosCard(card *goquery.Selection) (pocosCard, bool) {
	var entry pocosCard

	title := card.Find("h4 a").First()
	if title.Length() == 0 {
		return entry, false
	}
	entry.title = strings.TrimSpace(title.Text())
	entry.detailHref, _ = title.Attr("href")

	if m := pocosTitle.FindStringSubmatch(entry.title); m != nil {
		entry.docType = strings.TrimSpace(m[1])
		entry.number = m[2]
		entry.year = m[3]
	}

	if authors := pocosLabeledText(card, "Autoria:"); authors != "" {
		for _, a := range strings.Split(authors, ",") {
			if a = strings.TrimSpace(a); a != "" {
				entry.authors = append(entry.authors, a)
			}
		}
	}
	entry.summary = pocosLabeledText(card, "Assunto:")
	entry.date = pocosLabeledText(card, "Data:")

	if href, ok := card.Find(`a[title="Documento Assinado"]`).First().Attr("href"); ok {
		entry.fileHref = href
	} else if href, ok := card.Find(`a[href*="/arquivo?Id="]`).First().Attr("href"); ok {
		entry.fileHref = href
	}
	return entry, true
}

func (e pocosCard) record(source model.Source, req *colly.Request) *model.RawRecord {
	detailURL := req.AbsoluteURL(e.detailHref)
	sum := md5.Sum([]byte(detailURL))
	raw := &model.RawRecord{
		Source:    source,
		Title:     e.title,
		Type:      e.docType,
		Number:    e.number,
		Year:      e.year,
		Summary:   e.summary,
		Authors:   e.authors,
		Date:      e.date,
		ID:        hex.EncodeToString(sum[:]),
		ScrapedAt: time.Now().Format(time.RFC3339),
	}
	if e.fileHref != "" {
		fileURL := req.AbsoluteURL(e.fileHref)
		raw.OriginURL = fileURL
		raw.FileURLs = []string{fileURL}
	}
	return raw
}

// pocosLabeledText reads the value of a "<p><strong>Label:</strong>
// value</p>" field.
func pocosLabeledText(card *goquery.Selection, label string) string {
	var value string
	card.Find("p").EachWithBreak(func(_ int, par *goquery.Selection) bool {
		if !strings.Contains(par.Find("strong").Text(), label) {
			return true
		}
		text := multiSpace.ReplaceAllString(strings.TrimSpace(par.Text()), " ")
		value = strings.TrimSpace(strings.Replace(text, label, "", 1))
		return false
	})
	return value
}
