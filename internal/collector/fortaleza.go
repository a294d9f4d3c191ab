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
	"golang.org/x/net/html"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

const (
	fortalezaBaseURL = "https://sapl.fortaleza.ce.leg.br"
	fortalezaDomain  = "sapl.fortaleza.ce.leg.br"
)

// fortalezaTypeCodes are the SAPL matter types harvested: ordinary and
// complementary bills, legislative decrees and organic-law amendments.
var fortalezaTypeCodes = []int{1, 5, 6, 9}

// fortalezaTitle splits titles like "PL 123/2024 - Projeto de Lei
// Ordinária" into the number/year token and the spelled-out type.
var fortalezaTitle = regexp.MustCompile(`(\w+)\s+(\d+)/(\d{4})\s+-\s+(.*)`)

// Fortaleza crawls the Fortaleza city council's SAPL portal. Each
// matter type is paged separately; the result rows already carry every
// field including the signed PDF link, so there is no detail stage.
type Fortaleza struct {
	opts    CrawlOptions
	baseURL string
	domain  string
}

// NewFortaleza builds the Fortaleza collector.
func NewFortaleza(opts CrawlOptions) *Fortaleza {
	return &Fortaleza{
		opts:    opts.normalized(),
		baseURL: fortalezaBaseURL,
		domain:  fortalezaDomain,
	}
}

// Source implements Collector.
func (f *Fortaleza) Source() model.Source {
	return model.Source{
		Slug:         "proposicoesfortaleza",
		Body:         "Câmara Municipal de Fortaleza",
		Tier:         model.TierMunicipal,
		State:        "CE",
		Municipality: "Fortaleza",
	}
}

// Collect implements Collector.
func (f *Fortaleza) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	c := newSiteCollector(f.domain, f.opts)
	run := &crawlRun{ctx: ctx, cur: cur}
	source := f.Source()

	c.OnRequest(func(req *colly.Request) {
		if run.shouldAbort() {
			req.Abort()
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		f.handleListing(c, run, source, emit, e)
	})

	c.OnError(func(resp *colly.Response, err error) {
		zap.L().Warn("request failed",
			zap.String("source", source.Slug),
			zap.String("url", resp.Request.URL.String()),
			zap.Error(err))
	})

	for _, code := range fortalezaTypeCodes {
		listing := fmt.Sprintf("%s/materia/pesquisar-materia?page=1&tipo=%d", f.baseURL, code)
		if err := c.Visit(listing); err != nil {
			return eris.Wrapf(err, "collector: visit %s", listing)
		}
	}
	c.Wait()
	return run.err()
}

func (f *Fortaleza) handleListing(c *colly.Collector, run *crawlRun, source model.Source, emit EmitFunc, e *colly.HTMLElement) {
	e.DOM.Find("table.table-striped tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		entry, ok := parseFortalezaRow(row)
		if !ok {
			return true
		}
		if run.cur.CheckDate(normalize.ISODate(entry.date)) != DateWithin {
			return true
		}
		if !run.cur.Take() {
			return false
		}
		if err := emit(entry.record(source, e.Request)); err != nil {
			run.fail(err)
			return false
		}
		return true
	})

	if run.cur.Exhausted() {
		return
	}
	next := fortalezaNextPage(e.DOM)
	if next == "" {
		return
	}
	nextURL := e.Request.AbsoluteURL(next)
	if err := c.Visit(nextURL); err != nil {
		run.fail(eris.Wrapf(err, "collector: schedule next page %s", nextURL))
	}
}

// fortalezaItem is one parsed result row.
type fortalezaItem struct {
	title      string
	docType    string
	number     string
	year       string
	summary    string
	author     string
	date       string
	detailHref string
	pdfHref    string
}

// parseFortalezaRow extracts one matter from a result row. Rows whose
// title lacks the number/year token are chrome, and rows without a
// "Texto Original" attachment have no public document to harvest.
func parseFortalezaRow(row *goquery.Selection) (fortalezaItem, bool) {
	var entry fortalezaItem

	link := row.Find("a").First()
	href, ok := link.Attr("href")
	if !ok {
		return entry, false
	}
	m := fortalezaTitle.FindStringSubmatch(strings.TrimSpace(link.Text()))
	if m == nil {
		return entry, false
	}
	entry.detailHref = href
	entry.number = m[2]
	entry.year = m[3]
	entry.docType = strings.TrimSpace(m[4])
	entry.title = fmt.Sprintf("%s nº %s/%s", entry.docType, entry.number, entry.year)

	row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), "Texto Original") {
			return true
		}
		entry.pdfHref, _ = a.Attr("href")
		return false
	})
	if entry.pdfHref == "" {
		return entry, false
	}

	entry.summary = strings.TrimSpace(row.Find("div.dont-break-out").First().Text())
	entry.date = fortalezaLabelValue(row, "Apresentação:")
	entry.author = fortalezaLabelValue(row, "Autor:")
	return entry, true
}

func (e fortalezaItem) record(source model.Source, req *colly.Request) *model.RawRecord {
	pdfURL := req.AbsoluteURL(e.pdfHref)
	detailURL := req.AbsoluteURL(e.detailHref)
	sum := md5.Sum([]byte(detailURL))

	var authors []string
	if e.author != "" {
		authors = []string{e.author}
	}
	return &model.RawRecord{
		Source:    source,
		Title:     e.title,
		Type:      e.docType,
		Number:    e.number,
		Year:      e.year,
		Summary:   e.summary,
		Authors:   authors,
		Date:      e.date,
		OriginURL: pdfURL,
		FileURLs:  []string{pdfURL},
		ID:        hex.EncodeToString(sum[:]),
		ScrapedAt: time.Now().Format(time.RFC3339),
	}
}

// fortalezaLabelValue reads the text that directly follows a strong
// label, e.g. "Apresentação:" or "Autor:".
func fortalezaLabelValue(row *goquery.Selection, label string) string {
	var value string
	row.Find("strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), label) {
			return true
		}
		if node := s.Get(0).NextSibling; node != nil && node.Type == html.TextNode {
			value = strings.TrimSpace(node.Data)
		}
		return false
	})
	return value
}

func fortalezaNextPage(doc *goquery.Selection) string {
	var href string
	doc.Find("a.page-link").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !strings.Contains(a.Text(), "Próxima") {
			return true
		}
		href, _ = a.Attr("href")
		return false
	})
	return href
}
