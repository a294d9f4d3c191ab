package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

const (
	rioListingURL = "https://aplicnt.camara.rj.gov.br/APL/Legislativos/scpro.nsf/Internet/LeiInt?OpenForm"
	rioDomain     = "aplicnt.camara.rj.gov.br"
)

var (
	rioDetailDate = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	rioStatusDate = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	multiSpace    = regexp.MustCompile(`\s+`)
)

// RioDeJaneiro crawls the proposition index of the Rio de Janeiro city
// council. The portal is a Lotus Notes application: the listing is one
// large table and the detail pages carry the PDF link, the processing
// history and the proposition body inline.
type RioDeJaneiro struct {
	opts       CrawlOptions
	converter  *md.Converter
	listingURL string
	domain     string
}

// CrawlOptions carries the politeness settings shared by the HTTP
// collectors.
type CrawlOptions struct {
	Delay       time.Duration
	Parallelism int
	UserAgent   string
}

func (o CrawlOptions) normalized() CrawlOptions {
	if o.Delay <= 0 {
		o.Delay = time.Second
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 2
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (compatible; AssessorAI/1.0)"
	}
	return o
}

// NewRioDeJaneiro builds the Rio de Janeiro collector.
func NewRioDeJaneiro(opts CrawlOptions) *RioDeJaneiro {
	return &RioDeJaneiro{
		opts:       opts.normalized(),
		converter:  newMarkdownConverter(),
		listingURL: rioListingURL,
		domain:     rioDomain,
	}
}

// Source implements Collector.
func (r *RioDeJaneiro) Source() model.Source {
	return model.Source{
		Slug:         "proposicoescidrj",
		Body:         "Câmara Municipal do Rio de Janeiro",
		Tier:         model.TierMunicipal,
		State:        "RJ",
		Municipality: "Rio de Janeiro",
	}
}

// Collect implements Collector.
func (r *RioDeJaneiro) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	c := newSiteCollector(r.domain, r.opts)
	run := &crawlRun{ctx: ctx, cur: cur}
	source := r.Source()

	c.OnRequest(func(req *colly.Request) {
		if run.shouldAbort() {
			req.Abort()
		}
	})

	c.OnHTML(`table[cellpadding='2'] tr[valign='top']`, func(e *colly.HTMLElement) {
		// Detail pages carry tables of their own; rows are propositions
		// only on the listing response.
		if e.Request.Ctx.Get("stage") != "" {
			return
		}
		entry, ok := parseRioListingRow(e.DOM)
		if !ok {
			return
		}
		if cur.CheckDate(entry.isoDate()) != DateWithin {
			return
		}
		if !cur.Take() {
			return
		}

		detailURL := e.Request.AbsoluteURL(entry.detailHref)
		raw := entry.record(source, detailURL)
		reqCtx := colly.NewContext()
		reqCtx.Put("stage", "detail")
		reqCtx.Put("record", raw)
		if err := c.Request("GET", detailURL, nil, reqCtx, nil); err != nil {
			run.fail(eris.Wrapf(err, "collector: schedule detail %s", detailURL))
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		raw, ok := e.Request.Ctx.GetAny("record").(*model.RawRecord)
		if !ok {
			return
		}
		r.parseDetail(raw, e.DOM, e.Request.AbsoluteURL)
		if err := emit(raw); err != nil {
			run.fail(err)
		}
	})

	c.OnError(func(resp *colly.Response, err error) {
		zap.L().Warn("request failed",
			zap.String("source", source.Slug),
			zap.String("url", resp.Request.URL.String()),
			zap.Error(err))
	})

	if err := c.Visit(r.listingURL); err != nil {
		return eris.Wrapf(err, "collector: visit %s", r.listingURL)
	}
	c.Wait()
	return run.err()
}

// parseDetail fills the fields only the detail page has: the original
// document URL, the processing history and the inline body text. A detail
// page without a PDF link keeps the detail URL as the origin but marks the
// record so the canonical original path stays null.
func (r *RioDeJaneiro) parseDetail(raw *model.RawRecord, doc *goquery.Selection, absURL func(string) string) {
	if raw.Date == "" {
		if date := findFirstDate(doc); date != "" {
			raw.Date = date
		}
	}

	if href, ok := findPDFLink(doc); ok {
		pdfURL := absURL(href)
		raw.OriginURL = pdfURL
		raw.FileURLs = []string{pdfURL}
	} else {
		raw.DocumentAbsent = true
	}

	raw.Status = parseRioStatusTable(doc)

	if body := doc.Find("div#xSec2"); body.Length() > 0 {
		raw.InlineText = strings.TrimSpace(r.converter.Convert(body))
	}
}

// rioListingEntry is one parsed row of the listing table.
type rioListingEntry struct {
	detailHref string
	number     string
	year       string
	summary    string
	date       string
	authors    []string
}

func (e rioListingEntry) isoDate() string {
	return normalize.ISODate(e.date)
}

func (e rioListingEntry) record(source model.Source, detailURL string) *model.RawRecord {
	sum := md5.Sum([]byte(detailURL))
	return &model.RawRecord{
		Source:    source,
		Title:     fmt.Sprintf("Projeto de Lei %s/%s", e.number, e.year),
		Type:      "Projeto de Lei",
		Number:    e.number,
		Year:      e.year,
		Summary:   e.summary,
		Authors:   e.authors,
		Date:      e.date,
		OriginURL: detailURL,
		ID:        hex.EncodeToString(sum[:]),
		ScrapedAt: time.Now().Format(time.RFC3339),
	}
}

// parseRioListingRow extracts one proposition from a listing row. Rows
// without the six expected cells or without a number/year link are
// layout chrome, not data.
func parseRioListingRow(row *goquery.Selection) (rioListingEntry, bool) {
	var entry rioListingEntry

	cells := row.Find("td")
	if cells.Length() < 6 {
		return entry, false
	}

	link := cells.Eq(0).Find("a").First()
	href, ok := link.Attr("href")
	if !ok {
		return entry, false
	}
	numYear := strings.TrimSpace(link.Text())
	idx := strings.Index(numYear, "/")
	if idx <= 0 || idx == len(numYear)-1 {
		return entry, false
	}

	entry.detailHref = href
	entry.number = numYear[:idx]
	entry.year = numYear[idx+1:]
	entry.summary = cleanRioSummary(cells.Eq(3).Text())
	entry.date = strings.TrimSpace(cells.Eq(4).Text())
	for _, a := range strings.Split(cells.Eq(5).Text(), ",") {
		if a = strings.TrimSpace(a); a != "" {
			entry.authors = append(entry.authors, a)
		}
	}
	return entry, true
}

// cleanRioSummary trims the listing's inline tramitação marker and the
// redundant author suffix off the ementa cell.
func cleanRioSummary(text string) string {
	text = strings.SplitN(text, "=>", 2)[0]
	text = strings.SplitN(text, "AUTOR:", 2)[0]
	return strings.TrimSpace(text)
}

// parseRioStatusTable walks the table that follows the
// "TRAMITAÇÃO DO PROJETO" heading. The first row is the header.
func parseRioStatusTable(doc *goquery.Selection) []model.RawStatusEvent {
	var events []model.RawStatusEvent

	heading := doc.Find("font").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), "TRAMITAÇÃO DO PROJETO")
	}).First()
	if heading.Length() == 0 {
		return events
	}

	table := heading.NextAllFiltered("table").First()
	if table.Length() == 0 {
		table = heading.Parent().NextAllFiltered("table").First()
	}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		var parts []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			if text := strings.TrimSpace(cell.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		description := strings.TrimSpace(strings.Join(parts, " "))
		description = strings.SplitN(description, "=>", 2)[0]
		description = multiSpace.ReplaceAllString(strings.TrimSpace(description), " ")
		if description == "" {
			return
		}
		events = append(events, model.RawStatusEvent{
			Description: description,
			Date:        rioStatusDate.FindString(description),
		})
	})
	return events
}

func findPDFLink(doc *goquery.Selection) (string, bool) {
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(h), ".pdf") {
			href = h
			return false
		}
		return true
	})
	return href, href != ""
}

func findFirstDate(doc *goquery.Selection) string {
	return rioDetailDate.FindString(doc.Text())
}

// newSiteCollector applies the shared colly configuration: async
// requests, a per-domain rate limit and no robots gate, since the Lotus
// Notes portals serve a blanket disallow that predates their own public
// search pages.
func newSiteCollector(domain string, opts CrawlOptions) *colly.Collector {
	options := []func(*colly.Collector){
		colly.UserAgent(opts.UserAgent),
		colly.Async(true),
		colly.IgnoreRobotsTxt(),
	}
	if domain != "" {
		options = append(options, colly.AllowedDomains(domain))
	}
	c := colly.NewCollector(options...)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*" + domain,
		Parallelism: opts.Parallelism,
		Delay:       opts.Delay,
	})
	return c
}

// newMarkdownConverter builds the HTML-to-markdown converter used for
// inline proposition bodies.
func newMarkdownConverter() *md.Converter {
	conv := md.NewConverter("", true, nil)
	conv.AddRules(md.Rule{
		Filter: []string{"u"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			content = strings.TrimSpace(content)
			if content == "" {
				return md.String("")
			}
			return md.String("**" + content + "**")
		},
	})
	return conv
}

// crawlRun carries the shared state of one asynchronous crawl.
type crawlRun struct {
	ctx      context.Context
	cur      *Cursor
	mu       sync.Mutex
	firstErr error
}

func (r *crawlRun) shouldAbort() bool {
	if r.ctx.Err() != nil || r.cur.Exhausted() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstErr != nil
}

func (r *crawlRun) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.firstErr == nil {
		r.firstErr = err
	}
}

func (r *crawlRun) err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.firstErr != nil {
		return r.firstErr
	}
	return r.ctx.Err()
}
