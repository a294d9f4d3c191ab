package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
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
	sjcListingURL = "https://camarasempapel.camarasjc.sp.gov.br/spl/consulta-producao.aspx?tipo=348&procuraTexto=DocumentoInicial"
	sjcDomain     = "camarasempapel.camarasjc.sp.gov.br"
	sjcPDFBase    = "https://camarasempapel.camarasjc.sp.gov.br/"
)

// SaoJoseDosCampos crawls the São José dos Campos city council. The
// portal runs the same paperless-chamber platform as Linhares, but the
// signed PDF is resolved from the digital case page instead of a file
// tree: either the page lands on a URL whose "arquivo" parameter names
// the file, or the case's file list links it.
type SaoJoseDosCampos struct {
	opts CrawlOptions
}

// NewSaoJoseDosCampos builds the São José dos Campos collector.
func NewSaoJoseDosCampos(opts CrawlOptions) *SaoJoseDosCampos {
	return &SaoJoseDosCampos{opts: opts.normalized()}
}

// Source implements Collector.
func (s *SaoJoseDosCampos) Source() model.Source {
	return model.Source{
		Slug:         "proposicoessjc",
		Body:         "Câmara Municipal de São José dos Campos",
		Tier:         model.TierMunicipal,
		State:        "SP",
		Municipality: "São José dos Campos",
	}
}

// Collect implements Collector.
func (s *SaoJoseDosCampos) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	c := newSiteCollector(sjcDomain, s.opts)
	c.AllowURLRevisit = true
	run := &crawlRun{ctx: ctx, cur: cur}
	source := s.Source()

	c.OnRequest(func(req *colly.Request) {
		if run.shouldAbort() {
			req.Abort()
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		switch e.Request.Ctx.Get("stage") {
		case "processo":
			s.handleProcesso(run, emit, e)
		default:
			s.handleListing(c, run, source, e)
		}
	})

	c.OnError(func(resp *colly.Response, err error) {
		zap.L().Warn("request failed",
			zap.String("source", source.Slug),
			zap.String("url", resp.Request.URL.String()),
			zap.Error(err))
	})

	if err := c.Visit(sjcListingURL); err != nil {
		return eris.Wrapf(err, "collector: visit %s", sjcListingURL)
	}
	c.Wait()
	return run.err()
}

func (s *SaoJoseDosCampos) handleListing(c *colly.Collector, run *crawlRun, source model.Source, e *colly.HTMLElement) {
	paginate := true

	e.DOM.Find("div.kt-widget5__item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		entry, ok := parseSemPapelCard(item)
		if !ok || entry.caseHref == "" {
			return true
		}

		verdict := run.cur.CheckDate(normalize.ISODate(entry.date))
		if verdict == DateWithin && entry.date == "" {
			verdict = run.cur.CheckYear(entry.year)
		}
		switch verdict {
		case DateTooOld:
			// Newest first, so no later card can be in range.
			paginate = false
			run.cur.Stop()
			return false
		case DateTooNew:
			return true
		}

		if !run.cur.Take() {
			paginate = false
			return false
		}

		raw := s.record(entry, e.Request)
		reqCtx := colly.NewContext()
		reqCtx.Put("stage", "processo")
		reqCtx.Put("record", raw)
		if err := c.Request("GET", raw.OriginURL, nil, reqCtx, nil); err != nil {
			run.fail(eris.Wrapf(err, "collector: schedule case page %s", raw.OriginURL))
			return false
		}
		return true
	})

	if !paginate || run.cur.Exhausted() {
		return
	}
	if err := semPapelNextPage(c, e.DOM, e.Request.URL.String()); err != nil {
		run.fail(eris.Wrap(err, "collector: schedule next page"))
	}
}

// handleProcesso resolves the initial document PDF from the digital
// case page. A case without one still yields its record, flagged so no
// original path is minted for it.
func (s *SaoJoseDosCampos) handleProcesso(run *crawlRun, emit EmitFunc, e *colly.HTMLElement) {
	raw, ok := e.Request.Ctx.GetAny("record").(*model.RawRecord)
	if !ok {
		return
	}

	if path := sjcPDFPath(e.Request.URL, e.DOM); path != "" {
		if pdfURL := sjcDirectPDFURL(path); pdfURL != "" {
			raw.OriginURL = pdfURL
			raw.FileURLs = []string{pdfURL}
		}
	}
	if len(raw.FileURLs) == 0 {
		raw.DocumentAbsent = true
	}

	if err := emit(raw); err != nil {
		run.fail(err)
	}
}

func (s *SaoJoseDosCampos) record(e semPapelCard, req *colly.Request) *model.RawRecord {
	detailURL := req.AbsoluteURL(e.detailHref)
	sum := md5.Sum([]byte(detailURL))
	return &model.RawRecord{
		Source:    s.Source(),
		Title:     e.title,
		Type:      e.docType,
		Number:    e.number,
		Year:      e.year,
		Summary:   e.summary,
		Authors:   e.authors(),
		Date:      e.date,
		OriginURL: req.AbsoluteURL(e.caseHref),
		ID:        hex.EncodeToString(sum[:]),
		ScrapedAt: time.Now().Format(time.RFC3339),
	}
}

// sjcPDFPath finds the storage path of the case's initial document.
// After redirects the case URL itself can carry it in the "arquivo"
// parameter; otherwise the file list is searched for the proposition
// PDF by its label.
func sjcPDFPath(pageURL *url.URL, doc *goquery.Selection) string {
	if v := pageURL.Query().Get("arquivo"); v != "" {
		return v
	}
	var path string
	doc.Find(`ul#processo_arquivos a[href*=".pdf"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := strings.ToUpper(a.Text())
		if !strings.Contains(label, "PL ") && !strings.Contains(label, "PROPOSIÇÃO") {
			return true
		}
		href, _ := a.Attr("href")
		if u, err := url.Parse(href); err == nil {
			path = u.Query().Get("arquivo")
		}
		return false
	})
	return path
}

// sjcDirectPDFURL joins a storage path against the site root, where the
// files are served from, rather than against the /spl/ application.
func sjcDirectPDFURL(path string) string {
	base, err := url.Parse(sjcPDFBase)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
