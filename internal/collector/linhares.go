package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
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
	linharesListingURL = "https://linhares.camarasempapel.com.br/spl/consulta-producao.aspx"
	linharesDomain     = "linhares.camarasempapel.com.br"
)

// Linhares crawls the Linhares city council's paperless-chamber portal.
// The listing is an ASP.NET WebForms page: moving to the next page means
// posting the view state back with the pager's event target, so
// pagination is serialized while detail pages fan out.
type Linhares struct {
	opts CrawlOptions
}

// NewLinhares builds the Linhares collector.
func NewLinhares(opts CrawlOptions) *Linhares {
	return &Linhares{opts: opts.normalized()}
}

// Source implements Collector.
func (l *Linhares) Source() model.Source {
	return model.Source{
		Slug:         "proposicoeslinhares",
		Body:         "Câmara Municipal de Linhares",
		Tier:         model.TierMunicipal,
		State:        "ES",
		Municipality: "Linhares",
	}
}

// Collect implements Collector.
func (l *Linhares) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	c := newSiteCollector(linharesDomain, l.opts)
	c.AllowURLRevisit = true
	run := &crawlRun{ctx: ctx, cur: cur}
	source := l.Source()

	c.OnRequest(func(req *colly.Request) {
		if run.shouldAbort() {
			req.Abort()
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		switch e.Request.Ctx.Get("stage") {
		case "detail":
			l.handleDetail(c, run, emit, e)
		case "pecas":
			l.handlePecas(run, emit, e)
		default:
			l.handleListing(c, run, source, e)
		}
	})

	c.OnError(func(resp *colly.Response, err error) {
		zap.L().Warn("request failed",
			zap.String("source", source.Slug),
			zap.String("url", resp.Request.URL.String()),
			zap.Error(err))
	})

	if err := c.Visit(linharesListingURL); err != nil {
		return eris.Wrapf(err, "collector: visit %s", linharesListingURL)
	}
	c.Wait()
	return run.err()
}

func (l *Linhares) handleListing(c *colly.Collector, run *crawlRun, source model.Source, e *colly.HTMLElement) {
	paginate := true

	e.DOM.Find("div.kt-widget5__item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		entry, ok := parseSemPapelCard(item)
		if !ok {
			return true
		}

		verdict := run.cur.CheckDate(normalize.ISODate(entry.date))
		if verdict == DateWithin && entry.date == "" {
			verdict = run.cur.CheckYear(entry.year)
		}
		switch verdict {
		case DateTooOld:
			// The listing is newest first, so everything past this
			// point is older still.
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

		raw := l.record(entry, e.Request)
		reqCtx := colly.NewContext()
		reqCtx.Put("stage", "detail")
		reqCtx.Put("record", raw)
		detailURL := e.Request.AbsoluteURL(entry.detailHref)
		if err := c.Request("GET", detailURL, nil, reqCtx, nil); err != nil {
			run.fail(eris.Wrapf(err, "collector: schedule detail %s", detailURL))
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

func (l *Linhares) handleDetail(c *colly.Collector, run *crawlRun, emit EmitFunc, e *colly.HTMLElement) {
	raw, ok := e.Request.Ctx.GetAny("record").(*model.RawRecord)
	if !ok {
		return
	}
	doc := e.DOM

	if date := strings.TrimSpace(doc.Find("#ContentPlaceHolder1_sp_data_apresentacao").Text()); date != "" {
		raw.Date = date
		// The listing date can be the protocol timestamp; the detail
		// page shows the official presentation date, so the window is
		// rechecked here.
		if run.cur.CheckDate(normalize.ISODate(date)) != DateWithin {
			return
		}
	}

	doc.Find("#ContentPlaceHolder1_div_palavra_chave_exibicao p").Each(func(_ int, p *goquery.Selection) {
		if subject := strings.TrimSpace(p.Text()); subject != "" {
			raw.Subjects = append(raw.Subjects, subject)
		}
	})

	if status := strings.TrimSpace(doc.Find("#ContentPlaceHolder1_p_situacao").Text()); status != "" {
		raw.Status = []model.RawStatusEvent{{Description: status}}
	}

	pecasHref, ok := doc.Find("#ContentPlaceHolder1_btn_arvore_arquivos").Attr("href")
	if !ok {
		if err := emit(raw); err != nil {
			run.fail(err)
		}
		return
	}

	reqCtx := colly.NewContext()
	reqCtx.Put("stage", "pecas")
	reqCtx.Put("record", raw)
	pecasURL := e.Request.AbsoluteURL(pecasHref)
	if err := c.Request("GET", pecasURL, nil, reqCtx, nil); err != nil {
		run.fail(eris.Wrapf(err, "collector: schedule file tree %s", pecasURL))
	}
}

// handlePecas resolves the signed document PDF from the case-file tree.
// That PDF is the proposition's only public document URL.
func (l *Linhares) handlePecas(run *crawlRun, emit EmitFunc, e *colly.HTMLElement) {
	raw, ok := e.Request.Ctx.GetAny("record").(*model.RawRecord)
	if !ok {
		return
	}
	if href, ok := e.DOM.Find(`a[href$=".pdf"]`).First().Attr("href"); ok {
		pdfURL := e.Request.AbsoluteURL(href)
		raw.OriginURL = pdfURL
		raw.FileURLs = []string{pdfURL}
	}
	if err := emit(raw); err != nil {
		run.fail(err)
	}
}

func (l *Linhares) record(e semPapelCard, req *colly.Request) *model.RawRecord {
	raw := &model.RawRecord{
		Source:    l.Source(),
		Title:     e.title,
		Type:      e.docType,
		Number:    e.number,
		Year:      e.year,
		Summary:   e.summary,
		Authors:   e.authors(),
		Date:      e.date,
		ScrapedAt: time.Now().Format(time.RFC3339),
	}
	if e.caseHref != "" {
		caseURL := req.AbsoluteURL(e.caseHref)
		sum := md5.Sum([]byte(caseURL))
		raw.ID = hex.EncodeToString(sum[:])
	}
	return raw
}
