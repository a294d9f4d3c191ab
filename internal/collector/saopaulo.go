package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

const (
	saoPauloBaseURL  = "https://splegisconsulta.saopaulo.sp.leg.br"
	saoPauloDomain   = "splegisconsulta.saopaulo.sp.leg.br"
	saoPauloPageSize = 100
)

var (
	spKeywordsLegend = regexp.MustCompile(`^Palavras-Chave$`)
	spHistoryLegend  = regexp.MustCompile(`(?i)Histórico.*Tramitações`)
)

// SaoPaulo crawls the São Paulo city council's process search. The
// listing is a DataTables endpoint returning JSON pages of a hundred
// processes; each process then gets a detail-page crawl for the
// presentation date, keywords and processing history. The date window
// is filtered server side through the filing-date parameters.
type SaoPaulo struct {
	opts    CrawlOptions
	baseURL string
	domain  string
}

// NewSaoPaulo builds the São Paulo collector.
func NewSaoPaulo(opts CrawlOptions) *SaoPaulo {
	return &SaoPaulo{
		opts:    opts.normalized(),
		baseURL: saoPauloBaseURL,
		domain:  saoPauloDomain,
	}
}

// Source implements Collector.
func (s *SaoPaulo) Source() model.Source {
	return model.Source{
		Slug:         "proposicoescidsp",
		Body:         "Câmara Municipal de São Paulo",
		Tier:         model.TierMunicipal,
		State:        "SP",
		Municipality: "São Paulo",
	}
}

// spListing is one DataTables page.
type spListing struct {
	Data            []spEntry `json:"data"`
	RecordsFiltered int       `json:"recordsFiltered"`
}

// spEntry is one process of the listing payload.
type spEntry struct {
	Codigo      int64          `json:"codigo"`
	Texto       string         `json:"texto"`
	Sigla       string         `json:"sigla"`
	Numero      json.Number    `json:"numero"`
	Ano         json.Number    `json:"ano"`
	Ementa      string         `json:"ementa"`
	Promoventes []spPromovente `json:"promoventes"`
}

type spPromovente struct {
	Texto string `json:"texto"`
}

// Collect implements Collector.
func (s *SaoPaulo) Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error {
	c := newSiteCollector(s.domain, s.opts)
	run := &crawlRun{ctx: ctx, cur: cur}
	source := s.Source()

	c.OnRequest(func(req *colly.Request) {
		if run.shouldAbort() {
			req.Abort()
		}
	})

	// The listing endpoint answers JSON, so it is handled off the raw
	// response; only detail pages are HTML.
	c.OnResponse(func(resp *colly.Response) {
		if resp.Ctx.Get("stage") != "page" {
			return
		}
		s.handlePage(c, run, source, resp)
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		if e.Request.Ctx.Get("stage") != "detail" {
			return
		}
		raw, ok := e.Request.Ctx.GetAny("record").(*model.RawRecord)
		if !ok {
			return
		}
		parseSaoPauloDetail(raw, e.DOM)
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

	if err := s.requestPage(c, run.cur, 0, 1); err != nil {
		return eris.Wrap(err, "collector: schedule first page")
	}
	c.Wait()
	return run.err()
}

func (s *SaoPaulo) handlePage(c *colly.Collector, run *crawlRun, source model.Source, resp *colly.Response) {
	var page spListing
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		run.fail(eris.Wrapf(err, "collector: parse listing page %s", resp.Request.URL.String()))
		return
	}

	for _, entry := range page.Data {
		if entry.Codigo == 0 {
			continue
		}
		if !run.cur.Take() {
			return
		}

		raw := entry.record(source, s.baseURL)
		reqCtx := colly.NewContext()
		reqCtx.Put("stage", "detail")
		reqCtx.Put("record", raw)
		detailURL := fmt.Sprintf("%s/Pesquisa/DetailsDetalhado?COD_MTRA_LEGL=1&COD_PCSS_CMSP=%d&ANO_PCSS_CMSP=%s",
			s.baseURL, entry.Codigo, entry.Ano)
		if err := c.Request("GET", detailURL, nil, reqCtx, nil); err != nil {
			run.fail(eris.Wrapf(err, "collector: schedule detail %s", detailURL))
			return
		}
	}

	start, _ := resp.Ctx.GetAny("start").(int)
	draw, _ := resp.Ctx.GetAny("draw").(int)
	next := start + saoPauloPageSize
	if next >= page.RecordsFiltered || run.cur.Exhausted() {
		return
	}
	if err := s.requestPage(c, run.cur, next, draw+1); err != nil {
		run.fail(eris.Wrap(err, "collector: schedule next page"))
	}
}

func (s *SaoPaulo) requestPage(c *colly.Collector, cur *Cursor, start, draw int) error {
	reqCtx := colly.NewContext()
	reqCtx.Put("stage", "page")
	reqCtx.Put("start", start)
	reqCtx.Put("draw", draw)
	hdr := http.Header{"Referer": []string{s.baseURL + "/Pesquisa/IndexProjeto"}}
	return c.Request("GET", s.pageURL(cur, start, draw), nil, reqCtx, hdr)
}

// pageURL builds the DataTables query the search page itself issues,
// column block included, since the endpoint rejects requests without it.
func (s *SaoPaulo) pageURL(cur *Cursor, start, draw int) string {
	q := url.Values{}
	q.Set("draw", strconv.Itoa(draw))
	q.Set("start", strconv.Itoa(start))
	q.Set("length", strconv.Itoa(saoPauloPageSize))
	q.Set("tipo", "1")
	q.Set("order[0][column]", "1")
	q.Set("order[0][dir]", "desc")

	cols := []struct {
		data, name string
		active     bool
	}{
		{"", "", false},
		{"1", "PROJETO", true},
		{"ementa", "EMENTA", true},
		{"norma", "NORMA", true},
		{"assuntos", "PALAVRA", true},
		{"promoventes", "PROMOVENTE", true},
	}
	for i, col := range cols {
		prefix := fmt.Sprintf("columns[%d]", i)
		q.Set(prefix+"[data]", col.data)
		q.Set(prefix+"[name]", col.name)
		q.Set(prefix+"[searchable]", strconv.FormatBool(col.active))
		q.Set(prefix+"[orderable]", strconv.FormatBool(col.active))
		q.Set(prefix+"[search][value]", "")
		q.Set(prefix+"[search][regex]", "false")
	}
	q.Set("search[value]", "")
	q.Set("search[regex]", "false")

	if v := cur.StartISO(); v != "" {
		q.Set("autuacaoI", v)
	}
	if v := cur.EndISO(); v != "" {
		q.Set("autuacaoF", v)
	}
	return s.baseURL + "/Pesquisa/PageDataProjeto?" + q.Encode()
}

func (e spEntry) record(source model.Source, baseURL string) *model.RawRecord {
	var authors []string
	for _, p := range e.Promoventes {
		if name := strings.TrimSpace(p.Texto); name != "" {
			authors = append(authors, name)
		}
	}

	pdfURL := fmt.Sprintf("%s/ArquivoProcesso/GerarArquivoProcessoPorID/%d?filtroAnexo=1", baseURL, e.Codigo)
	sum := md5.Sum([]byte(strconv.FormatInt(e.Codigo, 10)))
	return &model.RawRecord{
		Source:    source,
		Title:     strings.TrimSpace(e.Texto),
		Type:      strings.TrimSpace(e.Sigla),
		Number:    e.Numero.String(),
		Year:      e.Ano.String(),
		Summary:   strings.TrimSpace(e.Ementa),
		Authors:   authors,
		OriginURL: pdfURL,
		FileURLs:  []string{pdfURL},
		ID:        hex.EncodeToString(sum[:]),
		ScrapedAt: time.Now().Format(time.RFC3339),
	}
}

// parseSaoPauloDetail fills the fields only the detail page has. The
// history table lists newest first; events are reversed so the record
// carries them oldest to newest.
func parseSaoPauloDetail(raw *model.RawRecord, doc *goquery.Selection) {
	doc.Find("td.negrito").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if !strings.Contains(td.Text(), "Apresentado em") {
			return true
		}
		raw.Date = strings.TrimSpace(td.NextFiltered("td").Text())
		return false
	})

	if fs := saoPauloFieldset(doc, spKeywordsLegend); fs != nil {
		fs.Find("span").Each(func(_ int, span *goquery.Selection) {
			if subject := strings.TrimSpace(span.Text()); subject != "" {
				raw.Subjects = append(raw.Subjects, subject)
			}
		})
	}

	fs := saoPauloFieldset(doc, spHistoryLegend)
	if fs == nil {
		return
	}
	var events []model.RawStatusEvent
	fs.Find("table tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		events = append(events, model.RawStatusEvent{
			Date:        strings.TrimSpace(cells.Eq(0).Text()),
			Description: strings.TrimSpace(cells.Eq(1).Text()),
		})
	})
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	raw.Status = events
}

// saoPauloFieldset returns the fieldset whose legend matches, or nil.
func saoPauloFieldset(doc *goquery.Selection, legend *regexp.Regexp) *goquery.Selection {
	var fs *goquery.Selection
	doc.Find("legend").EachWithBreak(func(_ int, l *goquery.Selection) bool {
		if !legend.MatchString(strings.TrimSpace(l.Text())) {
			return true
		}
		fs = l.Closest("fieldset")
		return false
	})
	if fs == nil || fs.Length() == 0 {
		return nil
	}
	return fs
}
