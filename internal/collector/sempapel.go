package collector

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
)

// semPapelTitle splits titles like "Projeto de Lei n° 45/2024".
var semPapelTitle = regexp.MustCompile(`(?i)^(.*?)\s+n[°º]\s+(\d+)/(\d{4})`)

// semPapelCard is one parsed proposition card of a paperless-chamber
// listing. Several councils run the same platform, so the card layout
// is shared: a title link, a description link, label/value span pairs
// and a link into the digital case file.
type semPapelCard struct {
	title      string
	docType    string
	number     string
	year       string
	summary    string
	author     string
	date       string
	detailHref string
	caseHref   string
}

// parseSemPapelCard extracts one proposition card. Cards without a
// title link are widgets, not propositions.
func parseSemPapelCard(item *goquery.Selection) (semPapelCard, bool) {
	var entry semPapelCard

	title := item.Find("a.kt-widget5__title").First()
	href, ok := title.Attr("href")
	if !ok {
		return entry, false
	}
	entry.detailHref = href
	entry.title = strings.TrimSpace(title.Text())

	if m := semPapelTitle.FindStringSubmatch(entry.title); m != nil {
		entry.docType = strings.TrimSpace(m[1])
		entry.number = m[2]
		entry.year = m[3]
	}
	// The protocol number supersedes the one embedded in the title.
	if protocol := semPapelProtocol(item); protocol != "" {
		entry.number = protocol
	}

	entry.summary = strings.TrimSpace(item.Find("a.kt-widget5__desc").First().Text())
	entry.date = semPapelListingDate(item)

	var authorParts []string
	item.Find("span.kt-font-info a").Each(func(_ int, a *goquery.Selection) {
		authorParts = append(authorParts, a.Text())
	})
	entry.author = multiSpace.ReplaceAllString(strings.TrimSpace(strings.Join(authorParts, "")), " ")

	if caseHref, ok := item.Find(`a[href*="Digital.aspx"]`).First().Attr("href"); ok {
		entry.caseHref = caseHref
	}
	return entry, true
}

func (e semPapelCard) authors() []string {
	if e.author == "" {
		return nil
	}
	return []string{e.author}
}

// semPapelListingDate reads the value span that follows the "Data:"
// label span.
func semPapelListingDate(item *goquery.Selection) string {
	var date string
	item.Find("span.kt-font-info").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "Data:") {
			return true
		}
		date = strings.TrimSpace(s.NextFiltered("span.kt-font-info").Text())
		return false
	})
	return date
}

// semPapelProtocol reads the link that follows the "Protocolo N°:"
// label span.
func semPapelProtocol(item *goquery.Selection) string {
	var protocol string
	item.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "Protocolo N°:") {
			return true
		}
		protocol = strings.TrimSpace(s.NextAllFiltered("a").First().Text())
		return false
	})
	return protocol
}

// semPapelNextPage moves a WebForms listing to its next page by posting
// the view state back with the pager's event target. A page without an
// active pager link is the last one.
func semPapelNextPage(c *colly.Collector, doc *goquery.Selection, pageURL string) error {
	if doc.Find("a#ContentPlaceHolder1_lbNext[href]").Length() == 0 {
		return nil
	}
	form := url.Values{}
	form.Set("__EVENTTARGET", "ctl00$ContentPlaceHolder1$lbNext")
	form.Set("__EVENTARGUMENT", "")
	for _, field := range []string{"__VIEWSTATE", "__VIEWSTATEGENERATOR", "__EVENTVALIDATION"} {
		value, _ := doc.Find("input#" + field).Attr("value")
		form.Set(field, value)
	}
	hdr := http.Header{"Content-Type": []string{"application/x-www-form-urlencoded"}}
	return c.Request("POST", pageURL, strings.NewReader(form.Encode()), nil, hdr)
}
