package collector

import (
	"net/url"
	"testing"

	"github.com/gocolly/colly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinharesRecord(t *testing.T) {
	doc := docFromHTML(t, semPapelCardHTML)
	entry, ok := parseSemPapelCard(doc.Find("div.kt-widget5__item"))
	require.True(t, ok)

	req := collyRequestAt(t, "https://linhares.camarasempapel.com.br/spl/consulta-producao.aspx")
	raw := NewLinhares(CrawlOptions{}).record(entry, req)

	assert.Equal(t, "proposicoeslinhares", raw.Source.Slug)
	assert.Equal(t, "Projeto de Lei n° 45/2024", raw.Title)
	assert.Equal(t, "789", raw.Number)
	assert.Equal(t, []string{"Ver. Fulano de Tal"}, raw.Authors)
	assert.NotEmpty(t, raw.ID, "card with a case link gets a stable id")
	assert.NotEmpty(t, raw.ScrapedAt)
}

func TestLinharesRecordWithoutCaseLink(t *testing.T) {
	doc := docFromHTML(t, `
<div class="kt-widget5__item">
  <a class="kt-widget5__title" href="detalhe.aspx?id=9">Projeto de Resolução nº 7/2023</a>
</div>`)
	entry, ok := parseSemPapelCard(doc.Find("div.kt-widget5__item"))
	require.True(t, ok)

	req := collyRequestAt(t, "https://linhares.camarasempapel.com.br/spl/consulta-producao.aspx")
	raw := NewLinhares(CrawlOptions{}).record(entry, req)
	assert.Empty(t, raw.ID)
}

// collyRequestAt builds a request anchored at the given URL so relative
// hrefs resolve the way they would mid-crawl.
func collyRequestAt(t *testing.T, rawURL string) *colly.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &colly.Request{URL: u}
}
