package collector

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

func TestSaoPauloEntryRecord(t *testing.T) {
	payload := `{
		"data": [{
			"codigo": 98765,
			"texto": "PL 456/2024",
			"sigla": "PL",
			"numero": 456,
			"ano": 2024,
			"ementa": "Institui o programa de compostagem.",
			"promoventes": [{"texto": "Ver. Fulano"}, {"texto": "  "}, {"texto": "Ver. Beltrana"}]
		}],
		"recordsFiltered": 1
	}`
	var page spListing
	require.NoError(t, json.Unmarshal([]byte(payload), &page))
	require.Len(t, page.Data, 1)

	source := NewSaoPaulo(CrawlOptions{}).Source()
	raw := page.Data[0].record(source, saoPauloBaseURL)

	assert.Equal(t, "proposicoescidsp", raw.Source.Slug)
	assert.Equal(t, "São Paulo", raw.Source.Municipality)
	assert.Equal(t, "PL 456/2024", raw.Title)
	assert.Equal(t, "PL", raw.Type)
	assert.Equal(t, "456", raw.Number)
	assert.Equal(t, "2024", raw.Year)
	assert.Equal(t, []string{"Ver. Fulano", "Ver. Beltrana"}, raw.Authors)
	assert.Equal(t, saoPauloBaseURL+"/ArquivoProcesso/GerarArquivoProcessoPorID/98765?filtroAnexo=1", raw.OriginURL)
	assert.Equal(t, []string{raw.OriginURL}, raw.FileURLs)
	assert.NotEmpty(t, raw.ID)
}

const saoPauloDetailHTML = `
<html><body>
  <table>
    <tr><td class="negrito">Apresentado em</td><td>05/06/2024</td></tr>
  </table>
  <fieldset>
    <legend>Palavras-Chave</legend>
    <span>MEIO AMBIENTE</span><span>COMPOSTAGEM</span><span> </span>
  </fieldset>
  <fieldset>
    <legend>Histórico de Tramitações</legend>
    <table>
      <tr><th>Data</th><th>Descrição</th></tr>
      <tr><td>10/08/2024</td><td>Encaminhado à comissão</td></tr>
      <tr><td>12/06/2024</td><td>Publicado no diário</td></tr>
      <tr><td>05/06/2024</td><td>Protocolado</td></tr>
    </table>
  </fieldset>
</body></html>`

func TestParseSaoPauloDetail(t *testing.T) {
	raw := &model.RawRecord{}
	parseSaoPauloDetail(raw, docFromHTML(t, saoPauloDetailHTML))

	assert.Equal(t, "05/06/2024", raw.Date)
	assert.Equal(t, []string{"MEIO AMBIENTE", "COMPOSTAGEM"}, raw.Subjects)

	// The portal lists newest first; the record carries chronological
	// order so a tail cap keeps the most recent events.
	require.Len(t, raw.Status, 3)
	assert.Equal(t, "Protocolado", raw.Status[0].Description)
	assert.Equal(t, "05/06/2024", raw.Status[0].Date)
	assert.Equal(t, "Encaminhado à comissão", raw.Status[2].Description)
}

func TestParseSaoPauloDetailEmpty(t *testing.T) {
	raw := &model.RawRecord{}
	parseSaoPauloDetail(raw, docFromHTML(t, "<html><body><p>sem detalhes</p></body></html>"))

	assert.Empty(t, raw.Date)
	assert.Empty(t, raw.Subjects)
	assert.Empty(t, raw.Status)
}

func TestSaoPauloPageURL(t *testing.T) {
	cur, err := NewCursor(0, "2024-01-01", "2024-12-31")
	require.NoError(t, err)

	s := NewSaoPaulo(CrawlOptions{})
	u, err := url.Parse(s.pageURL(cur, 200, 3))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(u.Path, "/Pesquisa/PageDataProjeto"))
	q := u.Query()
	assert.Equal(t, "3", q.Get("draw"))
	assert.Equal(t, "200", q.Get("start"))
	assert.Equal(t, "100", q.Get("length"))
	assert.Equal(t, "1", q.Get("tipo"))
	assert.Equal(t, "PROJETO", q.Get("columns[1][name]"))
	assert.Equal(t, "promoventes", q.Get("columns[5][data]"))
	assert.Equal(t, "2024-01-01", q.Get("autuacaoI"))
	assert.Equal(t, "2024-12-31", q.Get("autuacaoF"))
}

func TestSaoPauloPageURLOpenWindow(t *testing.T) {
	cur, err := NewCursor(0, "", "")
	require.NoError(t, err)

	u, err := url.Parse(NewSaoPaulo(CrawlOptions{}).pageURL(cur, 0, 1))
	require.NoError(t, err)

	q := u.Query()
	assert.False(t, q.Has("autuacaoI"))
	assert.False(t, q.Has("autuacaoF"))
}
