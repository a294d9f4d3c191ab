package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fortalezaRowHTML = `
<table class="table-striped">
  <tr>
    <td>
      <a href="/materia/12345">PL 321/2024 - Projeto de Lei Ordinária</a>
      <div class="dont-break-out">Dispõe sobre a arborização urbana.</div>
      <p><strong>Apresentação:</strong> 20/05/2024</p>
      <p><strong>Autor:</strong> Vereadora Fulana</p>
      <a href="/media/sapl/public/texto_original.pdf">Texto Original</a>
    </td>
  </tr>
  <tr>
    <td>
      <a href="/materia/12346">PL 322/2024 - Projeto de Lei Ordinária</a>
      <div class="dont-break-out">Sem anexo publicado.</div>
    </td>
  </tr>
  <tr>
    <td><a href="/materia/12347">Matéria sem número</a></td>
  </tr>
</table>`

func TestParseFortalezaRow(t *testing.T) {
	doc := docFromHTML(t, fortalezaRowHTML)
	rows := doc.Find("table.table-striped tr")
	require.Equal(t, 3, rows.Length())

	entry, ok := parseFortalezaRow(rows.Eq(0))
	require.True(t, ok)
	assert.Equal(t, "Projeto de Lei Ordinária", entry.docType)
	assert.Equal(t, "321", entry.number)
	assert.Equal(t, "2024", entry.year)
	assert.Equal(t, "Projeto de Lei Ordinária nº 321/2024", entry.title)
	assert.Equal(t, "Dispõe sobre a arborização urbana.", entry.summary)
	assert.Equal(t, "20/05/2024", entry.date)
	assert.Equal(t, "Vereadora Fulana", entry.author)
	assert.Equal(t, "/materia/12345", entry.detailHref)
	assert.Equal(t, "/media/sapl/public/texto_original.pdf", entry.pdfHref)

	_, ok = parseFortalezaRow(rows.Eq(1))
	assert.False(t, ok, "row without an original text attachment is skipped")

	_, ok = parseFortalezaRow(rows.Eq(2))
	assert.False(t, ok, "row without a number/year title is skipped")
}

func TestFortalezaRecord(t *testing.T) {
	doc := docFromHTML(t, fortalezaRowHTML)
	entry, ok := parseFortalezaRow(doc.Find("table.table-striped tr").Eq(0))
	require.True(t, ok)

	req := collyRequestAt(t, "https://sapl.fortaleza.ce.leg.br/materia/pesquisar-materia?page=1&tipo=1")
	raw := entry.record(NewFortaleza(CrawlOptions{}).Source(), req)

	assert.Equal(t, "proposicoesfortaleza", raw.Source.Slug)
	assert.Equal(t, "Fortaleza", raw.Source.Municipality)
	assert.Equal(t, "https://sapl.fortaleza.ce.leg.br/media/sapl/public/texto_original.pdf", raw.OriginURL)
	assert.Equal(t, []string{raw.OriginURL}, raw.FileURLs)
	assert.Equal(t, []string{"Vereadora Fulana"}, raw.Authors)
	assert.NotEmpty(t, raw.ID)
}

func TestFortalezaNextPage(t *testing.T) {
	doc := docFromHTML(t, `
<nav>
  <a class="page-link" href="?page=1&tipo=1">Anterior</a>
  <a class="page-link" href="?page=3&tipo=1">Próxima</a>
</nav>`)
	assert.Equal(t, "?page=3&tipo=1", fortalezaNextPage(doc))

	assert.Empty(t, fortalezaNextPage(docFromHTML(t, `<nav><a class="page-link" href="?page=1">Anterior</a></nav>`)))
}
