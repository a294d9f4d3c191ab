package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

func writeLegislaDataset(t *testing.T, state, metadata, fullText string) *Catalog {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, state)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	cat := &Catalog{DatasetRoot: root}
	house := House{Slug: "proposicoes" + state, State: state}
	if metadata != "" {
		require.NoError(t, os.WriteFile(cat.MetadataFile(house), []byte(metadata), 0o644))
	}
	require.NoError(t, os.WriteFile(cat.TextFile(house), []byte(fullText), 0o644))
	return cat
}

func collectAll(t *testing.T, l *LegislAPI, cur *Cursor) []*model.RawRecord {
	t.Helper()
	var records []*model.RawRecord
	err := l.Collect(context.Background(), cur, func(raw *model.RawRecord) error {
		records = append(records, raw)
		return nil
	})
	require.NoError(t, err)
	return records
}

func TestLegislAPICollect(t *testing.T) {
	metadata := `[
		{"Titulo": "PL 123/2024", "Autoria": "João Silva, Maria Souza", "Ementa": "Dispõe sobre coleta seletiva.", "DataApresentacao": "15/03/2024"}
	]`
	fullText := `[
		{"Titulo": "PL 123/2024", "Texto": "Artigo 1º. Fica instituída a coleta seletiva.", "IdProposicaoOrigem": "98765"}
	]`
	cat := writeLegislaDataset(t, "sp", metadata, fullText)
	house := House{
		Slug:        "proposicoessp",
		Body:        "Assembleia Legislativa de São Paulo",
		State:       "sp",
		URLTemplate: "https://www.al.sp.gov.br/propositura/?id={ID_ORIGEM}",
	}

	cur, err := NewCursor(0, "", "")
	require.NoError(t, err)
	records := collectAll(t, NewLegislAPI(cat, house), cur)

	require.Len(t, records, 1)
	raw := records[0]
	assert.Equal(t, "PL", raw.Type)
	assert.Equal(t, "123", raw.Number)
	assert.Equal(t, "2024", raw.Year)
	assert.Equal(t, "Dispõe sobre coleta seletiva.", raw.Summary)
	assert.Equal(t, []string{"João Silva", "Maria Souza"}, raw.Authors)
	assert.Equal(t, "15/03/2024", raw.Date)
	assert.Equal(t, "https://www.al.sp.gov.br/propositura/?id=98765", raw.OriginURL)
	assert.Equal(t, "Artigo 1º. Fica instituída a coleta seletiva.", raw.InlineText)
	assert.Equal(t, model.TierState, raw.Source.Tier)
	assert.NotEmpty(t, raw.ID)
}

func TestLegislAPIControlCharsInDump(t *testing.T) {
	fullText := "[\n{\"Titulo\": \"PL 9/2023\", \"Texto\": \"Texto\x07com lixo\"}\n]"
	cat := writeLegislaDataset(t, "ba", "[]", fullText)
	house := House{Slug: "proposicoesba", Body: "Assembleia Legislativa da Bahia", State: "ba"}

	cur, err := NewCursor(0, "", "")
	require.NoError(t, err)
	records := collectAll(t, NewLegislAPI(cat, house), cur)

	require.Len(t, records, 1)
	assert.Equal(t, "Textocom lixo", records[0].InlineText)
}

func TestLegislAPIMissingMetadataDump(t *testing.T) {
	fullText := `[{"Titulo": "PL 1/2020", "Texto": "corpo"}]`
	cat := writeLegislaDataset(t, "pr", "", fullText)
	house := House{
		Slug:        "proposicoespr",
		Body:        "Assembleia Legislativa do Paraná",
		State:       "pr",
		URLTemplate: "https://consultas.assembleia.pr.leg.br/#/pesquisa-legislativa",
	}

	cur, err := NewCursor(0, "", "")
	require.NoError(t, err)
	records := collectAll(t, NewLegislAPI(cat, house), cur)

	require.Len(t, records, 1)
	assert.Empty(t, records[0].Summary)
	assert.Equal(t, "https://consultas.assembleia.pr.leg.br/#/pesquisa-legislativa", records[0].OriginURL)
}

func TestLegislAPICursorLimit(t *testing.T) {
	fullText := `[
		{"Titulo": "PL 1/2024", "Texto": "a"},
		{"Titulo": "PL 2/2024", "Texto": "b"},
		{"Titulo": "PL 3/2024", "Texto": "c"}
	]`
	cat := writeLegislaDataset(t, "sc", "[]", fullText)
	house := House{Slug: "proposicoessc", Body: "Assembleia Legislativa de Santa Catarina", State: "sc"}

	cur, err := NewCursor(2, "", "")
	require.NoError(t, err)
	records := collectAll(t, NewLegislAPI(cat, house), cur)
	assert.Len(t, records, 2)
}

func TestLegislAPIDateWindow(t *testing.T) {
	metadata := `[
		{"Titulo": "PL 1/2023", "DataApresentacao": "10/05/2023"},
		{"Titulo": "PL 2/2024", "DataApresentacao": "10/05/2024"}
	]`
	fullText := `[
		{"Titulo": "PL 1/2023", "Texto": "antigo"},
		{"Titulo": "PL 2/2024", "Texto": "recente"}
	]`
	cat := writeLegislaDataset(t, "mg", metadata, fullText)
	house := House{Slug: "proposicoesmg", Body: "Assembleia Legislativa de Minas Gerais", State: "mg"}

	cur, err := NewCursor(0, "2024-01-01", "")
	require.NoError(t, err)
	records := collectAll(t, NewLegislAPI(cat, house), cur)

	require.Len(t, records, 1)
	assert.Equal(t, "2", records[0].Number)
}

func TestLegislAPIBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		docType  string
		number   string
		year     string
		idOrigem string
		want     string
	}{
		{
			name:     "path template",
			template: "https://www.al.ba.gov.br/atividade-legislativa-nova/proposicao/{TIPO}.-{NUMERO}-{ANO}",
			docType:  "pl", number: "55", year: "2022",
			want: "https://www.al.ba.gov.br/atividade-legislativa-nova/proposicao/PL.-55-2022",
		},
		{
			name:     "id template",
			template: "https://www.al.sp.gov.br/propositura/?id={ID_ORIGEM}",
			idOrigem: "42",
			want:     "https://www.al.sp.gov.br/propositura/?id=42",
		},
		{
			name:     "missing field yields no url",
			template: "https://www.al.sp.gov.br/propositura/?id={ID_ORIGEM}",
			want:     "",
		},
		{
			name:     "fixed template",
			template: "https://consultas.assembleia.pr.leg.br/#/pesquisa-legislativa",
			want:     "https://consultas.assembleia.pr.leg.br/#/pesquisa-legislativa",
		},
		{
			name: "no template",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLegislAPI(&Catalog{}, House{URLTemplate: tt.template})
			got := l.buildURL(tt.docType, tt.number, tt.year, tt.idOrigem, legisMetadata{})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		title   string
		docType string
		number  string
		year    string
	}{
		{title: "PL 123/2024", docType: "PL", number: "123", year: "2024"},
		{title: "PEC 5/2021 complementar", docType: "PEC", number: "5", year: "2021"},
		{title: "Requerimento 88", docType: "Requerimento", number: "88", year: ""},
		{title: "PL", docType: "PL", number: "", year: ""},
		{title: "", docType: "", number: "", year: ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			docType, number, year := splitTitle(tt.title)
			assert.Equal(t, tt.docType, docType)
			assert.Equal(t, tt.number, number)
			assert.Equal(t, tt.year, year)
		})
	}
}
