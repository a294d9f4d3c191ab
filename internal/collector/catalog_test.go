package collector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "houses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
dataset_root: /data/legisla
houses:
  - slug: proposicoessp
    casa_legislativa: Assembleia Legislativa de São Paulo
    uf: sp
    url_template: "https://www.al.sp.gov.br/propositura/?id={ID_ORIGEM}"
  - slug: proposicoesba
    casa_legislativa: Assembleia Legislativa da Bahia
    uf: ba
    url_template: "https://www.al.ba.gov.br/atividade-legislativa-nova/proposicao/{TIPO}.-{NUMERO}-{ANO}"
`)
	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/legisla", cat.DatasetRoot)
	require.Len(t, cat.Houses, 2)
	assert.Equal(t, "proposicoessp", cat.Houses[0].Slug)
	assert.Equal(t, "sp", cat.Houses[0].State)

	assert.Equal(t, filepath.Join("/data/legisla", "sp", "ProposicoesSP.json"), cat.MetadataFile(cat.Houses[0]))
	assert.Equal(t, filepath.Join("/data/legisla", "ba", "ProjetoInteiroTeorBA.json"), cat.TextFile(cat.Houses[1]))
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing dataset root",
			content: "houses:\n  - slug: a\n    casa_legislativa: b\n    uf: sp\n",
		},
		{
			name:    "house without slug",
			content: "dataset_root: /data\nhouses:\n  - casa_legislativa: b\n    uf: sp\n",
		},
		{
			name:    "duplicate slug",
			content: "dataset_root: /data\nhouses:\n  - slug: a\n    casa_legislativa: b\n    uf: sp\n  - slug: a\n    casa_legislativa: c\n    uf: ba\n",
		},
		{
			name:    "not yaml",
			content: "{{{",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
