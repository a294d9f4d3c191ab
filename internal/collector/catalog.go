package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// House describes one state assembly served from a local legislative
// dataset dump. The portal URL is a template over the proposition's
// fields; {TIPO}, {NUMERO}, {ANO} and {ID_ORIGEM} are substituted per
// record, a template with no placeholders is used verbatim.
type House struct {
	Slug        string `yaml:"slug"`
	Body        string `yaml:"casa_legislativa"`
	State       string `yaml:"uf"`
	URLTemplate string `yaml:"url_template"`
}

// Catalog lists the houses covered by local dataset dumps and where the
// dumps live on disk.
type Catalog struct {
	DatasetRoot string  `yaml:"dataset_root"`
	Houses      []House `yaml:"houses"`
}

// LoadCatalog reads and validates a YAML house catalog.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "collector: read catalog %s", path)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, eris.Wrapf(err, "collector: parse catalog %s", path)
	}
	if cat.DatasetRoot == "" {
		return nil, eris.Errorf("collector: catalog %s has no dataset_root", path)
	}
	seen := make(map[string]bool, len(cat.Houses))
	for i, h := range cat.Houses {
		if h.Slug == "" || h.Body == "" || h.State == "" {
			return nil, eris.Errorf("collector: catalog %s: house %d missing slug, casa_legislativa or uf", path, i)
		}
		if seen[h.Slug] {
			return nil, eris.Errorf("collector: catalog %s: duplicate slug %q", path, h.Slug)
		}
		seen[h.Slug] = true
	}
	return &cat, nil
}

// MetadataFile returns the path of a house's proposition metadata dump.
func (c *Catalog) MetadataFile(h House) string {
	return filepath.Join(c.DatasetRoot, h.State, fmt.Sprintf("Proposicoes%s.json", strings.ToUpper(h.State)))
}

// NationalFile returns the path of the national chamber dump, which
// lives beside the state dumps under its own directory.
func (c *Catalog) NationalFile() string {
	return filepath.Join(c.DatasetRoot, "cn", "ProposicaoComEmentas.json")
}

// TextFile returns the path of a house's full-text dump.
func (c *Catalog) TextFile(h House) string {
	return filepath.Join(c.DatasetRoot, h.State, fmt.Sprintf("ProjetoInteiroTeor%s.json", strings.ToUpper(h.State)))
}
