package archive

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Subtree prefixes under the storage root, matching the layout the batch
// extraction pass reads back.
const (
	originalSubtree = "pdf"
	textSubtree     = "md"
)

// FileStore writes artifact files under a configured storage root. Writers
// for different records never collide because their paths are resolved from
// distinct identities; a writer for the same path (re-run, retry) truncates
// and overwrites, never appends.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at the given directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// OriginalPath returns the absolute location of an original-document artifact.
func (fs *FileStore) OriginalPath(relative string) string {
	return filepath.Join(fs.root, originalSubtree, filepath.FromSlash(relative))
}

// TextPath returns the absolute location of a derived-text artifact.
func (fs *FileStore) TextPath(relative string) string {
	return filepath.Join(fs.root, textSubtree, filepath.FromSlash(relative))
}

// WriteOriginal stores original-document bytes at the resolved path.
func (fs *FileStore) WriteOriginal(relative string, data []byte) error {
	return fs.write(fs.OriginalPath(relative), data)
}

// WriteText stores derived markdown text at the resolved path.
func (fs *FileStore) WriteText(relative string, text string) error {
	return fs.write(fs.TextPath(relative), []byte(text))
}

// HasOriginal reports whether the original-document artifact already exists.
func (fs *FileStore) HasOriginal(relative string) bool {
	_, err := os.Stat(fs.OriginalPath(relative))
	return err == nil
}

// HasText reports whether the derived-text artifact already exists.
func (fs *FileStore) HasText(relative string) bool {
	_, err := os.Stat(fs.TextPath(relative))
	return err == nil
}

// ReadOriginal loads a stored original document, e.g. for the batch
// extraction pass.
func (fs *FileStore) ReadOriginal(relative string) ([]byte, error) {
	data, err := os.ReadFile(fs.OriginalPath(relative))
	if err != nil {
		return nil, eris.Wrapf(err, "archive: read original %s", relative)
	}
	return data, nil
}

func (fs *FileStore) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "archive: mkdir for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "archive: write %s", path)
	}
	return nil
}
