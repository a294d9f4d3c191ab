package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

// DatasetWriter is the append-only JSONL sink for canonical records: one
// compact JSON object per line, UTF-8, one file per source-run. Concurrent
// record pipelines hand completed records to a single writer goroutine over
// a channel, so the output stream is never written from two goroutines.
type DatasetWriter struct {
	path string

	file    *os.File
	records chan model.CanonicalRecord
	done    chan struct{}

	mu      sync.Mutex
	written int
	failed  int
}

// DatasetPath returns the dataset file location for a source slug:
// <dir>/<slug>_proposicoes.jl.
func DatasetPath(dir, slug string) string {
	return filepath.Join(dir, slug+"_proposicoes.jl")
}

// NewDatasetWriter opens (truncating) the dataset file for a source-run and
// starts the writer goroutine.
func NewDatasetWriter(dir, slug string) (*DatasetWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "dataset: mkdir %s", dir)
	}

	path := DatasetPath(dir, slug)
	file, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: create %s", path)
	}

	w := &DatasetWriter{
		path:    path,
		file:    file,
		records: make(chan model.CanonicalRecord, 64),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Write hands one canonical record to the writer goroutine. It blocks only
// while the sink drains its buffer, never for I/O of other producers.
func (w *DatasetWriter) Write(rec model.CanonicalRecord) {
	w.records <- rec
}

// Close drains pending records, closes the file, and returns the number of
// lines written.
func (w *DatasetWriter) Close() (int, error) {
	close(w.records)
	<-w.done

	err := w.file.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		return w.written, eris.Wrapf(err, "dataset: close %s", w.path)
	}
	return w.written, nil
}

// Path returns the dataset file location.
func (w *DatasetWriter) Path() string {
	return w.path
}

func (w *DatasetWriter) run() {
	defer close(w.done)

	enc := json.NewEncoder(w.file)
	enc.SetEscapeHTML(false)

	for rec := range w.records {
		if err := enc.Encode(rec); err != nil {
			zap.L().Error("dataset: encode record",
				zap.String("path", w.path),
				zap.Error(err),
			)
			w.mu.Lock()
			w.failed++
			w.mu.Unlock()
			continue
		}
		w.mu.Lock()
		w.written++
		w.mu.Unlock()
	}
}
