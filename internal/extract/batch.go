// Package extract runs the text-extraction pass: it walks a harvested
// dataset file and produces the markdown text artifact for every record
// whose original document was downloaded but not yet transcribed.
package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/archive"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

const defaultConcurrency = 4

// TextExtractor turns an original PDF into markdown text.
type TextExtractor interface {
	ExtractPDF(ctx context.Context, pdf []byte) (string, error)
}

// Result tallies one batch run.
type Result struct {
	Processed       int
	SkippedExisting int
	MissingOriginal int
	MissingPath     int
	Failed          int
}

// Batch drives one extraction pass.
type Batch struct {
	files       *archive.FileStore
	extractor   TextExtractor
	concurrency int
	limit       int
}

// NewBatch wires a Batch. limit <= 0 means no record limit and
// concurrency <= 0 falls back to the default.
func NewBatch(files *archive.FileStore, extractor TextExtractor, concurrency, limit int) *Batch {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Batch{files: files, extractor: extractor, concurrency: concurrency, limit: limit}
}

// Run walks the dataset file and extracts text for every eligible
// record. Already transcribed records are skipped, so the pass is safe
// to re-run after partial failures.
func (b *Batch) Run(ctx context.Context, datasetPath string) (Result, error) {
	file, err := os.Open(datasetPath)
	if err != nil {
		return Result{}, eris.Wrapf(err, "extract: open dataset %s", datasetPath)
	}
	defer file.Close()

	var (
		mu     sync.Mutex
		result Result
	)
	count := func(field *int) {
		mu.Lock()
		*field++
		mu.Unlock()
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(b.concurrency)

	scheduled := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			break
		}
		if b.limit > 0 && scheduled >= b.limit {
			break
		}

		var rec model.CanonicalRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			zap.L().Warn("skipping malformed dataset line", zap.Error(err))
			count(&result.Failed)
			continue
		}

		key := rec.Type + " " + rec.Number
		if rec.OriginalPath == nil || rec.TextPath == "" {
			zap.L().Warn("record has no document to extract", zap.String("record", key))
			count(&result.MissingPath)
			continue
		}
		originalPath := *rec.OriginalPath
		textPath := rec.TextPath

		if b.files.HasText(textPath) {
			count(&result.SkippedExisting)
			continue
		}
		if !b.files.HasOriginal(originalPath) {
			zap.L().Warn("original document not found",
				zap.String("record", key),
				zap.String("path", originalPath))
			count(&result.MissingOriginal)
			continue
		}

		scheduled++
		group.Go(func() error {
			if err := b.extractOne(ctx, originalPath, textPath); err != nil {
				zap.L().Error("extraction failed",
					zap.String("record", key),
					zap.String("path", originalPath),
					zap.Error(err))
				count(&result.Failed)
				return nil
			}
			zap.L().Info("text extracted",
				zap.String("record", key),
				zap.String("path", textPath))
			count(&result.Processed)
			return nil
		})
	}

	scanErr := scanner.Err()
	if err := group.Wait(); err != nil {
		return result, err
	}
	if scanErr != nil {
		return result, eris.Wrapf(scanErr, "extract: read dataset %s", datasetPath)
	}
	return result, nil
}

func (b *Batch) extractOne(ctx context.Context, originalPath, textPath string) error {
	pdf, err := b.files.ReadOriginal(originalPath)
	if err != nil {
		return err
	}
	text, err := b.extractor.ExtractPDF(ctx, pdf)
	if err != nil {
		return err
	}
	if text == "" {
		return eris.New("extract: empty extraction result")
	}
	return b.files.WriteText(textPath, text)
}
