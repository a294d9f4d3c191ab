package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/archive"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/normalize"
)

// DocumentFetcher downloads an original document by URL.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SubjectClassifier is the optional external-capability boundary used for
// subject backfill. Failures degrade to no subjects, never to a dropped
// record.
type SubjectClassifier interface {
	ClassifySubjects(ctx context.Context, text string) ([]string, error)
}

// Runner drives validated raw records through build, artifact storage, and
// the dataset sink. Process is safe to call from concurrent collector
// callbacks: validation and building are pure, the file store writes to
// per-record paths, and the dataset writer serializes internally.
type Runner struct {
	builder    *Builder
	files      *archive.FileStore
	fetcher    DocumentFetcher
	dataset    *archive.DatasetWriter
	classifier SubjectClassifier

	mu      sync.Mutex
	summary Summary
}

// NewRunner wires a Runner. fetcher and classifier may be nil, disabling
// document download and subject backfill respectively.
func NewRunner(builder *Builder, files *archive.FileStore, fetcher DocumentFetcher, dataset *archive.DatasetWriter, classifier SubjectClassifier) *Runner {
	return &Runner{
		builder:    builder,
		files:      files,
		fetcher:    fetcher,
		dataset:    dataset,
		classifier: classifier,
	}
}

// Process takes one raw record through the full pipeline. Errors local to
// the record (missing fields, fetch failures, classification failures) are
// absorbed here; the error return is reserved for sink-level failures that
// should stop the collector.
func (r *Runner) Process(ctx context.Context, raw *model.RawRecord) error {
	r.record(func(s *Summary) { s.Collected++ })

	if err := Validate(raw); err != nil {
		var missing *MissingFieldsError
		if errors.As(err, &missing) {
			zap.L().Warn("record dropped: incomplete",
				zap.String("source", raw.Source.Slug),
				zap.String("record", raw.NaturalKey()),
				zap.Strings("missing", missing.Missing),
			)
			r.record(func(s *Summary) {
				s.Dropped++
				s.Drops = append(s.Drops, Drop{NaturalKey: raw.NaturalKey(), Missing: missing.Missing})
			})
			return nil
		}
		return err
	}

	rec := r.builder.Build(raw)

	r.storeOriginal(ctx, raw, rec)
	r.storeInlineText(raw, rec)
	r.backfillSubjects(ctx, raw, &rec)

	r.dataset.Write(rec)
	r.record(func(s *Summary) { s.Written++ })
	return nil
}

// record applies one counter update under the runner lock.
func (r *Runner) record(fn func(*Summary)) {
	r.mu.Lock()
	fn(&r.summary)
	r.mu.Unlock()
}

// Summary returns a snapshot of the run counters.
func (r *Runner) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.summary
	out.Drops = append([]Drop(nil), r.summary.Drops...)
	return out
}

// storeOriginal downloads the record's document files to the resolved
// original path. A fetch failure leaves the path recorded in the canonical
// output so a later re-run retries against the same location.
func (r *Runner) storeOriginal(ctx context.Context, raw *model.RawRecord, rec model.CanonicalRecord) {
	if r.fetcher == nil || rec.OriginalPath == nil || len(raw.FileURLs) == 0 {
		return
	}

	for _, u := range raw.FileURLs {
		data, err := r.fetcher.Fetch(ctx, u)
		if err != nil {
			zap.L().Warn("document fetch failed",
				zap.String("source", raw.Source.Slug),
				zap.String("record", raw.NaturalKey()),
				zap.String("url", u),
				zap.Error(err),
			)
			r.record(func(s *Summary) { s.FetchFailures++ })
			continue
		}
		if err := r.files.WriteOriginal(*rec.OriginalPath, data); err != nil {
			zap.L().Warn("document store failed",
				zap.String("path", *rec.OriginalPath),
				zap.Error(err),
			)
			r.record(func(s *Summary) { s.FetchFailures++ })
			continue
		}
		r.record(func(s *Summary) { s.DocumentsSaved++ })
		return
	}
}

// storeInlineText persists document text the portal exposed directly, the
// "text already available" path. Deferred extraction fills the same
// deterministic location later for PDF-only sources.
func (r *Runner) storeInlineText(raw *model.RawRecord, rec model.CanonicalRecord) {
	if raw.InlineText == "" {
		return
	}
	if err := r.files.WriteText(rec.TextPath, raw.InlineText); err != nil {
		zap.L().Warn("text store failed",
			zap.String("path", rec.TextPath),
			zap.Error(err),
		)
		return
	}
	r.record(func(s *Summary) { s.TextsSaved++ })
}

// backfillSubjects asks the classifier for subjects when the source gave too
// few. Best-effort: any capability failure leaves the record as built.
func (r *Runner) backfillSubjects(ctx context.Context, raw *model.RawRecord, rec *model.CanonicalRecord) {
	if r.classifier == nil || len(rec.Subjects) >= normalize.MinSubjects {
		return
	}

	text := raw.InlineText
	if text == "" {
		text = rec.Summary
	}
	if text == "" {
		return
	}

	subjects, err := r.classifier.ClassifySubjects(ctx, text)
	if err != nil {
		zap.L().Warn("subject classification failed",
			zap.String("record", raw.NaturalKey()),
			zap.Error(err),
		)
		return
	}
	if normalized := normalize.NormalizeSubjects(subjects); normalized != nil {
		rec.Subjects = normalized
	}
}
