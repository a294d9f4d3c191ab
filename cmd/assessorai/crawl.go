package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/archive"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/collector"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/pipeline"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/store"
	"github.com/carolinaborgesoficial/assessorai-crawler/pkg/claude"
)

var (
	crawlSource    string
	crawlStartDate string
	crawlEndDate   string
	crawlLimit     int
	crawlClassify  bool
)

func init() {
	crawlCmd.Flags().StringVar(&crawlSource, "source", "", "harvest a single source slug (default: all registered sources)")
	crawlCmd.Flags().StringVar(&crawlStartDate, "start-date", "", "inclusive window start (YYYY-MM-DD)")
	crawlCmd.Flags().StringVar(&crawlEndDate, "end-date", "", "inclusive window end (YYYY-MM-DD)")
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "maximum records per source (0 = unlimited)")
	crawlCmd.Flags().BoolVar(&crawlClassify, "classify-subjects", false, "backfill subjects via the LLM when a source provides too few")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Harvest propositions from one source or all of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if crawlStartDate != "" {
			cfg.Harvest.StartDate = crawlStartDate
		}
		if crawlEndDate != "" {
			cfg.Harvest.EndDate = crawlEndDate
		}
		if cmd.Flags().Changed("limit") {
			cfg.Harvest.Limit = crawlLimit
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}

		var collectors []collector.Collector
		if crawlSource != "" {
			c, err := reg.Get(crawlSource)
			if err != nil {
				return err
			}
			collectors = append(collectors, c)
		} else {
			for _, slug := range reg.Slugs() {
				c, err := reg.Get(slug)
				if err != nil {
					return err
				}
				collectors = append(collectors, c)
			}
		}

		var classifier pipeline.SubjectClassifier
		if crawlClassify {
			if err := cfg.RequireClaude(); err != nil {
				return err
			}
			classifier, err = claude.NewClient(claude.Config{
				APIKey:    cfg.Claude.Key,
				Model:     cfg.Claude.Model,
				MaxTokens: cfg.Claude.MaxTokens,
			})
			if err != nil {
				return err
			}
		}

		ledger, err := store.NewLedger(cfg.Storage.LedgerPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
		if err := ledger.Migrate(ctx); err != nil {
			return err
		}

		files := archive.NewFileStore(cfg.Storage.Root)
		fetcher := archive.NewFetcher(cfg.Crawl.Delay())

		for _, c := range collectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := harvestSource(ctx, c, files, fetcher, ledger, classifier); err != nil {
				return err
			}
		}
		return nil
	},
}

// harvestSource runs one collector end to end: its own cursor, dataset
// file and ledger row.
func harvestSource(
	ctx context.Context,
	c collector.Collector,
	files *archive.FileStore,
	fetcher *archive.Fetcher,
	ledger *store.Ledger,
	classifier pipeline.SubjectClassifier,
) error {
	source := c.Source()
	logger := zap.L().With(zap.String("source", source.Slug))
	logger.Info("starting harvest",
		zap.String("start_date", cfg.Harvest.StartDate),
		zap.String("end_date", cfg.Harvest.EndDate),
		zap.Int("limit", cfg.Harvest.Limit),
	)

	cur, err := collector.NewCursor(cfg.Harvest.Limit, cfg.Harvest.StartDate, cfg.Harvest.EndDate)
	if err != nil {
		return err
	}

	dataset, err := archive.NewDatasetWriter(cfg.Storage.OutputDir, source.Slug)
	if err != nil {
		return err
	}

	run, err := ledger.StartRun(ctx, source.Slug)
	if err != nil {
		return err
	}

	builder := pipeline.NewBuilder()
	builder.StatusCap = cfg.Harvest.TramitacaoCap
	runner := pipeline.NewRunner(builder, files, fetcher, dataset, classifier)

	collectErr := c.Collect(ctx, cur, func(raw *model.RawRecord) error {
		return runner.Process(ctx, raw)
	})

	written, closeErr := dataset.Close()
	summary := runner.Summary()

	status := store.RunStatusCompleted
	runErr := collectErr
	if runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		status = store.RunStatusFailed
	}
	if err := ledger.FinishRun(ctx, run.ID, status, summary, runErr); err != nil {
		logger.Warn("ledger update failed", zap.Error(err))
	}

	logger.Info("harvest finished",
		zap.Int("collected", summary.Collected),
		zap.Int("dropped", summary.Dropped),
		zap.Int("written", written),
		zap.Int("documents_saved", summary.DocumentsSaved),
		zap.Int("texts_saved", summary.TextsSaved),
		zap.Int("fetch_failures", summary.FetchFailures),
		zap.String("dataset", dataset.Path()),
	)

	if collectErr != nil {
		return eris.Wrapf(collectErr, "harvest %s", source.Slug)
	}
	if closeErr != nil {
		return eris.Wrapf(closeErr, "close dataset for %s", source.Slug)
	}
	return nil
}
