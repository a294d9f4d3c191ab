package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/archive"
	"github.com/carolinaborgesoficial/assessorai-crawler/internal/extract"
	"github.com/carolinaborgesoficial/assessorai-crawler/pkg/claude"
)

var (
	extractDataset string
	extractLimit   int
)

func init() {
	extractCmd.Flags().StringVar(&extractDataset, "dataset", "", "path to the harvested .jl dataset (required)")
	extractCmd.Flags().IntVar(&extractLimit, "limit", 0, "maximum documents to extract (0 = unlimited)")
	_ = extractCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract markdown text from downloaded PDFs via the LLM",
	Long:  "Walks a harvested dataset and produces the text artifact for every record whose original document exists but has not been transcribed yet. Safe to re-run: existing text artifacts are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.RequireClaude(); err != nil {
			return err
		}
		client, err := claude.NewClient(claude.Config{
			APIKey:    cfg.Claude.Key,
			Model:     cfg.Claude.Model,
			MaxTokens: cfg.Claude.MaxTokens,
		})
		if err != nil {
			return err
		}

		files := archive.NewFileStore(cfg.Storage.Root)
		batch := extract.NewBatch(files, client, cfg.Extract.Concurrency, extractLimit)

		result, err := batch.Run(ctx, extractDataset)
		if err != nil {
			return err
		}

		zap.L().Info("extraction pass finished",
			zap.String("dataset", extractDataset),
			zap.Int("processed", result.Processed),
			zap.Int("skipped_existing", result.SkippedExisting),
			zap.Int("missing_original", result.MissingOriginal),
			zap.Int("missing_path", result.MissingPath),
			zap.Int("failed", result.Failed),
		)
		return nil
	},
}
