package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/report"
	"github.com/nao1215/phishscan/internal/scoring"
	"github.com/spf13/cobra"
)

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [url...]",
		Short: "Score URLs as benign or malicious",
		Long: `Score extracts lexical and host features from each URL, asks the
classifier for a malicious probability and explains the verdict.

Results are stored in the history database unless --no-save is given.
The command exits with a non-zero status when any URL could not be scored.

Examples:
  # Score a single URL
  phishscan score "http://192.168.1.2/verify-login"

  # Score URLs from a file, one per line
  phishscan score --list urls.txt

  # Stricter threshold, JSON output
  phishscan score -t 0.8 --json https://example.com

  # Markdown report written to a file
  phishscan score -l urls.txt -m -o reports/today.md`,
		Args: cobra.ArbitraryArgs,
		RunE: runScoreCmd,
	}

	addScoringFlags(cmd)

	cmd.Flags().StringP("list", "l", "",
		"File with one URL per line ('#' starts a comment)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs scored concurrently")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store results in the history database")

	return cmd
}

// runScoreCmd executes the score command.
func runScoreCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScoreConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateTargets(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScore(ctx, cmd, cfg, logger)
}

// buildScoreConfig creates a Config from the config file and flags.
func buildScoreConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.Targets = append(cfg.Targets, args...)

	listPath, err := flags.GetString("list")
	if err != nil {
		return nil, err
	}
	if listPath != "" {
		urls, err := readURLList(listPath)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, urls...)
	}

	return cfg, nil
}

// runScore scores every target and writes the report.
func runScore(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	slot := classifier.NewSlot()
	defer slot.Close()

	if err := loadModel(ctx, cfg, slot, logger); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	scorer, err := newScorer(cfg, slot, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return scorePipeline(scorer, db, logger) },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	jobs, batchErr := bp.ProcessBatch(ctx, cfg.Targets)

	for _, job := range jobs {
		if job.VerdictChanged() {
			fmt.Fprintf(cmd.ErrOrStderr(), "verdict changed for %s: %s -> %s\n",
				job.URL, job.Previous.Label, job.Result.Label)
		}
	}

	summary := pipeline.Summarize(jobs, scorer.EffectiveThreshold())
	if err := writeScoreReport(cmd, cfg, summary); err != nil {
		return err
	}

	if batchErr != nil {
		return fmt.Errorf("scoring interrupted: %w", batchErr)
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d URLs could not be scored", summary.FailedCount, summary.Total())
	}
	return nil
}

// scorePipeline builds the per-URL pipeline. History steps are added only
// when db is open.
func scorePipeline(scorer *scoring.Scorer, db *database.HistoryDB, logger *slog.Logger) *pipeline.Pipeline {
	steps := []pipeline.Step{pipeline.NewScoreStep(scorer)}
	if db != nil {
		steps = append(steps,
			pipeline.NewLookupStep(db, logger),
			pipeline.NewPersistStep(db),
		)
	}
	return pipeline.New(steps, pipeline.WithLogger(logger))
}

// writeScoreReport writes the summary in the requested format. A single
// successful URL is written as a single result.
func writeScoreReport(cmd *cobra.Command, cfg *config.Config, summary *model.Summary) error {
	out, closeOut, err := openOutput(cfg.ReportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	w := newReportWriter(cfg, out)
	if len(cfg.Targets) == 1 && len(summary.Results) == 1 {
		_, err = w.WriteResult(summary.Results[0])
	} else {
		_, err = w.Write(summary)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// newReportWriter selects the report writer for cfg.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out,
			report.WithVerbose(cfg.Verbose),
			report.WithShowFeatures(cfg.Verbose),
		)
	}
}
