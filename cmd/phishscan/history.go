package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/spf13/cobra"
)

// historyOutput is the JSON shape of the history command.
type historyOutput struct {
	URL         string                    `json:"url,omitempty"`
	Counts      map[model.Label]int       `json:"counts,omitempty"`
	URLs        []string                  `json:"urls,omitempty"`
	Predictions []*model.PredictionResult `json:"predictions"`
	Change      *changeOutput             `json:"change,omitempty"`
}

// changeOutput describes the difference between the two newest scans.
type changeOutput struct {
	Changed          bool        `json:"changed"`
	Current          model.Label `json:"current"`
	Previous         model.Label `json:"previous,omitempty"`
	ProbabilityDelta float64     `json:"probability_delta"`
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show stored predictions",
		Long: `History shows predictions stored by 'phishscan score'.

Without a URL it prints the number of stored verdicts per label and the
most recent predictions. With a URL it lists that URL's predictions,
newest first, and reports whether the verdict changed between the two
most recent scans.

Examples:
  # Label counts and recent predictions
  phishscan history

  # History of one URL
  phishscan history "http://192.168.1.2/verify-login"

  # Every URL ever scored
  phishscan history --list-urls

  # JSON output
  phishscan history --json -n 5 https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", config.DefaultHistoryLimit,
		"Maximum number of predictions to show (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("list-urls", "L", false,
		"List every URL in the history database")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishscan in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 0 {
		return fmt.Errorf("invalid limit %d: must be zero or positive", limit)
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	listURLs, err := cmd.Flags().GetBool("list-urls")
	if err != nil {
		return err
	}
	if listURLs && len(args) > 0 {
		return errors.New("--list-urls does not take a URL")
	}

	out := cmd.OutOrStdout()

	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		if jsonOutput {
			return writeHistoryJSON(out, &historyOutput{Predictions: []*model.PredictionResult{}})
		}
		fmt.Fprintln(out, "No predictions stored yet. Run 'phishscan score <url>' first.")
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case listURLs:
		return showURLs(ctx, out, db, jsonOutput)
	case len(args) == 1:
		return showURLHistory(ctx, out, db, args[0], limit, jsonOutput)
	default:
		return showOverview(ctx, out, db, limit, jsonOutput)
	}
}

// showURLs lists every stored URL.
func showURLs(ctx context.Context, out io.Writer, db *database.HistoryDB, jsonOutput bool) error {
	urls, err := db.ListURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list urls: %w", err)
	}

	if jsonOutput {
		return writeHistoryJSON(out, &historyOutput{URLs: urls, Predictions: []*model.PredictionResult{}})
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No URLs stored.")
		return nil
	}
	for _, u := range urls {
		fmt.Fprintln(out, u)
	}
	return nil
}

// showOverview prints label counts and the most recent predictions.
func showOverview(ctx context.Context, out io.Writer, db *database.HistoryDB, limit int, jsonOutput bool) error {
	counts, err := db.LabelCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count labels: %w", err)
	}
	recent, err := db.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load recent predictions: %w", err)
	}

	if jsonOutput {
		return writeHistoryJSON(out, &historyOutput{Counts: counts, Predictions: recent})
	}

	fmt.Fprintln(out, "Stored verdicts:")
	fmt.Fprintf(out, "  malicious: %d\n", counts[model.LabelMalicious])
	fmt.Fprintf(out, "  benign:    %d\n", counts[model.LabelBenign])
	fmt.Fprintln(out)

	if len(recent) == 0 {
		fmt.Fprintln(out, "No predictions stored.")
		return nil
	}
	fmt.Fprintln(out, "Recent predictions:")
	printPredictions(out, recent, true)
	return nil
}

// showURLHistory prints the predictions of one URL and the latest change.
func showURLHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, url string, limit int, jsonOutput bool) error {
	change, err := db.CompareLatest(ctx, url)
	if errors.Is(err, database.ErrNoHistory) {
		if jsonOutput {
			return writeHistoryJSON(out, &historyOutput{URL: url, Predictions: []*model.PredictionResult{}})
		}
		fmt.Fprintf(out, "No predictions stored for %s\n", url)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to compare predictions: %w", err)
	}

	results, err := db.History(ctx, url, limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	co := &changeOutput{
		Changed:          change.Changed(),
		Current:          change.Current.Label,
		ProbabilityDelta: change.ProbabilityDelta(),
	}
	if change.Previous != nil {
		co.Previous = change.Previous.Label
	}

	if jsonOutput {
		return writeHistoryJSON(out, &historyOutput{URL: url, Predictions: results, Change: co})
	}

	fmt.Fprintf(out, "History for %s\n\n", url)
	printPredictions(out, results, false)
	fmt.Fprintln(out)

	switch {
	case change.Previous == nil:
		fmt.Fprintln(out, "Only one prediction stored; nothing to compare.")
	case co.Changed:
		fmt.Fprintf(out, "Verdict changed: %s -> %s (probability %+.4f)\n", co.Previous, co.Current, co.ProbabilityDelta)
	default:
		fmt.Fprintf(out, "Verdict unchanged: %s (probability %+.4f)\n", co.Current, co.ProbabilityDelta)
	}
	return nil
}

// printPredictions prints one line per prediction.
func printPredictions(out io.Writer, results []*model.PredictionResult, withURL bool) {
	for _, r := range results {
		line := fmt.Sprintf("  %s  %-9s  %.4f  %-5s", r.ScoredAt.Local().Format("2006-01-02 15:04:05"), r.Label, r.Probability, r.Source)
		if withURL {
			line += "  " + r.URL
		}
		fmt.Fprintln(out, line)
	}
}

func writeHistoryJSON(out io.Writer, v *historyOutput) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
