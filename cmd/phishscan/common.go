package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	plog "github.com/nao1215/phishscan/internal/log"
	"github.com/nao1215/phishscan/internal/rules"
	"github.com/nao1215/phishscan/internal/scoring"
	"github.com/spf13/cobra"
)

// addScoringFlags registers the flags shared by score and serve.
func addScoringFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("threshold", "t", config.DefaultThreshold,
		"Probability at or above which a URL is malicious (0.0 - 1.0)")
	cmd.Flags().IntP("top-k", "k", config.DefaultTopK,
		"Maximum number of reasons per URL")
	cmd.Flags().StringP("model", "M", "",
		"Model artifact path (.json, .yaml, .yml; default: built-in model)")
	cmd.Flags().Bool("rules", false,
		"Label URLs malicious by rule before consulting the model")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishscan in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig reads the configuration file selected by --config and then
// applies every flag the user set explicitly, so flags win over the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		if cfg.Threshold, err = flags.GetFloat64("threshold"); err != nil {
			return nil, err
		}
		cfg.ThresholdSet = true
	}
	if flags.Changed("top-k") {
		if cfg.TopK, err = flags.GetInt("top-k"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("model") {
		if cfg.ModelPath, err = flags.GetString("model"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rules") {
		if cfg.RulesEnabled, err = flags.GetBool("rules"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// setupLogger creates the secure logger for the command.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return plog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	return plog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
}

// newScorer builds a scorer that reads its classifier from slot. Without an
// explicit threshold the model's suggested threshold is preferred.
func newScorer(cfg *config.Config, slot *classifier.Slot, logger *slog.Logger) (*scoring.Scorer, error) {
	opts := []scoring.Option{
		scoring.WithThreshold(cfg.Threshold),
		scoring.WithTopK(cfg.TopK),
		scoring.WithLogger(logger),
	}
	if !cfg.ThresholdSet {
		opts = append(opts, scoring.WithModelThreshold())
	}
	if cfg.RulesEnabled {
		opts = append(opts, scoring.WithRules(rules.NewEngine()))
	}
	return scoring.NewScorer(slot, opts...)
}

// loadModel loads the configured model into slot.
func loadModel(ctx context.Context, cfg *config.Config, slot *classifier.Slot, logger *slog.Logger) error {
	path := cfg.ResolveModelPath()
	if err := slot.Load(ctx, classifier.FileLoader(path)); err != nil {
		return err
	}

	clf, err := slot.Classifier()
	if err != nil {
		return err
	}
	if path == "" {
		path = "built-in"
	}
	attrs := []any{"path", path, "version", classifier.VersionOf(clf)}
	if t, ok := classifier.SuggestedThresholdOf(clf); ok {
		attrs = append(attrs, "suggested_threshold", t)
	}
	logger.Info("model loaded", attrs...)
	return nil
}

// readURLList reads one URL per line from path. Blank lines and lines
// starting with '#' are skipped.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

// openOutput returns the report destination: the file named by path, or
// fallback when path is empty. The returned close function is never nil.
func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports echo the scored URLs, which may carry tokens; keep them private.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
