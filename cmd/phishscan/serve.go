package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scorer over HTTP",
		Long: `Serve starts an HTTP server with two routes:

  POST /predict   {"url": "..."} -> prediction, probability and explanation
  GET  /healthz   200 once the model is loaded, 503 before

The server listens immediately and loads the model in the background.
Until loading finishes /predict answers 503 model_unavailable.
SIGINT or SIGTERM shuts the server down gracefully.

Examples:
  # Serve on the default address
  phishscan serve

  # Serve on all interfaces with JSON logs and a custom model
  phishscan serve -a 0.0.0.0:8080 --log-json -M model.yaml`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addScoringFlags(cmd)

	cmd.Flags().StringP("addr", "a", config.DefaultListenAddr,
		"Listen address")
	cmd.Flags().Bool("log-json", false,
		"Emit JSON logs")
	cmd.Flags().Bool("record", false,
		"Store served predictions in the history database")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, record, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, record, logger)
}

// buildServeConfig creates a Config from the config file and flags.
// The second return value reports whether predictions are recorded.
func buildServeConfig(cmd *cobra.Command) (*config.Config, bool, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, false, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		if cfg.ListenAddr, err = flags.GetString("addr"); err != nil {
			return nil, false, err
		}
	}
	if flags.Changed("log-json") {
		if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
			return nil, false, err
		}
	}

	record, err := flags.GetBool("record")
	if err != nil {
		return nil, false, err
	}
	cfg.SaveToDB = record

	return cfg, record, nil
}

// runServe serves until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, record bool, logger *slog.Logger) error {
	slot := classifier.NewSlot()
	defer slot.Close()

	scorer, err := newScorer(cfg, slot, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	opts := []server.Option{
		server.WithAddr(cfg.ListenAddr),
		server.WithMaxBodySize(cfg.MaxBodySize),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithLogger(logger),
		server.WithVersion(getVersion()),
	}

	if record {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts = append(opts, server.WithRecorder(db))
	}

	srv, err := server.New(scorer, opts...)
	if err != nil {
		return err
	}

	// /predict answers 503 until this finishes.
	go func() {
		if err := loadModel(ctx, cfg, slot, logger); err != nil {
			logger.Error("failed to load model", "error", err)
		}
	}()

	return srv.ListenAndServe(ctx)
}
