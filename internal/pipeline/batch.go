package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/phishscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of URLs scored at once by default.
const DefaultConcurrency = 10

// BatchProcessor runs many URLs through pipelines concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each URL.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per URL.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs every URL through a fresh pipeline, at most
// concurrency at a time.
//
// The returned jobs are in input order and never nil. A failing URL does
// not stop the others; its error is kept in Job.Err. The error return is
// non-nil only when ctx is cancelled, in which case jobs that never ran
// carry the context error.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*Job, error) {
	bp.logger.Info("starting batch processing",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	jobs := make([]*Job, len(urls))
	for i, u := range urls {
		jobs[i] = NewJob(u, i)
	}

	err := bp.run(ctx, jobs, nil)

	bp.logger.Info("batch processing complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)

	return jobs, err
}

// ProcessBatchWithCallback runs every URL and calls callback for each
// finished job. The callback is called from the worker goroutine, so it
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(job *Job),
) error {
	jobs := make([]*Job, len(urls))
	for i, u := range urls {
		jobs[i] = NewJob(u, i)
	}
	return bp.run(ctx, jobs, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, jobs []*Job, callback func(job *Job)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for _, job := range jobs {
		// Each job owns its slot, so no locking is needed.
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				job.Err = err
				return err
			}

			bp.logger.Debug("scoring url",
				"url", job.URL,
				"index", job.Index+1,
				"total", len(jobs),
			)

			// Failures stay in the job; other URLs keep going.
			if err := bp.pipelineFactory().Execute(gctx, job); err != nil {
				bp.logger.Warn("url failed",
					"url", job.URL,
					"error", err,
				)
			}

			if callback != nil {
				callback(job)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Summarize converts finished jobs into a report summary.
// A job with a prediction counts as scored even if a later step failed;
// a job without one is reported as a failure.
func Summarize(jobs []*Job, threshold float64) *model.Summary {
	results := make([]*model.PredictionResult, 0, len(jobs))
	var failures []model.Failure

	for _, job := range jobs {
		if job == nil {
			continue
		}
		if job.Result != nil {
			results = append(results, job.Result)
			continue
		}
		msg := "not scored"
		if job.Err != nil {
			msg = job.Err.Error()
		}
		failures = append(failures, model.Failure{URL: job.URL, Error: msg})
	}

	return model.NewSummary(results, failures, threshold)
}
