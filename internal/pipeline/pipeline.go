package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/phishscan/internal/model"
)

// Job carries one URL through the pipeline.
type Job struct {
	// URL is the input as submitted.
	URL string

	// Index is the position of URL in the submitted batch.
	Index int

	// Result is set by the score step.
	Result *model.PredictionResult

	// Previous is the most recent stored prediction for URL before this
	// run, if the lookup step found one.
	Previous *model.PredictionResult

	// Err is the first error a step returned.
	Err error

	// Performed lists the steps that ran, in order.
	Performed []string
}

// NewJob creates a job for url at position index.
func NewJob(url string, index int) *Job {
	return &Job{URL: url, Index: index}
}

// Failed reports whether any step failed.
func (j *Job) Failed() bool {
	return j.Err != nil
}

// VerdictChanged reports whether the label differs from the previous run.
// It is false when there is no previous run or no result.
func (j *Job) VerdictChanged() bool {
	return j.Result != nil && j.Previous != nil && j.Result.Label != j.Previous.Label
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the job as
// left by the previous steps.
type Step interface {
	// Do executes the step. Non-critical problems should be logged and
	// nil returned.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error stays recorded in the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given steps and options.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: append([]Step(nil), steps...),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// Execute runs all steps in sequence against job.
// Cancellation is checked before each step; steps handle their own timeouts.
//
// Returns the first error encountered unless continueOnError is set, in
// which case nil is returned and job.Err holds the first error.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", job.URL,
				"reason", err,
			)
			if job.Err == nil {
				job.Err = err
			}
			return err
		}

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"url", job.URL,
				"error", err,
			)
			if job.Err == nil {
				job.Err = err
			}
			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"url", job.URL,
		)
		job.Performed = append(job.Performed, step.Name())
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
