package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/phishscan/internal/model"
)

// errNoResult is returned by steps that need a prediction when none exists.
var errNoResult = errors.New("job has no prediction")

// URLScorer scores a single URL. *scoring.Scorer implements it.
type URLScorer interface {
	Score(ctx context.Context, rawURL string) (*model.PredictionResult, error)
}

// HistoryReader looks up the most recent stored prediction for a URL.
// It returns nil, nil when there is none.
type HistoryReader interface {
	Latest(ctx context.Context, url string) (*model.PredictionResult, error)
}

// HistoryWriter stores a prediction.
type HistoryWriter interface {
	SavePrediction(ctx context.Context, result *model.PredictionResult) error
}

// ScoreStep turns the job's URL into a prediction.
type ScoreStep struct {
	scorer URLScorer
}

// NewScoreStep creates a step that scores with scorer.
func NewScoreStep(scorer URLScorer) *ScoreStep {
	return &ScoreStep{scorer: scorer}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return "score"
}

// Do scores the URL. Scorer errors are returned unchanged so callers can
// still match them with errors.Is and errors.As.
func (s *ScoreStep) Do(ctx context.Context, job *Job) error {
	result, err := s.scorer.Score(ctx, job.URL)
	if err != nil {
		return err
	}
	job.Result = result
	return nil
}

// LookupStep loads the previous verdict for the job's URL.
// Lookup failures are logged and never fail the job.
type LookupStep struct {
	store  HistoryReader
	logger *slog.Logger
}

// NewLookupStep creates a step that reads from store.
func NewLookupStep(store HistoryReader, logger *slog.Logger) *LookupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *LookupStep) Name() string {
	return "lookup_previous"
}

// Do loads the previous prediction into job.Previous.
func (s *LookupStep) Do(ctx context.Context, job *Job) error {
	prev, err := s.store.Latest(ctx, job.URL)
	if err != nil {
		s.logger.Warn("failed to load previous verdict",
			"url", job.URL,
			"error", err,
		)
		return nil
	}
	job.Previous = prev
	return nil
}

// PersistStep stores the job's prediction.
type PersistStep struct {
	store HistoryWriter
}

// NewPersistStep creates a step that writes to store.
func NewPersistStep(store HistoryWriter) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves job.Result.
func (s *PersistStep) Do(ctx context.Context, job *Job) error {
	if job.Result == nil {
		return errNoResult
	}
	return s.store.SavePrediction(ctx, job.Result)
}
