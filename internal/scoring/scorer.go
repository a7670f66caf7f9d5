package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/explain"
	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/rules"
	"github.com/nao1215/phishscan/internal/verdict"
)

// Provider hands out the currently loaded classifier.
// *classifier.Slot implements it.
type Provider interface {
	Classifier() (classifier.Classifier, error)
}

// Scorer turns URLs into prediction results. It holds no per-request
// state and is safe for concurrent use.
type Scorer struct {
	provider  Provider
	threshold float64
	mapper    *verdict.Mapper
	topK      int

	// modelThreshold prefers the classifier's suggested threshold over threshold.
	modelThreshold bool

	// rules is nil when the pre-check is disabled.
	rules *rules.Engine

	logger *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithThreshold sets the decision threshold. Default is verdict.DefaultThreshold.
// It overrides an earlier WithModelThreshold.
func WithThreshold(t float64) Option {
	return func(s *Scorer) {
		s.threshold = t
		s.modelThreshold = false
	}
}

// WithModelThreshold makes the scorer use the threshold the loaded model
// was tuned for, when it records one. The configured threshold remains the
// fallback.
func WithModelThreshold() Option {
	return func(s *Scorer) {
		s.modelThreshold = true
	}
}

// WithTopK sets the maximum number of reasons per result.
// Default is explain.DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Scorer) {
		s.topK = k
	}
}

// WithRules enables the rule pre-check with the given engine.
// A nil engine disables it.
func WithRules(e *rules.Engine) Option {
	return func(s *Scorer) {
		s.rules = e
	}
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = logger
	}
}

// NewScorer returns a Scorer that reads its classifier from provider.
// It fails with verdict.ErrInvalidThreshold for a threshold outside [0,1].
func NewScorer(provider Provider, opts ...Option) (*Scorer, error) {
	s := &Scorer{
		provider:  provider,
		threshold: verdict.DefaultThreshold,
		topK:      explain.DefaultTopK,
	}
	return s.apply(opts...)
}

// With returns a copy of s with opts applied on top of its settings.
// The receiver is not modified.
func (s *Scorer) With(opts ...Option) (*Scorer, error) {
	c := *s
	return c.apply(opts...)
}

func (s *Scorer) apply(opts ...Option) (*Scorer, error) {
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		return nil, errors.New("scorer requires a classifier provider")
	}
	mapper, err := verdict.NewMapper(s.threshold)
	if err != nil {
		return nil, err
	}
	s.mapper = mapper
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Threshold returns the decision threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// EffectiveThreshold returns the threshold verdicts are currently mapped
// with, taking a suggestion from the loaded model into account.
func (s *Scorer) EffectiveThreshold() float64 {
	if !s.modelThreshold {
		return s.threshold
	}
	clf, err := s.provider.Classifier()
	if err != nil || clf == nil {
		return s.threshold
	}
	return s.mapperFor(clf).Threshold()
}

// mapperFor returns the mapper to use with clf.
func (s *Scorer) mapperFor(clf classifier.Classifier) *verdict.Mapper {
	if !s.modelThreshold {
		return s.mapper
	}
	t, ok := classifier.SuggestedThresholdOf(clf)
	if !ok {
		return s.mapper
	}
	m, err := verdict.NewMapper(t)
	if err != nil {
		return s.mapper
	}
	return m
}

// TopK returns the maximum number of reasons per result.
func (s *Scorer) TopK() int {
	return s.topK
}

// Provider returns the classifier provider the scorer reads from.
func (s *Scorer) Provider() Provider {
	return s.provider
}

// RulesEnabled reports whether the rule pre-check runs.
func (s *Scorer) RulesEnabled() bool {
	return s.rules != nil
}

// Score extracts features from rawURL and scores them.
//
// A malformed URL fails before the classifier is consulted. Errors are
// returned unwrapped so callers can match them with errors.Is and errors.As.
func (s *Scorer) Score(ctx context.Context, rawURL string) (*model.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec, err := features.Extract(rawURL)
	if err != nil {
		return nil, err
	}
	return s.ScoreVector(ctx, rawURL, vec)
}

// ScoreVector scores an already extracted vector. The vector is checked
// against the classifier's schema and never reordered.
func (s *Scorer) ScoreVector(ctx context.Context, rawURL string, vec model.FeatureVector) (*model.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clf, err := s.provider.Classifier()
	if err != nil {
		if !errors.Is(err, classifier.ErrModelUnavailable) {
			err = fmt.Errorf("%w: %w", classifier.ErrModelUnavailable, err)
		}
		return nil, err
	}
	if clf == nil {
		return nil, classifier.ErrModelUnavailable
	}

	result := model.NewPredictionResult(rawURL)
	result.FeatureScores = vec
	result.ModelVersion = classifier.VersionOf(clf)
	importances := classifier.Importances(clf)

	// A drifted schema is fatal even when a rule would decide the verdict.
	if err := CheckSchema(clf.FeatureNames(), vec.Names()); err != nil {
		s.logger.Error("feature schema mismatch",
			"url", rawURL,
			"error", err,
		)
		return nil, err
	}

	if s.rules != nil {
		if reason, ok := s.rules.Evaluate(&rules.Input{URL: rawURL, Features: vec}); ok {
			result.Label = model.LabelMalicious
			result.Probability = 1
			result.Source = model.SourceRule
			result.Reasons = s.ruleReasons(reason, vec, importances)

			s.logger.Debug("rule matched",
				"url", rawURL,
				"reason", reason.Message,
			)
			return result, nil
		}
	}

	p, err := clf.PredictProba(vec)
	if err != nil {
		return nil, fmt.Errorf("classifier failed: %w", err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}

	result.Label = s.mapperFor(clf).Map(p)
	result.Probability = p
	result.Reasons = explain.Explain(vec, importances, s.topK)

	s.logger.Debug("scored url",
		"url", rawURL,
		"label", result.Label,
		"probability", p,
		"reasons", len(result.Reasons),
	)
	return result, nil
}

// ruleReasons puts the rule's reason first and fills the remaining slots
// with the regular explanation, skipping the feature the rule already named.
func (s *Scorer) ruleReasons(first model.Reason, vec model.FeatureVector, importances map[string]float64) []model.Reason {
	reasons := []model.Reason{}
	if s.topK <= 0 {
		return reasons
	}
	reasons = append(reasons, first)
	for _, r := range explain.Explain(vec, importances, s.topK) {
		if len(reasons) == s.topK {
			break
		}
		if r.Feature == first.Feature {
			continue
		}
		reasons = append(reasons, r)
	}
	return reasons
}

// Score scores rawURL with clf directly, without a long-lived Scorer.
// A nil classifier yields classifier.ErrModelUnavailable.
func Score(rawURL string, clf classifier.Classifier, threshold float64, topK int) (*model.PredictionResult, error) {
	var provider Provider = classifier.NewSlot()
	if clf != nil {
		provider = classifier.Loaded(clf)
	}

	s, err := NewScorer(provider, WithThreshold(threshold), WithTopK(topK))
	if err != nil {
		return nil, err
	}
	return s.Score(context.Background(), rawURL)
}
