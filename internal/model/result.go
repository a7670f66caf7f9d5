package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Label is the discrete verdict for a URL.
type Label string

const (
	// LabelBenign means the probability stayed below the decision threshold.
	LabelBenign Label = "benign"

	// LabelMalicious means the probability reached the decision threshold.
	LabelMalicious Label = "malicious"
)

// ParseLabel converts a string into a Label.
func ParseLabel(s string) (Label, error) {
	switch Label(s) {
	case LabelBenign, LabelMalicious:
		return Label(s), nil
	default:
		return "", fmt.Errorf("unknown label %q", s)
	}
}

// Source identifies which stage produced the verdict.
type Source string

const (
	// SourceModel means the classifier probability produced the verdict.
	SourceModel Source = "model"

	// SourceRule means a high-confidence rule short-circuited the classifier.
	SourceRule Source = "rule"
)

// Reason is one ranked, human-readable justification for a verdict.
type Reason struct {
	// Feature is the schema name of the feature that triggered the reason.
	// It is empty for reasons decoded from the external JSON shape.
	Feature string `json:"feature,omitempty"`

	// Message is the text shown to users (e.g. "suspicious keyword: login").
	Message string `json:"message"`

	// Score is the ranking key: value x importance, or the heuristic priority.
	Score float64 `json:"score"`

	// Severity is the coarse risk level of the triggering feature.
	Severity Severity `json:"severity"`
}

// String returns the reason message.
func (r Reason) String() string {
	return r.Message
}

// PredictionResult is the outcome of scoring a single URL.
type PredictionResult struct {
	// ID uniquely identifies this prediction in history and logs.
	ID string `json:"id"`

	// URL is the input as submitted by the caller.
	URL string `json:"url"`

	// Label is the verdict.
	Label Label `json:"label"`

	// Probability is the classifier's malicious probability in [0,1].
	Probability float64 `json:"probability"`

	// FeatureScores is the extracted feature vector in schema order.
	FeatureScores FeatureVector `json:"feature_scores"`

	// Reasons are ordered from most to least significant.
	Reasons []Reason `json:"reasons"`

	// Source is the stage that produced the verdict.
	Source Source `json:"source"`

	// ModelVersion is the version string of the classifier artifact.
	ModelVersion string `json:"model_version,omitempty"`

	// ScoredAt is when scoring finished.
	ScoredAt time.Time `json:"scored_at"`
}

// NewPredictionResult creates an empty result for the given URL with a
// fresh ID and timestamp.
func NewPredictionResult(url string) *PredictionResult {
	return &PredictionResult{
		ID:       uuid.NewString(),
		URL:      url,
		Reasons:  []Reason{},
		Source:   SourceModel,
		ScoredAt: time.Now().UTC(),
	}
}

// IsMalicious reports whether the verdict is malicious.
func (r *PredictionResult) IsMalicious() bool {
	return r.Label == LabelMalicious
}

// ReasonMessages returns the reason messages in rank order.
func (r *PredictionResult) ReasonMessages() []string {
	messages := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		messages[i] = reason.Message
	}
	return messages
}
