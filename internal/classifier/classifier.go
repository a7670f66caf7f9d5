package classifier

import (
	"errors"

	"github.com/nao1215/phishscan/internal/model"
)

// ErrModelUnavailable is returned when scoring is attempted before a model
// has been loaded, or after it has been closed.
var ErrModelUnavailable = errors.New("model unavailable")

// Classifier is a trained model that scores feature vectors.
type Classifier interface {
	// FeatureNames returns the feature names the model was trained on,
	// in the order it expects them.
	FeatureNames() []string

	// PredictProba returns the probability that the vector is malicious.
	PredictProba(vec model.FeatureVector) (float64, error)
}

// ImportanceProvider is implemented by classifiers that expose a weight
// per feature. Explanations use it to rank reasons.
type ImportanceProvider interface {
	FeatureImportances() map[string]float64
}

// Versioned is implemented by classifiers that carry a version string.
type Versioned interface {
	Version() string
}

// ThresholdSuggester is implemented by classifiers whose training produced
// a preferred decision threshold.
type ThresholdSuggester interface {
	SuggestedThreshold() (float64, bool)
}

// Importances returns the feature importances of c, or nil when c does not
// provide any.
func Importances(c Classifier) map[string]float64 {
	if p, ok := c.(ImportanceProvider); ok {
		return p.FeatureImportances()
	}
	return nil
}

// VersionOf returns the version of c, or an empty string.
func VersionOf(c Classifier) string {
	if v, ok := c.(Versioned); ok {
		return v.Version()
	}
	return ""
}

// SuggestedThresholdOf returns the threshold c was tuned for, if any.
func SuggestedThresholdOf(c Classifier) (float64, bool) {
	if s, ok := c.(ThresholdSuggester); ok {
		return s.SuggestedThreshold()
	}
	return 0, false
}
