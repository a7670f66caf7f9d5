package classifier

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/nao1215/phishscan/internal/model"
)

// Model is a loaded, read-only classifier. It is safe for concurrent use.
type Model struct {
	kind         string
	version      string
	names        []string
	importances  map[string]float64
	threshold    *float64
	fingerprint  string
	predictValue func(x []float64) float64
}

// New builds a model from a decoded artifact after validating it.
func New(a *Artifact) (*Model, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		kind:        a.Kind,
		version:     a.Version,
		names:       slices.Clone(a.FeatureNames),
		importances: maps.Clone(a.Importances),
	}
	if a.Threshold != nil {
		t := *a.Threshold
		m.threshold = &t
	}

	switch a.Kind {
	case KindLogistic:
		lr := &logistic{intercept: a.Intercept, coefficients: slices.Clone(a.Coefficients)}
		m.predictValue = lr.predict
		if len(m.importances) == 0 {
			m.importances = lr.weights(m.names)
		}
	case KindForest:
		f := &forest{trees: cloneTrees(a.Trees)}
		m.predictValue = f.predict
	}
	return m, nil
}

// FeatureNames returns a copy of the schema the model was trained on.
func (m *Model) FeatureNames() []string {
	return slices.Clone(m.names)
}

// PredictProba returns the malicious probability for vec. The vector must
// have the trained length; name and order checks are left to the caller.
func (m *Model) PredictProba(vec model.FeatureVector) (float64, error) {
	if len(vec) != len(m.names) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.names), len(vec))
	}
	p := m.predictValue(vec.Values())
	if math.IsNaN(p) {
		return 0, fmt.Errorf("%s model produced NaN", m.kind)
	}
	return p, nil
}

// FeatureImportances returns a copy of the per-feature weights, or nil.
func (m *Model) FeatureImportances() map[string]float64 {
	if len(m.importances) == 0 {
		return nil
	}
	return maps.Clone(m.importances)
}

// fingerprintVersionLen is the number of digest characters used when the
// fingerprint stands in for a missing version.
const fingerprintVersionLen = 16

// Version returns the artifact version. Artifacts without one are
// identified by a prefix of their fingerprint.
func (m *Model) Version() string {
	if m.version != "" {
		return m.version
	}
	if len(m.fingerprint) >= fingerprintVersionLen {
		return "blake2b-" + m.fingerprint[:fingerprintVersionLen]
	}
	return ""
}

// Kind returns the model family.
func (m *Model) Kind() string {
	return m.kind
}

// Fingerprint returns the BLAKE2b-256 digest of the artifact bytes, or an
// empty string when the model was built directly from an Artifact.
func (m *Model) Fingerprint() string {
	return m.fingerprint
}

// SuggestedThreshold returns the threshold recorded in the artifact, if any.
func (m *Model) SuggestedThreshold() (float64, bool) {
	if m.threshold == nil {
		return 0, false
	}
	return *m.threshold, true
}

// logistic is a binary logistic regression model.
type logistic struct {
	intercept    float64
	coefficients []float64
}

func (l *logistic) predict(x []float64) float64 {
	z := l.intercept
	for i, c := range l.coefficients {
		z += c * x[i]
	}
	return sigmoid(z)
}

// weights maps each feature to its coefficient.
func (l *logistic) weights(names []string) map[string]float64 {
	w := make(map[string]float64, len(names))
	for i, name := range names {
		w[name] = l.coefficients[i]
	}
	return w
}

// sigmoid is the logistic function, arranged to avoid overflow for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// forest averages the leaf values reached in each tree.
type forest struct {
	trees [][]Node
}

func (f *forest) predict(x []float64) float64 {
	var sum float64
	for _, nodes := range f.trees {
		sum += walk(nodes, x)
	}
	return sum / float64(len(f.trees))
}

// walk descends from the root to a leaf. Children always have larger
// indices than their parent, so the loop terminates.
func walk(nodes []Node, x []float64) float64 {
	i := 0
	for {
		n := nodes[i]
		if n.isLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func cloneTrees(trees [][]Node) [][]Node {
	out := make([][]Node, len(trees))
	for i, t := range trees {
		out[i] = slices.Clone(t)
	}
	return out
}
