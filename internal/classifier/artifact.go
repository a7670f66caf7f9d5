package classifier

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// Artifact kinds.
const (
	KindLogistic = "logistic"
	KindForest   = "forest"
)

// Artifact file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	// ErrInvalidArtifact is returned when an artifact is structurally inconsistent.
	ErrInvalidArtifact = errors.New("invalid model artifact")

	// ErrUnknownFormat is returned when the artifact format cannot be determined
	// from the file extension.
	ErrUnknownFormat = errors.New("unknown model artifact format")
)

// Artifact is the serialized form of a trained model.
type Artifact struct {
	// Kind selects the model family: "logistic" or "forest".
	Kind string `json:"kind" yaml:"kind"`

	// Version is a free-form identifier recorded with every prediction.
	Version string `json:"version" yaml:"version"`

	// FeatureNames is the ordered schema the model was trained on.
	FeatureNames []string `json:"feature_names" yaml:"feature_names"`

	// Threshold is an optional decision threshold suggested by training.
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	// Importances weights each feature for explanations. Logistic models
	// fall back to their coefficients when it is empty.
	Importances map[string]float64 `json:"importances,omitempty" yaml:"importances,omitempty"`

	// Intercept and Coefficients parameterize a logistic model.
	Intercept    float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`

	// Trees parameterize a forest model. Each tree is a flat node array
	// rooted at index 0.
	Trees [][]Node `json:"trees,omitempty" yaml:"trees,omitempty"`
}

// Node is a single decision tree node. A node whose Left and Right are
// both -1 is a leaf and Value is the malicious probability there.
// Otherwise samples with x[Feature] <= Threshold go Left.
type Node struct {
	Feature   int     `json:"feature" yaml:"feature"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Left      int     `json:"left" yaml:"left"`
	Right     int     `json:"right" yaml:"right"`
	Value     float64 `json:"value" yaml:"value"`
}

// isLeaf reports whether n has no children.
func (n Node) isLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Load reads a model artifact from path. The format is chosen by extension:
// .json is decoded as JSON, .yaml and .yml as YAML.
func Load(path string) (*Model, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes an artifact in the given format and builds the model it describes.
func Parse(data []byte, format string) (*Model, error) {
	var a Artifact
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	m, err := New(&a)
	if err != nil {
		return nil, err
	}
	m.fingerprint = Fingerprint(data)
	return m, nil
}

// Fingerprint returns the hex-encoded BLAKE2b-256 digest of an artifact.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Validate checks that the artifact is internally consistent.
func (a *Artifact) Validate() error {
	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("%w: no feature names", ErrInvalidArtifact)
	}
	seen := make(map[string]struct{}, len(a.FeatureNames))
	for _, name := range a.FeatureNames {
		if name == "" {
			return fmt.Errorf("%w: empty feature name", ErrInvalidArtifact)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidArtifact, name)
		}
		seen[name] = struct{}{}
	}

	for name, w := range a.Importances {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("%w: importance for unknown feature %q", ErrInvalidArtifact, name)
		}
		if !isFinite(w) {
			return fmt.Errorf("%w: importance for %q is not finite", ErrInvalidArtifact, name)
		}
	}

	if a.Threshold != nil && (math.IsNaN(*a.Threshold) || *a.Threshold < 0 || *a.Threshold > 1) {
		return fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidArtifact, *a.Threshold)
	}

	switch a.Kind {
	case KindLogistic:
		return a.validateLogistic()
	case KindForest:
		return a.validateForest()
	case "":
		return fmt.Errorf("%w: missing kind", ErrInvalidArtifact)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidArtifact, a.Kind)
	}
}

func (a *Artifact) validateLogistic() error {
	if len(a.Coefficients) != len(a.FeatureNames) {
		return fmt.Errorf("%w: %d coefficients for %d features",
			ErrInvalidArtifact, len(a.Coefficients), len(a.FeatureNames))
	}
	if !isFinite(a.Intercept) {
		return fmt.Errorf("%w: intercept is not finite", ErrInvalidArtifact)
	}
	for i, c := range a.Coefficients {
		if !isFinite(c) {
			return fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidArtifact, i)
		}
	}
	return nil
}

// validateForest requires every child index to be greater than its parent's,
// which rules out cycles.
func (a *Artifact) validateForest() error {
	if len(a.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for t, nodes := range a.Trees {
		if len(nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, t)
		}
		for i, n := range nodes {
			if n.isLeaf() {
				if math.IsNaN(n.Value) || n.Value < 0 || n.Value > 1 {
					return fmt.Errorf("%w: tree %d node %d leaf value %v outside [0,1]",
						ErrInvalidArtifact, t, i, n.Value)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= len(a.FeatureNames) {
				return fmt.Errorf("%w: tree %d node %d references feature %d",
					ErrInvalidArtifact, t, i, n.Feature)
			}
			if n.Left <= i || n.Left >= len(nodes) || n.Right <= i || n.Right >= len(nodes) {
				return fmt.Errorf("%w: tree %d node %d has out-of-range children (%d, %d)",
					ErrInvalidArtifact, t, i, n.Left, n.Right)
			}
			if !isFinite(n.Threshold) {
				return fmt.Errorf("%w: tree %d node %d threshold is not finite", ErrInvalidArtifact, t, i)
			}
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
