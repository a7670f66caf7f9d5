// Package verdict maps a malicious probability to a discrete label.
package verdict

import (
	"errors"
	"fmt"
	"math"

	"github.com/nao1215/phishscan/internal/model"
)

// DefaultThreshold is the probability at which a URL becomes malicious.
const DefaultThreshold = 0.5

// ErrInvalidThreshold is returned when a threshold lies outside [0,1].
var ErrInvalidThreshold = errors.New("invalid threshold: must be within [0, 1]")

// Map returns LabelMalicious when p >= threshold and LabelBenign otherwise.
// A probability exactly equal to the threshold is malicious.
func Map(p, threshold float64) model.Label {
	if p >= threshold {
		return model.LabelMalicious
	}
	return model.LabelBenign
}

// ValidateThreshold checks that t is a usable threshold.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
	}
	return nil
}

// Mapper applies a fixed, validated threshold.
type Mapper struct {
	threshold float64
}

// NewMapper creates a Mapper with the given threshold.
func NewMapper(threshold float64) (*Mapper, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return &Mapper{threshold: threshold}, nil
}

// Threshold returns the configured threshold.
func (m *Mapper) Threshold() float64 {
	return m.threshold
}

// Map labels p using the configured threshold.
func (m *Mapper) Map(p float64) model.Label {
	return Map(p, m.threshold)
}
