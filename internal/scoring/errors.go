package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch is matched by every SchemaMismatchError.
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// ErrInvalidProbability is returned when a classifier produces a value
	// outside [0,1].
	ErrInvalidProbability = errors.New("classifier returned invalid probability")
)

// SchemaMismatchError reports that a feature vector does not have the
// names or order the loaded model was trained on.
type SchemaMismatchError struct {
	// Expected is the model's feature order.
	Expected []string

	// Got is the vector's feature order.
	Got []string

	// Position is the first index at which the two differ. It equals the
	// shorter length when one is a prefix of the other.
	Position int
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	if len(e.Expected) != len(e.Got) {
		return fmt.Sprintf("%s: model expects %d features, vector has %d",
			ErrSchemaMismatch, len(e.Expected), len(e.Got))
	}
	return fmt.Sprintf("%s: at position %d model expects %q, vector has %q",
		ErrSchemaMismatch, e.Position, e.Expected[e.Position], e.Got[e.Position])
}

// Is reports whether target is ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// CheckSchema returns a *SchemaMismatchError unless got equals expected
// element by element.
func CheckSchema(expected, got []string) error {
	n := min(len(expected), len(got))
	for i := range n {
		if expected[i] != got[i] {
			return &SchemaMismatchError{Expected: expected, Got: got, Position: i}
		}
	}
	if len(expected) != len(got) {
		return &SchemaMismatchError{Expected: expected, Got: got, Position: n}
	}
	return nil
}
