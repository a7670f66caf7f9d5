package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Feature is a single named numeric signal derived from a URL.
type Feature struct {
	// Name is the stable schema name of the feature (e.g. "ip_literal").
	Name string `json:"name"`

	// Value is the numeric value. Boolean features are encoded as 0 or 1.
	Value float64 `json:"value"`
}

// FeatureVector is an ordered sequence of features.
// The order is part of the contract with the classifier: two vectors with
// the same values in a different order are different inputs.
//
// A FeatureVector encodes to JSON as an object whose keys appear in vector
// order, and decoding keeps that order.
type FeatureVector []Feature

// errNotObject is returned when a JSON feature vector is not an object.
var errNotObject = errors.New("feature vector must be a JSON object")

// Names returns the feature names in vector order.
func (v FeatureVector) Names() []string {
	names := make([]string, len(v))
	for i, f := range v {
		names[i] = f.Name
	}
	return names
}

// Values returns the feature values in vector order.
func (v FeatureVector) Values() []float64 {
	values := make([]float64, len(v))
	for i, f := range v {
		values[i] = f.Value
	}
	return values
}

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Clone returns a copy that shares no storage with v.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	out := make(FeatureVector, len(v))
	copy(out, v)
	return out
}

// MarshalJSON encodes the vector as an object with keys in vector order.
func (v FeatureVector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object into the vector, keeping key order.
func (v *FeatureVector) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*v = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	out := FeatureVector{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return errNotObject
		}

		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("feature %s: %w", name, err)
		}
		out = append(out, Feature{Name: name, Value: value})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}

	*v = out
	return nil
}
