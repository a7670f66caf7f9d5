package scoring

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckSchema(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		expected []string
		got      []string
		wantErr  bool
		position int
	}{
		{"equal", []string{"a", "b"}, []string{"a", "b"}, false, 0},
		{"both empty", nil, nil, false, 0},
		{"swapped", []string{"a", "b"}, []string{"b", "a"}, true, 0},
		{"prefix", []string{"a", "b"}, []string{"a"}, true, 1},
		{"longer", []string{"a"}, []string{"a", "b"}, true, 1},
		{"renamed", []string{"a", "b", "c"}, []string{"a", "x", "c"}, true, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := CheckSchema(tc.expected, tc.got)
			if !tc.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var sErr *SchemaMismatchError
			if !errors.As(err, &sErr) {
				t.Fatalf("expected *SchemaMismatchError, got %v", err)
			}
			if sErr.Position != tc.position {
				t.Errorf("position = %d, want %d", sErr.Position, tc.position)
			}
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Error("errors.Is(err, ErrSchemaMismatch) = false")
			}
		})
	}
}

func TestSchemaMismatchErrorMessage(t *testing.T) {
	t.Parallel()

	err := CheckSchema([]string{"a", "b"}, []string{"a", "c"})
	if !strings.Contains(err.Error(), `model expects "b", vector has "c"`) {
		t.Errorf("unexpected message: %s", err)
	}

	err = CheckSchema([]string{"a", "b"}, []string{"a"})
	if !strings.Contains(err.Error(), "model expects 2 features, vector has 1") {
		t.Errorf("unexpected message: %s", err)
	}
}
