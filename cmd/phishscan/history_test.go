package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/phishscan/internal/model"
)

// seedHistory scores maliciousURL twice, first benign then malicious, and
// benignURL once.
func seedHistory(t *testing.T, cfgPath, dbDir string) {
	t.Helper()

	runs := [][]string{
		{"score", "-c", cfgPath, "--db-dir", dbDir, "-t", "1", maliciousURL},
		{"score", "-c", cfgPath, "--db-dir", dbDir, maliciousURL, benignURL},
	}
	for _, args := range runs {
		if _, _, err := execute(t, args...); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
	}
}

func TestHistoryCmdEmpty(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	cfgPath := emptyConfig(t)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No predictions stored yet") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var out historyOutput
		if err := json.Unmarshal([]byte(stdout), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if out.Predictions == nil || len(out.Predictions) != 0 {
			t.Errorf("expected empty predictions list, got %v", out.Predictions)
		}
	})
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	cfgPath := emptyConfig(t)
	seedHistory(t, cfgPath, dbDir)

	// Subtests share one database and run sequentially.
	t.Run("overview", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"malicious: 1", "benign:    2", "Recent predictions:", benignURL} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected %q in output:\n%s", want, stdout)
			}
		}
	})

	t.Run("overview json with limit", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "-j", "-n", "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var out historyOutput
		if err := json.Unmarshal([]byte(stdout), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(out.Predictions) != 2 {
			t.Errorf("predictions = %d, want 2", len(out.Predictions))
		}
		if out.Counts[model.LabelMalicious] != 1 || out.Counts[model.LabelBenign] != 2 {
			t.Errorf("unexpected counts: %v", out.Counts)
		}
	})

	t.Run("url history reports change", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, maliciousURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "History for "+maliciousURL) {
			t.Errorf("missing header:\n%s", stdout)
		}
		if !strings.Contains(stdout, "Verdict changed: benign -> malicious") {
			t.Errorf("missing change line:\n%s", stdout)
		}
	})

	t.Run("url history json", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "--json", maliciousURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var out historyOutput
		if err := json.Unmarshal([]byte(stdout), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(out.Predictions) != 2 {
			t.Fatalf("predictions = %d, want 2", len(out.Predictions))
		}
		if out.Predictions[0].Label != model.LabelMalicious {
			t.Error("expected newest prediction first")
		}
		if out.Change == nil || !out.Change.Changed {
			t.Fatalf("expected a verdict change, got %+v", out.Change)
		}
		if out.Change.Previous != model.LabelBenign || out.Change.Current != model.LabelMalicious {
			t.Errorf("change = %s -> %s", out.Change.Previous, out.Change.Current)
		}
		if out.Change.ProbabilityDelta != 0 {
			t.Errorf("same URL and model should give zero delta, got %v", out.Change.ProbabilityDelta)
		}
	})

	t.Run("single prediction", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, benignURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Only one prediction stored") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("unknown url", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "https://never.example")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No predictions stored for https://never.example") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("list urls", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "--list-urls")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, maliciousURL) || !strings.Contains(stdout, benignURL) {
			t.Errorf("expected both URLs:\n%s", stdout)
		}
	})
}

func TestHistoryCmdInvalidArgs(t *testing.T) {
	t.Parallel()

	cfgPath := emptyConfig(t)

	testCases := []struct {
		name string
		args []string
	}{
		{"negative limit", []string{"-n", "-1"}},
		{"list urls with url", []string{"--list-urls", benignURL}},
		{"too many args", []string{benignURL, maliciousURL}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"history", "-c", cfgPath, "--db-dir", t.TempDir()}, tc.args...)
			if _, _, err := execute(t, args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
