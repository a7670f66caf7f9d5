package model

import "time"

// Failure records a URL that could not be scored.
type Failure struct {
	// URL is the input as submitted.
	URL string `json:"url"`

	// Error is the error message returned by the scorer.
	Error string `json:"error"`
}

// Summary aggregates the outcome of scoring one or more URLs.
// Report writers render a Summary; single-URL scoring produces a Summary
// with one entry.
type Summary struct {
	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// ModelVersion is the classifier version used for the batch.
	ModelVersion string `json:"model_version,omitempty"`

	// Threshold is the decision threshold used for the batch.
	Threshold float64 `json:"threshold"`

	// MaliciousCount is the number of malicious verdicts.
	MaliciousCount int `json:"malicious_count"`

	// BenignCount is the number of benign verdicts.
	BenignCount int `json:"benign_count"`

	// FailedCount is the number of URLs that produced an error.
	FailedCount int `json:"failed_count"`

	// Results are the successful predictions in input order.
	Results []*PredictionResult `json:"results"`

	// Failures are the URLs that could not be scored, in input order.
	Failures []Failure `json:"failures,omitempty"`
}

// NewSummary builds a Summary from results and failures.
// Nil entries in results are skipped.
func NewSummary(results []*PredictionResult, failures []Failure, threshold float64) *Summary {
	s := &Summary{
		GeneratedAt: time.Now().UTC(),
		Threshold:   threshold,
		Results:     make([]*PredictionResult, 0, len(results)),
		Failures:    failures,
		FailedCount: len(failures),
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		s.Results = append(s.Results, r)
		if r.IsMalicious() {
			s.MaliciousCount++
		} else {
			s.BenignCount++
		}
		if s.ModelVersion == "" {
			s.ModelVersion = r.ModelVersion
		}
	}

	return s
}

// Total returns the number of URLs covered by the summary.
func (s *Summary) Total() int {
	return s.MaliciousCount + s.BenignCount + s.FailedCount
}

// HasMalicious reports whether any URL was judged malicious.
func (s *Summary) HasMalicious() bool {
	return s.MaliciousCount > 0
}

// HasFailures reports whether any URL failed to score.
func (s *Summary) HasFailures() bool {
	return s.FailedCount > 0
}
