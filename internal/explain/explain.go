package explain

import (
	"slices"

	"github.com/nao1215/phishscan/internal/features"
	"github.com/nao1215/phishscan/internal/model"
)

// DefaultTopK is the number of reasons returned when callers do not choose.
const DefaultTopK = 5

// heuristicPriority lists the features ranked first when no importances
// are available. Features not listed follow in schema order.
var heuristicPriority = []string{
	features.IPLiteral,
	features.AtCount,
	features.NoHTTPS,
	features.Punycode,
	features.KeywordLogin,
	features.KeywordVerify,
	features.KeywordSecure,
	features.KeywordAccount,
	features.KeywordUpdate,
	features.NonstandardPort,
	features.EmbeddedBrand,
}

// candidate is a triggered feature waiting to be ranked.
type candidate struct {
	name     string
	value    float64
	score    float64
	position int
}

// Explain returns at most topK reasons for vec, most significant first.
//
// With non-empty importances, triggered features are ranked by
// value x importance and features with a non-positive product are dropped.
// With nil or empty importances the heuristic priority order is used.
// The result is never nil; it is empty when nothing triggers or topK <= 0.
func Explain(vec model.FeatureVector, importances map[string]float64, topK int) []model.Reason {
	reasons := []model.Reason{}
	if topK <= 0 {
		return reasons
	}

	var candidates []candidate
	if len(importances) > 0 {
		candidates = rankByImportance(vec, importances)
	} else {
		candidates = rankByPriority(vec)
	}

	for _, c := range candidates {
		if len(reasons) == topK {
			break
		}
		reasons = append(reasons, model.Reason{
			Feature:  c.name,
			Message:  Describe(c.name, c.value),
			Score:    c.score,
			Severity: SeverityOf(c.name),
		})
	}
	return reasons
}

// Messages returns only the messages of reasons, in order.
func Messages(reasons []model.Reason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = r.Message
	}
	return out
}

func rankByImportance(vec model.FeatureVector, importances map[string]float64) []candidate {
	var out []candidate
	for i, f := range vec {
		if !Triggered(f.Name, f.Value) {
			continue
		}
		score := f.Value * importances[f.Name]
		if score <= 0 {
			continue
		}
		out = append(out, candidate{name: f.Name, value: f.Value, score: score, position: i})
	}

	slices.SortStableFunc(out, func(a, b candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return a.position - b.position
		}
	})
	return out
}

func rankByPriority(vec model.FeatureVector) []candidate {
	n := len(heuristicPriority)
	var out []candidate
	for i, f := range vec {
		if !Triggered(f.Name, f.Value) {
			continue
		}
		rank := slices.Index(heuristicPriority, f.Name)
		if rank < 0 {
			rank = n + i
		}
		out = append(out, candidate{
			name:     f.Name,
			value:    f.Value,
			score:    float64(n + len(vec) - rank),
			position: rank,
		})
	}

	slices.SortStableFunc(out, func(a, b candidate) int {
		return a.position - b.position
	})
	return out
}
