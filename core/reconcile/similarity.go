package reconcile

import "math"

const (
	// ExactMatchSentinel is the score an oracle must exceed to report two records
	// as identical. A score of exactly 1.0 is still a fuzzy match.
	ExactMatchSentinel = 1.0

	// DefaultMatchThreshold is the score a fuzzy match must exceed to be accepted.
	DefaultMatchThreshold = 0.4

	// strictIdentityScore is what StrictSimilarity returns for identical records.
	strictIdentityScore = 1.01
)

// Similarity compares two records and returns a score. Scores above
// ExactMatchSentinel mean identical content; scores in [0, 1] measure partial
// overlap. Implementations must be deterministic and must not fail.
type Similarity func(a, b Record) float64

// StrictSimilarity is the default oracle. It returns the fraction of fields
// (including the type tag and citation key) that hold equal values in both
// records, or 1.01 when every field agrees.
func StrictSimilarity(a, b Record) float64 {
	union := make(map[string]struct{}, len(a.Fields)+len(b.Fields)+2)
	for name := range a.Fields {
		union[name] = struct{}{}
	}
	for name := range b.Fields {
		union[name] = struct{}{}
	}

	score := 0
	for name := range union {
		va, oka := a.Field(name)
		vb, okb := b.Field(name)
		if oka == okb && va == vb {
			score++
		}
	}

	total := len(union)
	if a.Type != "" || b.Type != "" {
		total++
		if a.Type == b.Type {
			score++
		}
	}
	if a.Key != "" || b.Key != "" {
		total++
		if a.Key == b.Key {
			score++
		}
	}

	if score == total {
		return strictIdentityScore
	}
	return float64(score) / float64(total)
}

// scorer wraps an oracle and enforces its contract.
type scorer struct {
	fn Similarity
}

func (s scorer) score(a, b Record) (float64, error) {
	v := s.fn(a, b)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, invariantf("similarity oracle returned %v", v)
	}
	return v, nil
}

func isExact(score float64) bool {
	return score > ExactMatchSentinel
}
