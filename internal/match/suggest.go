package match

import (
	"cmp"
	"slices"
)

// MinSimilarity is the score below which Suggest drops a candidate.
const MinSimilarity = 0.5

// Candidate is a name with its similarity to the wanted one.
type Candidate struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name after normalization and returns
// those at or above MinSimilarity, best first. Ties keep input order.
func Rank(name string, candidates []string) []Candidate {
	want := NormalizeIdent(name)

	var out []Candidate

	for _, c := range candidates {
		score := Similarity(want, NormalizeIdent(c))
		if score < MinSimilarity {
			continue
		}

		out = append(out, Candidate{Name: c, Score: score})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return out
}

// Suggest returns at most limit distinct names from candidates that resemble
// name, best first. An exact match of name is never suggested.
func Suggest(name string, candidates []string, limit int) []string {
	var out []string

	for _, c := range Rank(name, candidates) {
		if len(out) == limit {
			break
		}

		if c.Name == name || slices.Contains(out, c.Name) {
			continue
		}

		out = append(out, c.Name)
	}

	return out
}
