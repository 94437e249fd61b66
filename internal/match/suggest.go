package match

import (
	"cmp"
	"slices"
)

// DefaultMinScore is the similarity Suggest requires by default.
const DefaultMinScore = 0.6

// ambiguityGap is the score margin the best candidate needs over the
// runner-up to be suggested alone.
const ambiguityGap = 0.05

// Candidate is a known name scored against a query.
type Candidate struct {
	Name  string
	Score float64
}

// Candidates is ordered best first.
type Candidates []Candidate

// Rank scores every name against query. Ties keep alphabetical order.
func Rank(query string, names []string) Candidates {
	folded := Fold(query)

	out := make(Candidates, 0, len(names))
	for _, name := range names {
		out = append(out, Candidate{Name: name, Score: Similarity(folded, Fold(name))})
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}

// Best returns the first candidate, or false when there is none.
func (c Candidates) Best() (Candidate, bool) {
	if len(c) == 0 {
		return Candidate{}, false
	}

	return c[0], true
}

// Confident returns the best candidate when it scores at least minScore and
// clearly beats the runner-up.
func (c Candidates) Confident(minScore float64) (Candidate, bool) {
	best, ok := c.Best()
	if !ok || best.Score < minScore {
		return Candidate{}, false
	}

	if len(c) > 1 && best.Score-c[1].Score < ambiguityGap {
		return Candidate{}, false
	}

	return best, true
}

// Suggest returns the name closest to query if it is close enough and
// unambiguous. An exact match of query itself is never suggested.
func Suggest(query string, names []string) (string, bool) {
	names = slices.DeleteFunc(slices.Clone(names), func(n string) bool {
		return n == query
	})

	best, ok := Rank(query, names).Confident(DefaultMinScore)
	if !ok {
		return "", false
	}

	return best.Name, true
}
