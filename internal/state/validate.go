package state

import "sort"

// DefaultThreshold is the similarity score at or above which two project
// names are treated as near-duplicates.
const DefaultThreshold = 0.70

// Match is one near-duplicate candidate found for a proposed project name.
type Match struct {
	Name  string  `json:"existing_name"`
	Score float64 `json:"score"`
}

// FindSimilar returns every existing name whose similarity to candidate is
// at or above threshold, sorted by descending score with ties broken by
// lexicographic name order. A threshold <= 0 falls back to DefaultThreshold.
func FindSimilar(candidate string, existing []string, threshold float64) []Match {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var matches []Match
	for _, name := range existing {
		score := Similarity(candidate, name)
		if score >= threshold {
			matches = append(matches, Match{Name: name, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].Score > matches[j].Score
	})
	return matches
}
