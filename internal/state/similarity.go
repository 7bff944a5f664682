package state

import "strings"

// Similarity scores how alike two project names are, in [0, 1]. The score is
// symmetric, reflexive (identical names score 1) and insensitive to case and
// surrounding whitespace. The metric is a longest-common-subsequence ratio
// over the normalized names: 2*LCS / (len(a) + len(b)).
func Similarity(a, b string) float64 {
	ra := []rune(normalizeName(a))
	rb := []rune(normalizeName(b))

	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	lcs := longestCommonSubsequence(ra, rb)
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// longestCommonSubsequence uses the classic DP with two rolling rows, so
// memory stays O(min-side) even for long names.
func longestCommonSubsequence(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
