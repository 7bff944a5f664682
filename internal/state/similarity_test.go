package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityReflexive(t *testing.T) {
	for _, name := range []string{"API Gateway", "x", "Hebrew Speaking Evaluation MVP"} {
		assert.InDelta(t, 1.0, Similarity(name, name), 1e-9, "name %q", name)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"API Gateway", "API Gateway v2"},
		{"frontend", "backend"},
		{"Hebrew Speaking Evaluation MVP", "Hebrew Evaluation MVP"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestSimilarityNormalization(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("My Project", "  my   PROJECT  "), 1e-9)
}

func TestSimilarityEmptyInputs(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", "   "))
	assert.Equal(t, 0.0, Similarity("", "something"))
	assert.Equal(t, 0.0, Similarity("something", ""))
}

func TestSimilarityNearDuplicateScoresHigh(t *testing.T) {
	score := Similarity("Hebrew Speaking Evaluation MVP", "Hebrew Evaluation MVP")
	assert.GreaterOrEqual(t, score, DefaultThreshold)
	assert.Less(t, score, 1.0)
}

func TestSimilarityUnrelatedScoresLow(t *testing.T) {
	score := Similarity("payments service", "mobile onboarding redesign")
	assert.Less(t, score, DefaultThreshold)
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"short", "a much longer project name than the first"},
		{"same", "same"},
	}
	for _, p := range pairs {
		score := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestLongestCommonSubsequence(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 3},
		{"abc", "xyz", 0},
		{"abcde", "ace", 3},
		{"", "abc", 0},
	}
	for _, tc := range cases {
		got := longestCommonSubsequence([]rune(tc.a), []rune(tc.b))
		assert.Equal(t, tc.want, got, "%q vs %q", tc.a, tc.b)
	}
}
