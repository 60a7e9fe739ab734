package ui

import (
	"sort"
	"strings"
)

// MaxSuggestions bounds the result of Suggest
const MaxSuggestions = 3

// Suggest returns up to MaxSuggestions candidates close to target, closest
// first. A candidate is close when its case-insensitive edit distance is at
// most a quarter of its length, or when it ends with "_"+target.
func Suggest(target string, candidates []string) []string {
	type match struct {
		value    string
		distance int
	}

	lower := strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lower != "" && strings.HasSuffix(lc, "_"+lower) {
			matches = append(matches, match{c, 0})
			continue
		}
		if d := levenshtein(lower, lc); d <= len(c)/4 {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var out []string
	for i := 0; i < len(matches) && i < MaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// levenshtein returns the edit distance between a and b
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
