// Package similarity scores how alike two pieces of task text are.
//
// Two signals are available: character-level edit distance for fuzzy
// matching of short strings, and token-set (Jaccard) similarity for
// comparing titles and descriptions. Both produce scores in [0,1].
package similarity

import (
	"sort"

	"github.com/taskdot/taskdot/internal/task"
	"github.com/taskdot/taskdot/internal/textnorm"
)

// LevenshteinDistance returns the edit distance between a and b with unit
// cost for insert, delete, and substitute. Standard two-row DP.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

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
			curr[j] = min3(
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// FuzzyScore converts edit distance into a [0,1] score:
// 1 - distance/max(len(a), len(b)). Two empty strings score 1.0.
func FuzzyScore(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	return 1.0 - float64(LevenshteinDistance(a, b))/float64(longest)
}

// JaccardSimilarity returns |intersection| / |union| of two token sets.
// Two empty sets score 0, not 1: empty text must never look like a match.
func JaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Score is the primary cross-text similarity: both texts are reduced to
// canonical token sets (stemmed, synonym-folded), then compared with
// Jaccard. Folding makes "Fix login bug" and "Fix login issue" identical
// rather than a partial overlap.
func Score(textA, textB string) float64 {
	return JaccardSimilarity(
		textnorm.CanonicalTokens(textA),
		textnorm.CanonicalTokens(textB),
	)
}

// CombineSearchResults merges two ranked result lists keyed by task ID.
//
// IDs present in both lists get the weighted combination
// primaryWeight*primary + (1-primaryWeight)*fuzzy; IDs present in only one
// list keep that list's score unweighted. The merged list is deduplicated
// by ID and sorted by descending score; equal scores keep primary-list
// order first, then fuzzy-list order (stable).
func CombineSearchResults(primary, fuzzy []task.SimilarityResult, primaryWeight float64) []task.SimilarityResult {
	type slot struct {
		result     task.SimilarityResult
		inPrimary  bool
		inFuzzy    bool
		fuzzyScore float64
	}

	order := make([]string, 0, len(primary)+len(fuzzy))
	byID := make(map[string]*slot, len(primary)+len(fuzzy))

	for _, r := range primary {
		if _, ok := byID[r.ID]; ok {
			continue
		}
		byID[r.ID] = &slot{result: r, inPrimary: true}
		order = append(order, r.ID)
	}
	for _, r := range fuzzy {
		if s, ok := byID[r.ID]; ok {
			if !s.inFuzzy {
				s.inFuzzy = true
				s.fuzzyScore = r.Similarity
			}
			continue
		}
		byID[r.ID] = &slot{result: r, inFuzzy: true, fuzzyScore: r.Similarity}
		order = append(order, r.ID)
	}

	out := make([]task.SimilarityResult, 0, len(order))
	for _, id := range order {
		s := byID[id]
		r := s.result
		if s.inPrimary && s.inFuzzy {
			r.Similarity = primaryWeight*r.Similarity + (1-primaryWeight)*s.fuzzyScore
		} else if s.inFuzzy && !s.inPrimary {
			r.Similarity = s.fuzzyScore
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}
