// Package keywords normalizes free text into word tokens and extracts the most
// frequent ones.
//
// Extraction is a plain bag-of-words count. It knows nothing about sentiment:
// callers that want per-sentiment keyword lists partition their texts first
// and call TopWords once per partition.
package keywords

import (
	"cmp"
	"slices"

	"github.com/spacesedan/sentireport/internal/models"
)

const DEFAULT_TOP_N = 10

// TopWords returns at most n (word, count) pairs over the normalized tokens of
// texts, ordered by count descending. Words with equal counts keep the order in
// which they first appeared. n <= 0 selects DEFAULT_TOP_N.
func TopWords(texts []string, n int, stops *Stoplist) []models.KeywordCount {
	if n <= 0 {
		n = DEFAULT_TOP_N
	}

	tokens := Normalize(texts, stops)
	if len(tokens) == 0 {
		return []models.KeywordCount{}
	}

	index := make(map[string]int, len(tokens))
	counts := make([]models.KeywordCount, 0, len(tokens))
	for _, tok := range tokens {
		if i, ok := index[tok]; ok {
			counts[i].Count++
			continue
		}
		index[tok] = len(counts)
		counts = append(counts, models.KeywordCount{Word: tok, Count: 1})
	}

	slices.SortStableFunc(counts, func(a, b models.KeywordCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
