package retrieve

import (
	"strings"

	"github.com/gutwell/ragcore/internal/domain/retrieval"
)

// selectDiverse walks candidates in relevance order and greedily keeps those
// that are not near-duplicates of anything already kept. Similarity is word
// overlap (Jaccard over lowercased word sets): cheap, and effective against
// the main duplicate source, overlapping windows of the same document.
func selectDiverse(candidates []retrieval.Result, maxChunks int, minRelevance, diversityThreshold float64) []retrieval.Result {
	selected := make([]retrieval.Result, 0, maxChunks)
	kept := make([]map[string]struct{}, 0, maxChunks)

	for _, cand := range candidates {
		if len(selected) >= maxChunks {
			break
		}
		if cand.Relevance() < minRelevance {
			continue
		}

		words := wordSet(cand.Content())
		duplicate := false
		for _, prev := range kept {
			if jaccard(words, prev) > diversityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		selected = append(selected, cand)
		kept = append(kept, words)
	}

	return selected
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard computes |a∩b| / |a∪b|. Two empty sets count as identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
