package retrieve

import (
	"testing"

	"github.com/gutwell/ragcore/internal/domain/chunk"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
)

func makeResult(id, content string, distance float64) retrieval.Result {
	return retrieval.New(id, content, chunk.Meta{DocumentID: "doc"}, distance)
}

func TestSelectDiverse_DropsBelowMinRelevance(t *testing.T) {
	candidates := []retrieval.Result{
		makeResult("a", "creatine improves strength", 0.2), // relevance 0.8
		makeResult("b", "vitamin d and bone density", 0.6), // relevance 0.4
	}

	selected := selectDiverse(candidates, 5, 0.5, 0.7)
	if len(selected) != 1 || selected[0].ChunkID() != "a" {
		t.Errorf("expected only the relevant candidate, got %v", ids(selected))
	}
}

func TestSelectDiverse_SkipsNearDuplicates(t *testing.T) {
	candidates := []retrieval.Result{
		makeResult("a", "creatine improves strength and power output", 0.1),
		makeResult("b", "creatine improves strength and power output greatly", 0.2),
		makeResult("c", "magnesium supports sleep quality", 0.3),
	}

	selected := selectDiverse(candidates, 5, 0.5, 0.7)
	got := ids(selected)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("expected [a c], got %v", got)
	}
}

func TestSelectDiverse_RespectsMaxChunks(t *testing.T) {
	candidates := []retrieval.Result{
		makeResult("a", "alpha text one", 0.1),
		makeResult("b", "beta text two", 0.2),
		makeResult("c", "gamma text three", 0.3),
	}

	selected := selectDiverse(candidates, 2, 0.1, 0.7)
	if len(selected) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(selected))
	}
}

func TestSelectDiverse_KeepsRelevanceOrder(t *testing.T) {
	candidates := []retrieval.Result{
		makeResult("a", "alpha text", 0.1),
		makeResult("b", "beta text", 0.2),
	}

	selected := selectDiverse(candidates, 5, 0.5, 0.7)
	if len(selected) != 2 || selected[0].ChunkID() != "a" {
		t.Errorf("order not preserved: %v", ids(selected))
	}
}

func TestSelectDiverse_Empty(t *testing.T) {
	if got := selectDiverse(nil, 5, 0.5, 0.7); len(got) != 0 {
		t.Errorf("expected empty selection, got %v", ids(got))
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "one two three", "one two three", 1},
		{"disjoint", "one two", "three four", 0},
		{"half overlap", "one two three", "two three four", 0.5},
		{"case insensitive via wordSet", "One TWO", "one two", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(wordSet(tt.a), wordSet(tt.b))
			if got != tt.want {
				t.Errorf("jaccard(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestJaccard_EmptySetsAreIdentical(t *testing.T) {
	if got := jaccard(wordSet(""), wordSet("")); got != 1 {
		t.Errorf("expected 1 for two empty sets, got %f", got)
	}
}

func ids(results []retrieval.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ChunkID()
	}
	return out
}
