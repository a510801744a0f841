package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	// Vector derived from the text so order is observable.
	return EmbeddingResult{
		Embedding:    []float32{float32(len(text))},
		PromptTokens: 2,
		TotalTokens:  3,
	}, nil
}

func TestBatchFallback_PreservesOrder(t *testing.T) {
	e := &stubEmbedder{}
	texts := []string{"a", "bb", "ccc"}

	res, err := BatchFallback(context.Background(), e, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.calls != 3 {
		t.Errorf("expected 3 calls, got %d", e.calls)
	}
	for i, text := range texts {
		if res.Embeddings[i][0] != float32(len(text)) {
			t.Errorf("embedding %d out of order", i)
		}
	}
	if res.PromptTokens != 6 || res.TotalTokens != 9 {
		t.Errorf("token usage not aggregated: %+v", res)
	}
}

func TestBatchFallback_Error(t *testing.T) {
	innerErr := fmt.Errorf("%w: boom", ErrModelUnavailable)
	e := &stubEmbedder{err: innerErr}

	_, err := BatchFallback(context.Background(), e, []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestBatchFallback_Empty(t *testing.T) {
	e := &stubEmbedder{}
	res, err := BatchFallback(context.Background(), e, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 0 {
		t.Errorf("expected no embeddings, got %d", len(res.Embeddings))
	}
}
