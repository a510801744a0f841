package embedding

import (
	"context"

	"github.com/gutwell/ragcore/internal/domain"
)

// mockEmbedder implements both single and batch embedding for tests.
type mockEmbedder struct {
	embedFn      func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	embedCalls   int
	batchCalls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.batchEmbedFn != nil {
		return m.batchEmbedFn(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i)}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

// singleOnlyEmbedder has no batch endpoint.
type singleOnlyEmbedder struct {
	embedCalls int
}

func (s *singleOnlyEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.embedCalls++
	return domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 1}, nil
}
