package embcache

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/db"
	"github.com/gutwell/ragcore/internal/domain"
)

// mockEmbedder implements the inner embedder contract for tests.
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
	return domain.EmbeddingResult{Embedding: []float32{1, 2, 3}, TotalTokens: 7}, nil
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
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts)}, nil
}

// mockKVStore is an in-memory key-value store for cache tests.
type mockKVStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func newTestCachedEmbedder(t *testing.T) (*CachedEmbedder, *mockEmbedder, *mockKVStore) {
	t.Helper()
	inner := &mockEmbedder{}
	kv := newMockKVStore()
	return New(inner, kv, "text-embedding-3-small", nil, zap.NewNop()), inner, kv
}
