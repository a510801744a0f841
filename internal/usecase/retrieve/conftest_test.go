package retrieve

import (
	"context"
	"testing"

	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
	searchrepo "github.com/gutwell/ragcore/internal/repository/search"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	knnFn func(ctx context.Context, collectionName string, vector []float32, k int, filter searchrepo.Filter) ([]retrieval.Result, error)
}

func (m *mockRepo) KNN(
	ctx context.Context, collectionName string, vector []float32, k int, filter searchrepo.Filter,
) ([]retrieval.Result, error) {
	if m.knnFn != nil {
		return m.knnFn(ctx, collectionName, vector, k, filter)
	}
	return nil, nil
}

// mockCollections implements CollectionReader for tests.
type mockCollections struct {
	getFn func(ctx context.Context, name string) (domcol.Collection, error)
}

func (m *mockCollections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Reconstruct(name, "", 4, 1), nil
}

// mockEmbedder implements Embedder for tests.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 2, 3, 4}}, nil
}

// mockLocker records lock traffic for tests.
type mockLocker struct {
	rlocks   []string
	runlocks []string
}

func (m *mockLocker) RLock(name string)   { m.rlocks = append(m.rlocks, name) }
func (m *mockLocker) RUnlock(name string) { m.runlocks = append(m.runlocks, name) }

func newTestService(t *testing.T) (*Service, *mockRepo, *mockCollections, *mockEmbedder, *mockLocker) {
	t.Helper()
	repo := &mockRepo{}
	colls := &mockCollections{}
	embed := &mockEmbedder{}
	locks := &mockLocker{}
	return New(repo, colls, embed, locks, Config{}), repo, colls, embed, locks
}
