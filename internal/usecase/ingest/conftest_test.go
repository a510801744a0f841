package ingest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
	domdoc "github.com/gutwell/ragcore/internal/domain/document"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
)

const testVectorDim = 4

// mockCollections implements CollectionReader for tests.
type mockCollections struct {
	getFn func(ctx context.Context, name string) (domcol.Collection, error)
}

func (m *mockCollections) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Reconstruct(name, "", testVectorDim, 1), nil
}

// mockChunkRepo records upserts for tests. Safe for concurrent workers.
type mockChunkRepo struct {
	mu          sync.Mutex
	upserts     [][]chunkrepo.Entry
	upsertFn    func(ctx context.Context, collectionName string, entries []chunkrepo.Entry) error
	deleteAllFn func(ctx context.Context, collectionName string) error
	deletedAll  []string
}

func (m *mockChunkRepo) UpsertBatch(ctx context.Context, collectionName string, entries []chunkrepo.Entry) error {
	m.mu.Lock()
	m.upserts = append(m.upserts, entries)
	m.mu.Unlock()
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collectionName, entries)
	}
	return nil
}

func (m *mockChunkRepo) DeleteAll(ctx context.Context, collectionName string) error {
	m.mu.Lock()
	m.deletedAll = append(m.deletedAll, collectionName)
	m.mu.Unlock()
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, collectionName)
	}
	return nil
}

// mockEmbedder returns fixed-dimension vectors unless overridden.
type mockEmbedder struct {
	mu           sync.Mutex
	calls        int
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.batchEmbedFn != nil {
		return m.batchEmbedFn(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, testVectorDim)
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts)}, nil
}

// mockLocker records lock traffic. Safe for concurrent workers.
type mockLocker struct {
	mu       sync.Mutex
	locks    []string
	unlocks  []string
	rlocks   []string
	runlocks []string
}

func (m *mockLocker) Lock(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = append(m.locks, name)
}

func (m *mockLocker) Unlock(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocks = append(m.unlocks, name)
}

func (m *mockLocker) RLock(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rlocks = append(m.rlocks, name)
}

func (m *mockLocker) RUnlock(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runlocks = append(m.runlocks, name)
}

func newTestService(t *testing.T) (*Service, *mockChunkRepo, *mockEmbedder, *mockLocker) {
	t.Helper()
	chunks := &mockChunkRepo{}
	embedder := &mockEmbedder{}
	locks := &mockLocker{}
	svc := New(&mockCollections{}, chunks, embedder, locks, zap.NewNop())
	return svc, chunks, embedder, locks
}

// makeDoc builds a document with enough words to produce nWindows chunks
// under a 10-word window with no overlap.
func makeDoc(t *testing.T, id string, nWindows int) domdoc.Document {
	t.Helper()
	words := make([]string, nWindows*10)
	for i := range words {
		words[i] = "word"
	}
	doc, err := domdoc.New(id, "Title", strings.Join(words, " "), "examine", "", "", "", nil, "")
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	return doc
}
