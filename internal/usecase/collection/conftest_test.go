package collection

import (
	"context"
	"testing"

	domcol "github.com/gutwell/ragcore/internal/domain/collection"
)

// mockRepo implements Repository for tests.
type mockRepo struct {
	createFn func(ctx context.Context, col domcol.Collection) error
	getFn    func(ctx context.Context, name string) (domcol.Collection, error)
	listFn   func(ctx context.Context) ([]domcol.Collection, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockRepo) Create(ctx context.Context, col domcol.Collection) error {
	if m.createFn != nil {
		return m.createFn(ctx, col)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.New(name, "", 8)
}

func (m *mockRepo) List(ctx context.Context) ([]domcol.Collection, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

// mockChunkRepo implements ChunkRepository for tests.
type mockChunkRepo struct {
	countFn     func(ctx context.Context, collectionName string) (int, error)
	statsFn     func(ctx context.Context, collectionName string) (domcol.Stats, error)
	deleteAllFn func(ctx context.Context, collectionName string) error
}

func (m *mockChunkRepo) Count(ctx context.Context, collectionName string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collectionName)
	}
	return 0, nil
}

func (m *mockChunkRepo) Stats(ctx context.Context, collectionName string) (domcol.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, collectionName)
	}
	return domcol.Stats{}, nil
}

func (m *mockChunkRepo) DeleteAll(ctx context.Context, collectionName string) error {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, collectionName)
	}
	return nil
}

// mockLocker records lock traffic for tests.
type mockLocker struct {
	locks   []string
	unlocks []string
}

func (m *mockLocker) Lock(name string)   { m.locks = append(m.locks, name) }
func (m *mockLocker) Unlock(name string) { m.unlocks = append(m.unlocks, name) }

func newTestService(t *testing.T) (*Service, *mockRepo, *mockChunkRepo, *mockLocker) {
	t.Helper()
	repo := &mockRepo{}
	chunks := &mockChunkRepo{}
	locks := &mockLocker{}
	return New(repo, chunks, locks, 1536), repo, chunks, locks
}
