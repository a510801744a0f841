package search

import (
	"context"
	"errors"
	"testing"

	"github.com/gutwell/ragcore/internal/db"
	"github.com/gutwell/ragcore/internal/domain"
)

// mockSearcher implements the consumer interface for tests.
type mockSearcher struct {
	searchKNNFn func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockSearcher) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func chunkFields(content string) map[string]string {
	return map[string]string{
		"content":      content,
		"document_id":  "doc1",
		"source":       "examine",
		"title":        "Creatine",
		"content_type": "article",
		"chunk_index":  "0",
		"total_chunks": "1",
	}
}

func TestKNN_BuildsQuery(t *testing.T) {
	ms := &mockSearcher{}
	var got *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{}, nil
	}

	repo := New(ms)
	_, err := repo.KNN(context.Background(), "articles", []float32{1, 2}, 10, Filter{Source: "examine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IndexName != "ragcore:articles:idx" {
		t.Errorf("unexpected index %q", got.IndexName)
	}
	if got.K != 10 {
		t.Errorf("expected k=10, got %d", got.K)
	}
	if got.Filter["source"] != "examine" {
		t.Errorf("source filter not set: %v", got.Filter)
	}
	if len(got.ReturnFields) == 0 {
		t.Error("return fields not requested")
	}
}

func TestKNN_RequestsScoreField(t *testing.T) {
	ms := &mockSearcher{}
	var got *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{}, nil
	}

	repo := New(ms)
	if _, err := repo.KNN(context.Background(), "articles", []float32{1}, 5, Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// RETURN makes the server send only the listed fields, so the distance
	// pseudo-field must be on the list or every hit comes back with
	// distance zero and full relevance.
	found := false
	for _, f := range got.ReturnFields {
		if f == "__vector_score" {
			found = true
		}
	}
	if !found {
		t.Errorf("score field missing from return fields: %v", got.ReturnFields)
	}
}

func TestKNN_NoFilter(t *testing.T) {
	ms := &mockSearcher{}
	var got *db.KNNQuery
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{}, nil
	}

	repo := New(ms)
	if _, err := repo.KNN(context.Background(), "articles", []float32{1}, 5, Filter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Filter != nil {
		t.Errorf("expected nil filter, got %v", got.Filter)
	}
}

func TestKNN_HydratesResults(t *testing.T) {
	ms := &mockSearcher{}
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{
			Total: 2,
			Entries: []db.SearchEntry{
				{Key: "ragcore:articles:chunk:doc1_0", Distance: 0.1, Fields: chunkFields("close")},
				{Key: "ragcore:articles:chunk:doc1_1", Distance: 0.6, Fields: chunkFields("far")},
			},
		}, nil
	}

	repo := New(ms)
	results, err := repo.KNN(context.Background(), "articles", []float32{1}, 5, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ChunkID() != "doc1_0" {
		t.Errorf("key prefix not stripped: %q", results[0].ChunkID())
	}
	if results[0].Content() != "close" {
		t.Errorf("content mismatch: %q", results[0].Content())
	}
	if rel := results[0].Relevance(); rel < 0.89 || rel > 0.91 {
		t.Errorf("expected relevance 0.9, got %f", rel)
	}
	if results[0].Meta().Source != "examine" {
		t.Errorf("meta not hydrated: %+v", results[0].Meta())
	}
}

func TestKNN_StoreError(t *testing.T) {
	ms := &mockSearcher{}
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("ft.search failed")
	}

	repo := New(ms)
	_, err := repo.KNN(context.Background(), "articles", []float32{1}, 5, Filter{})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}
