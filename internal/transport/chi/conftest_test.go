package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
	searchrepo "github.com/gutwell/ragcore/internal/repository/search"
	collectionuc "github.com/gutwell/ragcore/internal/usecase/collection"
	healthuc "github.com/gutwell/ragcore/internal/usecase/health"
	"github.com/gutwell/ragcore/internal/usecase/ingest"
	"github.com/gutwell/ragcore/internal/usecase/retrieve"
)

const testVectorDim = 4

// mockBackend fakes every storage and provider dependency the services need.
type mockBackend struct {
	createColFn func(ctx context.Context, col domcol.Collection) error
	getColFn    func(ctx context.Context, name string) (domcol.Collection, error)
	listColsFn  func(ctx context.Context) ([]domcol.Collection, error)
	deleteColFn func(ctx context.Context, name string) error
	statsFn     func(ctx context.Context, name string) (domcol.Stats, error)
	upsertFn    func(ctx context.Context, name string, entries []chunkrepo.Entry) error
	knnFn       func(ctx context.Context, name string, vector []float32, k int, f searchrepo.Filter) ([]retrieval.Result, error)
	pingErr     error
	embedErr    error
}

func (m *mockBackend) Create(ctx context.Context, col domcol.Collection) error {
	if m.createColFn != nil {
		return m.createColFn(ctx, col)
	}
	return nil
}

func (m *mockBackend) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getColFn != nil {
		return m.getColFn(ctx, name)
	}
	return domcol.Reconstruct(name, "", testVectorDim, 1700000000000), nil
}

func (m *mockBackend) List(ctx context.Context) ([]domcol.Collection, error) {
	if m.listColsFn != nil {
		return m.listColsFn(ctx)
	}
	return nil, nil
}

func (m *mockBackend) Delete(ctx context.Context, name string) error {
	if m.deleteColFn != nil {
		return m.deleteColFn(ctx, name)
	}
	return nil
}

func (m *mockBackend) Count(_ context.Context, _ string) (int, error) { return 0, nil }

func (m *mockBackend) Stats(ctx context.Context, name string) (domcol.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, name)
	}
	return domcol.Stats{}, nil
}

func (m *mockBackend) DeleteAll(_ context.Context, _ string) error { return nil }

func (m *mockBackend) UpsertBatch(ctx context.Context, name string, entries []chunkrepo.Entry) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, name, entries)
	}
	return nil
}

func (m *mockBackend) KNN(
	ctx context.Context, name string, vector []float32, k int, f searchrepo.Filter,
) ([]retrieval.Result, error) {
	if m.knnFn != nil {
		return m.knnFn(ctx, name, vector, k, f)
	}
	return nil, nil
}

func (m *mockBackend) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.embedErr != nil {
		return domain.EmbeddingResult{}, m.embedErr
	}
	return domain.EmbeddingResult{Embedding: make([]float32, testVectorDim)}, nil
}

func (m *mockBackend) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.embedErr != nil {
		return domain.BatchEmbeddingResult{}, m.embedErr
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, testVectorDim)
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

func (m *mockBackend) Ping(_ context.Context) error { return m.pingErr }

func (m *mockBackend) HealthCheck(_ context.Context) error { return m.embedErr }

func (m *mockBackend) Lock(_ string)    {}
func (m *mockBackend) Unlock(_ string)  {}
func (m *mockBackend) RLock(_ string)   {}
func (m *mockBackend) RUnlock(_ string) {}

func newTestServer(t *testing.T) (*httptest.Server, *mockBackend) {
	t.Helper()
	b := &mockBackend{}
	logger := zap.NewNop()

	srv := NewServer(
		collectionuc.New(b, b, b, testVectorDim),
		ingest.New(b, b, b, b, logger),
		retrieve.New(b, b, b, b, retrieve.Config{}),
		healthuc.New(b, b),
		logger,
	)

	r := chi.NewRouter()
	srv.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, b
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
