package retrieve

import (
	"context"

	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
	searchrepo "github.com/gutwell/ragcore/internal/repository/search"
)

// Repository defines the vector search contract.
type Repository interface {
	KNN(ctx context.Context, collectionName string, vector []float32, k int, filter searchrepo.Filter) ([]retrieval.Result, error)
}

// CollectionReader reads collections for existence checks.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Locker takes a shared collection lock for the duration of a query.
type Locker interface {
	RLock(name string)
	RUnlock(name string)
}
