package ingest

import (
	"context"

	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
)

// CollectionReader reads collections for existence and dimension checks.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// ChunkRepository defines the chunk storage operations ingest needs.
type ChunkRepository interface {
	UpsertBatch(ctx context.Context, collectionName string, entries []chunkrepo.Entry) error
	DeleteAll(ctx context.Context, collectionName string) error
}

// Embedder vectorizes chunk texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Locker coordinates ingest with destructive collection operations.
type Locker interface {
	Lock(name string)
	Unlock(name string)
	RLock(name string)
	RUnlock(name string)
}
