package collection

import (
	"context"

	domcol "github.com/gutwell/ragcore/internal/domain/collection"
)

// Repository defines the storage contract for collection metadata and
// its FT index.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// ChunkRepository defines the chunk storage operations the collection
// service needs for clear and stats.
type ChunkRepository interface {
	Count(ctx context.Context, collectionName string) (int, error)
	Stats(ctx context.Context, collectionName string) (domcol.Stats, error)
	DeleteAll(ctx context.Context, collectionName string) error
}

// Locker serializes destructive collection operations against concurrent
// queries and ingests.
type Locker interface {
	Lock(name string)
	Unlock(name string)
}
