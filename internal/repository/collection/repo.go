package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gutwell/ragcore/internal/db"
	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
)

// store is the consumer interface for collections (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements usecase/collection.Repository.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Create stores a collection: HSET metadata then FT.CREATE the chunk index.
// On FT.CREATE failure, rolls back the HSET via DEL.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	name := col.Name()

	metaKey := metaKey(name)
	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("%w: check exists: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	indexDef := buildIndex(name, col.VectorDim(), r.hnsw)
	hashData := collectionToHash(col)

	if err := r.store.HSet(ctx, metaKey, hashData); err != nil {
		return fmt.Errorf("%w: hset collection %s: %w", domain.ErrIndexUnavailable, name, err)
	}

	// FT.CREATE -- rollback HSET on error
	if err := r.store.CreateIndex(ctx, indexDef); err != nil {
		cleanupErr := r.store.Del(ctx, metaKey)
		return errors.Join(err, cleanupErr)
	}

	return nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, metaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("%w: hgetall collection %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrNotFound
	}

	return collectionFromHash(m)
}

// List returns all collections sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("%w: scan collections: %w", domain.ErrIndexUnavailable, err)
	}
	if len(keys) == 0 {
		return []domcol.Collection{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: hgetall multi collections: %w", domain.ErrIndexUnavailable, err)
	}

	collections := make([]domcol.Collection, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		col, err := collectionFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", keys[i], err)
		}
		collections = append(collections, col)
	}

	sort.Slice(collections, func(i, j int) bool {
		return collections[i].CreatedAt() < collections[j].CreatedAt()
	})

	return collections, nil
}

// Delete removes a collection: backup metadata, DEL hash, FT.DROPINDEX
// (rollback HSET on error). Chunk entries are removed separately by the
// chunk repository.
func (r *Repo) Delete(ctx context.Context, name string) error {
	metaKey := metaKey(name)

	metaBackup, err := r.store.HGetAll(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("%w: hgetall collection %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	if len(metaBackup) == 0 {
		return domain.ErrNotFound
	}

	idxExists, err := r.store.IndexExists(ctx, indexName(name))
	if err != nil {
		return fmt.Errorf("%w: check index exists: %w", domain.ErrIndexUnavailable, err)
	}
	if !idxExists {
		return domain.ErrNotFound
	}

	if err := r.store.Del(ctx, metaKey); err != nil {
		return fmt.Errorf("%w: del collection %s: %w", domain.ErrIndexUnavailable, name, err)
	}

	// FT.DROPINDEX -- rollback HSET on error
	if err := r.store.DropIndex(ctx, indexName(name)); err != nil {
		cleanupErr := r.store.HSet(ctx, metaKey, metaBackup)
		return errors.Join(err, cleanupErr)
	}

	return nil
}

// Redis key patterns: ragcore:collection:{name}, ragcore:{name}:idx, ragcore:{name}:chunk:{id}

func metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}
