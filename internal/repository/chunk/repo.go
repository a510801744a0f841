// Package chunk persists embedded chunks as Redis hashes under the
// collection's FT index prefix.
package chunk

import (
	"context"
	"fmt"

	"github.com/gutwell/ragcore/internal/db"
	"github.com/gutwell/ragcore/internal/domain"
	domchunk "github.com/gutwell/ragcore/internal/domain/chunk"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
)

// statsSampleLimit caps how many entries Stats inspects for the
// metadata distribution.
const statsSampleLimit = 1000

// deleteBatchSize bounds a single DEL command during DeleteAll.
const deleteBatchSize = 500

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Entry pairs a chunk with its embedding for persistence.
type Entry struct {
	Chunk  domchunk.Chunk
	Vector []float32
}

// Repo implements the chunk persistence contract for the ingest and
// collection services.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// UpsertBatch writes all entries in one pipelined round-trip. A colliding
// chunk ID overwrites the previous entry. All chunks of one document are
// expected to arrive in a single batch.
func (r *Repo) UpsertBatch(ctx context.Context, collectionName string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(entries))
	for i, e := range entries {
		items[i] = db.HashSetItem{
			Key:    chunkKey(collectionName, e.Chunk.ID()),
			Fields: entryToHash(e),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: hset chunks %s: %w", domain.ErrIndexUnavailable, collectionName, err)
	}
	return nil
}

// Get returns a single chunk with its vector, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, collectionName, chunkID string) (domchunk.Chunk, []float32, error) {
	m, err := r.store.HGetAll(ctx, chunkKey(collectionName, chunkID))
	if err != nil {
		return domchunk.Chunk{}, nil, fmt.Errorf("%w: hgetall chunk %s: %w", domain.ErrIndexUnavailable, chunkID, err)
	}
	if len(m) == 0 {
		return domchunk.Chunk{}, nil, domain.ErrNotFound
	}
	return entryFromHash(chunkID, m)
}

// Count returns the number of chunks in a collection.
func (r *Repo) Count(ctx context.Context, collectionName string) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(collectionName), "*")
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks %s: %w", domain.ErrIndexUnavailable, collectionName, err)
	}
	return n, nil
}

// Stats returns the total chunk count plus per-source and per-content_type
// distributions over a bounded sample of entries.
func (r *Repo) Stats(ctx context.Context, collectionName string) (domcol.Stats, error) {
	total, err := r.Count(ctx, collectionName)
	if err != nil {
		return domcol.Stats{}, err
	}

	stats := domcol.Stats{
		TotalChunks:  total,
		Sources:      map[string]int{},
		ContentTypes: map[string]int{},
	}
	if total == 0 {
		return stats, nil
	}

	sample := total
	if sample > statsSampleLimit {
		sample = statsSampleLimit
	}

	res, err := r.store.SearchList(
		ctx, indexName(collectionName), "*", 0, sample,
		[]string{fieldSource, fieldContentType},
	)
	if err != nil {
		return domcol.Stats{}, fmt.Errorf("%w: stats sample %s: %w", domain.ErrIndexUnavailable, collectionName, err)
	}

	for _, entry := range res.Entries {
		source := entry.Fields[fieldSource]
		if source == "" {
			source = "unknown"
		}
		contentType := entry.Fields[fieldContentType]
		if contentType == "" {
			contentType = "unknown"
		}
		stats.Sources[source]++
		stats.ContentTypes[contentType]++
	}

	return stats, nil
}

// DeleteAll removes every chunk entry of a collection. The FT index picks
// up the deletions automatically (prefix-based index, no rebuild needed).
func (r *Repo) DeleteAll(ctx context.Context, collectionName string) error {
	keys, err := r.store.Scan(ctx, chunkKey(collectionName, "*"))
	if err != nil {
		return fmt.Errorf("%w: scan chunks %s: %w", domain.ErrIndexUnavailable, collectionName, err)
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := r.store.DelMulti(ctx, keys[start:end]); err != nil {
			return fmt.Errorf("%w: del chunks %s: %w", domain.ErrIndexUnavailable, collectionName, err)
		}
	}

	return nil
}

func chunkKey(collection, chunkID string) string {
	return fmt.Sprintf("%s%s:chunk:%s", domain.KeyPrefix, collection, chunkID)
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}
