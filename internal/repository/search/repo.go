// Package search runs KNN queries against a collection's chunk index and
// hydrates the hits into retrieval results.
package search

import (
	"context"
	"fmt"

	"github.com/gutwell/ragcore/internal/db"
	"github.com/gutwell/ragcore/internal/domain"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
)

// searcher is the consumer interface for KNN search (ISP).
type searcher interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Filter narrows a KNN query to chunks matching the given tag values.
// Empty fields are ignored.
type Filter struct {
	Source      string
	ContentType string
	DocumentID  string
}

// scoreField is the FT.SEARCH pseudo-field carrying the vector distance.
// It must be requested explicitly: with a RETURN clause the server sends
// only the listed fields.
const scoreField = "__vector_score"

// Repo implements the vector search contract for the retrieve service.
type Repo struct {
	store searcher
}

// New creates a search repository.
func New(s searcher) *Repo {
	return &Repo{store: s}
}

// KNN returns the k nearest chunks to the query vector, ordered by
// ascending distance.
func (r *Repo) KNN(ctx context.Context, collectionName string, vector []float32, k int, filter Filter) ([]retrieval.Result, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collectionName),
		Vector:       vector,
		K:            k,
		Filter:       filter.tags(),
		ReturnFields: append(chunkrepo.ReturnFields(), scoreField),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: knn search %s: %w", domain.ErrIndexUnavailable, collectionName, err)
	}

	results := make([]retrieval.Result, 0, len(res.Entries))
	for _, entry := range res.Entries {
		meta, err := chunkrepo.MetaFromHash(entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("hydrate hit %s: %w", entry.Key, err)
		}
		results = append(results, retrieval.New(
			chunkID(collectionName, entry.Key),
			entry.Fields["content"],
			meta,
			entry.Distance,
		))
	}

	return results, nil
}

func (f Filter) tags() map[string]string {
	tags := map[string]string{}
	if f.Source != "" {
		tags["source"] = f.Source
	}
	if f.ContentType != "" {
		tags["content_type"] = f.ContentType
	}
	if f.DocumentID != "" {
		tags["document_id"] = f.DocumentID
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

// chunkID strips the storage key prefix, returning the bare chunk ID.
func chunkID(collection, key string) string {
	prefix := fmt.Sprintf("%s%s:chunk:", domain.KeyPrefix, collection)
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
