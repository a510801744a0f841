// Package retrieval holds the per-query result value objects.
package retrieval

import "github.com/gutwell/ragcore/internal/domain/chunk"

// Result is a single retrieved chunk with its similarity scores.
// Ephemeral, produced per query.
type Result struct {
	chunkID   string
	content   string
	meta      chunk.Meta
	distance  float64
	relevance float64
}

// New creates a Result from a raw cosine distance. Relevance is
// 1 - distance clamped to [0,1]: cosine distance lives in [0,2], and
// anything past 1 is treated as fully irrelevant rather than negative.
func New(chunkID, content string, meta chunk.Meta, distance float64) Result {
	relevance := 1 - distance
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 1 {
		relevance = 1
	}
	return Result{
		chunkID:   chunkID,
		content:   content,
		meta:      meta,
		distance:  distance,
		relevance: relevance,
	}
}

// ChunkID returns the retrieved chunk identifier.
func (r Result) ChunkID() string { return r.chunkID }

// Content returns the chunk text.
func (r Result) Content() string { return r.content }

// Meta returns the chunk metadata (source, title, author, position).
func (r Result) Meta() chunk.Meta { return r.meta }

// Distance returns the raw cosine distance (0 = identical).
func (r Result) Distance() float64 { return r.distance }

// Relevance returns 1 - distance clamped to [0,1] (1 = most relevant).
func (r Result) Relevance() float64 { return r.relevance }
