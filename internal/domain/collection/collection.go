package collection

import (
	"fmt"
	"regexp"
	"time"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Collection is a named knowledge base: a durable namespace of chunk entries
// sharing one embedding dimension (immutable value object).
type Collection struct {
	name        string
	description string
	vectorDim   int
	createdAt   int64
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. VectorDim: > 0, fixed for the
// collection's lifetime (set by the embedding model in use).
func New(name, description string, vectorDim int) (Collection, error) {
	if name == "" {
		return Collection{}, fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return Collection{}, fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return Collection{}, fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	if vectorDim <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive")
	}

	return Collection{
		name:        name,
		description: description,
		vectorDim:   vectorDim,
		createdAt:   time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name, description string, vectorDim int, createdAt int64) Collection {
	return Collection{name: name, description: description, vectorDim: vectorDim, createdAt: createdAt}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Description returns the free-text description.
func (c Collection) Description() string { return c.description }

// VectorDim returns the embedding dimension established for this collection.
func (c Collection) VectorDim() int { return c.vectorDim }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// Stats summarizes collection contents.
type Stats struct {
	TotalChunks  int
	Sources      map[string]int
	ContentTypes map[string]int
}
