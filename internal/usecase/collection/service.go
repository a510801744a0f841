// Package collection implements collection lifecycle operations.
package collection

import (
	"context"
	"fmt"

	"github.com/gutwell/ragcore/internal/domain"
	domcol "github.com/gutwell/ragcore/internal/domain/collection"
)

// Service handles collection CRUD, clear and stats.
type Service struct {
	repo      Repository
	chunks    ChunkRepository
	locks     Locker
	vectorDim int
}

// New creates a collection service. vectorDim is the embedding dimension
// of the configured model and is stamped onto every new collection.
func New(repo Repository, chunks ChunkRepository, locks Locker, vectorDim int) *Service {
	return &Service{repo: repo, chunks: chunks, locks: locks, vectorDim: vectorDim}
}

// Create validates and stores a new collection.
func (s *Service) Create(ctx context.Context, name, description string) (domcol.Collection, error) {
	col, err := domcol.New(name, description, s.vectorDim)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate collection: %w: %w", domain.ErrInvalidCollection, err)
	}

	if err := s.repo.Create(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection: %w", err)
	}

	return col, nil
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return col, nil
}

// List returns all collections.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Delete removes a collection with all its chunks. Holds the exclusive
// collection lock so in-flight queries and ingests drain first.
func (s *Service) Delete(ctx context.Context, name string) error {
	s.locks.Lock(name)
	defer s.locks.Unlock(name)

	if _, err := s.repo.Get(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	if err := s.chunks.DeleteAll(ctx, name); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Clear removes all chunks from a collection but keeps the collection and
// its index. Exclusive lock for the same reason as Delete.
func (s *Service) Clear(ctx context.Context, name string) error {
	s.locks.Lock(name)
	defer s.locks.Unlock(name)

	if _, err := s.repo.Get(ctx, name); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	if err := s.chunks.DeleteAll(ctx, name); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

// Stats returns chunk count and metadata distributions for a collection.
func (s *Service) Stats(ctx context.Context, name string) (domcol.Stats, error) {
	if _, err := s.repo.Get(ctx, name); err != nil {
		return domcol.Stats{}, fmt.Errorf("stats collection: %w", err)
	}

	stats, err := s.chunks.Stats(ctx, name)
	if err != nil {
		return domcol.Stats{}, fmt.Errorf("stats collection: %w", err)
	}
	return stats, nil
}
