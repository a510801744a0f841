// Package retrieve answers queries: embed, KNN, relevance and diversity
// filtering, then context assembly.
package retrieve

import (
	"context"
	"fmt"
	"time"

	"github.com/gutwell/ragcore/internal/domain"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
	"github.com/gutwell/ragcore/internal/metrics"
	searchrepo "github.com/gutwell/ragcore/internal/repository/search"
)

// Retrieval defaults.
const (
	DefaultFetchK             = 10
	DefaultMaxChunks          = 5
	DefaultMinRelevance       = 0.5
	DefaultDiversityThreshold = 0.7
	DefaultMaxContextChars    = 4000
	DefaultEmbedTimeout       = 10 * time.Second
)

// Params tunes a single query. Zero values fall back to service defaults.
type Params struct {
	MaxChunks          int
	MinRelevance       float64
	DiversityThreshold float64
	MaxContextChars    int
	Source             string
	ContentType        string
}

// Answer is the result of one retrieval query.
type Answer struct {
	Context string
	Results []retrieval.Result
}

// Config holds service-level retrieval tuning.
type Config struct {
	FetchK             int
	MaxChunks          int
	MinRelevance       float64
	DiversityThreshold float64
	MaxContextChars    int
	EmbedTimeout       time.Duration
}

// DefaultServiceConfig returns the standard retrieval configuration.
func DefaultServiceConfig() Config {
	return Config{
		FetchK:             DefaultFetchK,
		MaxChunks:          DefaultMaxChunks,
		MinRelevance:       DefaultMinRelevance,
		DiversityThreshold: DefaultDiversityThreshold,
		MaxContextChars:    DefaultMaxContextChars,
		EmbedTimeout:       DefaultEmbedTimeout,
	}
}

// Service runs retrieval queries against a collection.
type Service struct {
	repo  Repository
	colls CollectionReader
	embed Embedder
	locks Locker
	cfg   Config
}

// New creates a retrieval service. Zero config fields fall back to defaults.
func New(repo Repository, colls CollectionReader, embed Embedder, locks Locker, cfg Config) *Service {
	def := DefaultServiceConfig()
	if cfg.FetchK <= 0 {
		cfg.FetchK = def.FetchK
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = def.MaxChunks
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = def.MinRelevance
	}
	if cfg.DiversityThreshold <= 0 {
		cfg.DiversityThreshold = def.DiversityThreshold
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = def.MaxContextChars
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = def.EmbedTimeout
	}
	return &Service{repo: repo, colls: colls, embed: embed, locks: locks, cfg: cfg}
}

// Query embeds the query text, over-fetches nearest chunks, filters by
// relevance and near-duplicate similarity, and assembles the context block.
// An empty result is an Answer with the no-context sentinel, not an error.
func (s *Service) Query(ctx context.Context, collectionName, query string, p Params) (Answer, error) {
	start := time.Now()

	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return Answer{}, fmt.Errorf("get collection: %w", err)
	}

	maxChunks := p.MaxChunks
	if maxChunks <= 0 || maxChunks > s.cfg.MaxChunks {
		maxChunks = s.cfg.MaxChunks
	}
	minRelevance := p.MinRelevance
	if minRelevance <= 0 {
		minRelevance = s.cfg.MinRelevance
	}
	diversity := p.DiversityThreshold
	if diversity <= 0 {
		diversity = s.cfg.DiversityThreshold
	}
	maxContextChars := p.MaxContextChars
	if maxContextChars <= 0 {
		maxContextChars = s.cfg.MaxContextChars
	}

	embCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()

	embResult, err := s.embed.Embed(embCtx, query)
	if err != nil {
		metrics.RetrievalQueriesTotal.WithLabelValues("failed").Inc()
		return Answer{}, fmt.Errorf("vectorize query: %w", err)
	}
	if len(embResult.Embedding) != col.VectorDim() {
		metrics.RetrievalQueriesTotal.WithLabelValues("failed").Inc()
		return Answer{}, fmt.Errorf(
			"query vector: got dimension %d, want %d: %w",
			len(embResult.Embedding), col.VectorDim(), domain.ErrDimensionMismatch,
		)
	}

	s.locks.RLock(collectionName)
	defer s.locks.RUnlock(collectionName)

	// Over-fetch so the diversity filter has spares to fall back on.
	fetchK := s.cfg.FetchK
	if fetchK < maxChunks {
		fetchK = maxChunks
	}

	candidates, err := s.repo.KNN(ctx, collectionName, embResult.Embedding, fetchK, searchrepo.Filter{
		Source:      p.Source,
		ContentType: p.ContentType,
	})
	if err != nil {
		metrics.RetrievalQueriesTotal.WithLabelValues("failed").Inc()
		return Answer{}, fmt.Errorf("search knn: %w", err)
	}

	selected := selectDiverse(candidates, maxChunks, minRelevance, diversity)

	if len(selected) == 0 {
		metrics.RetrievalQueriesTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.RetrievalQueriesTotal.WithLabelValues("hit").Inc()
	}
	metrics.RetrievalSelectedChunks.Observe(float64(len(selected)))
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())

	return Answer{
		Context: assembleContext(selected, maxContextChars),
		Results: selected,
	}, nil
}
