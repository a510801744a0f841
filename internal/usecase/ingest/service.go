// Package ingest turns documents into embedded chunks and indexes them.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/domain"
	domchunk "github.com/gutwell/ragcore/internal/domain/chunk"
	domdoc "github.com/gutwell/ragcore/internal/domain/document"
	"github.com/gutwell/ragcore/internal/metrics"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
)

// DefaultWorkers is the batch ingest parallelism.
const DefaultWorkers = 4

// Report summarizes a batch ingest run.
type Report struct {
	DocumentsProcessed int
	DocumentsFailed    int
	ChunksIndexed      int
	Duration           time.Duration
}

// Service chunks documents, embeds the chunks and writes them to the index.
type Service struct {
	colls    CollectionReader
	chunks   ChunkRepository
	embedder Embedder
	locks    Locker
	cfg      domchunk.Config
	workers  int
	logger   *zap.Logger
}

// New creates an ingest service with default chunking and parallelism.
func New(colls CollectionReader, chunks ChunkRepository, embedder Embedder, locks Locker, logger *zap.Logger) *Service {
	return &Service{
		colls:    colls,
		chunks:   chunks,
		embedder: embedder,
		locks:    locks,
		cfg:      domchunk.DefaultConfig(),
		workers:  DefaultWorkers,
		logger:   logger,
	}
}

// WithChunking overrides the chunking configuration.
func (s *Service) WithChunking(cfg domchunk.Config) *Service {
	if cfg.SizeWords > 0 {
		s.cfg = cfg
	}
	return s
}

// WithWorkers overrides batch ingest parallelism.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Ingest indexes one document: split into chunks, embed, verify dimensions,
// then write all chunks in one pipelined batch. Either every chunk of the
// document lands or none does. Re-ingesting a document ID overwrites its
// previous chunks.
func (s *Service) Ingest(ctx context.Context, collectionName string, doc domdoc.Document) (int, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}

	s.locks.RLock(collectionName)
	defer s.locks.RUnlock(collectionName)

	return s.ingestOne(ctx, col.Name(), col.VectorDim(), doc)
}

// IngestBatch indexes documents through a worker pool. A failing document is
// logged, counted and skipped; it never aborts the batch.
func (s *Service) IngestBatch(ctx context.Context, collectionName string, docs []domdoc.Document) (Report, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return Report{}, fmt.Errorf("get collection: %w", err)
	}

	s.locks.RLock(collectionName)
	defer s.locks.RUnlock(collectionName)

	start := time.Now()

	jobs := make(chan domdoc.Document, s.workers*2)
	var wg sync.WaitGroup
	var processed, failed, indexed atomic.Int64

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				n, err := s.ingestOne(ctx, col.Name(), col.VectorDim(), doc)
				if err != nil {
					failed.Add(1)
					s.logger.Warn("Document ingest failed",
						zap.String("collection", collectionName),
						zap.String("document_id", doc.ID()),
						zap.Error(err),
					)
					continue
				}
				processed.Add(1)
				indexed.Add(int64(n))
			}
		}()
	}

	for _, doc := range docs {
		select {
		case <-ctx.Done():
		case jobs <- doc:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	report := Report{
		DocumentsProcessed: int(processed.Load()),
		DocumentsFailed:    int(failed.Load()),
		ChunksIndexed:      int(indexed.Load()),
		Duration:           time.Since(start),
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("batch ingest: %w", err)
	}
	return report, nil
}

// Rebuild drops every chunk of the collection and re-indexes the given
// documents from scratch. Exclusive lock: queries and ingests wait until
// the rebuild finishes.
func (s *Service) Rebuild(ctx context.Context, collectionName string, docs []domdoc.Document) (Report, error) {
	col, err := s.colls.Get(ctx, collectionName)
	if err != nil {
		return Report{}, fmt.Errorf("get collection: %w", err)
	}

	s.locks.Lock(collectionName)
	defer s.locks.Unlock(collectionName)

	start := time.Now()

	if err := s.chunks.DeleteAll(ctx, collectionName); err != nil {
		return Report{}, fmt.Errorf("clear chunks: %w", err)
	}

	var report Report
	for _, doc := range docs {
		n, err := s.ingestOne(ctx, col.Name(), col.VectorDim(), doc)
		if err != nil {
			report.DocumentsFailed++
			s.logger.Warn("Document ingest failed during rebuild",
				zap.String("collection", collectionName),
				zap.String("document_id", doc.ID()),
				zap.Error(err),
			)
			continue
		}
		report.DocumentsProcessed++
		report.ChunksIndexed += n
	}

	report.Duration = time.Since(start)
	return report, nil
}

// ingestOne does the actual chunk-embed-verify-write pipeline. Callers hold
// the collection lock.
func (s *Service) ingestOne(ctx context.Context, collectionName string, vectorDim int, doc domdoc.Document) (int, error) {
	chunks, err := domchunk.Split(doc, s.cfg)
	if err != nil {
		return 0, fmt.Errorf("%w: split document %s: %w", domain.ErrInvalidDocument, doc.ID(), err)
	}
	if len(chunks) == 0 {
		metrics.IngestDocumentsTotal.WithLabelValues("empty").Inc()
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}

	result, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("embed chunks of %s: %w", doc.ID(), err)
	}
	if len(result.Embeddings) != len(chunks) {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("embed chunks of %s: got %d vectors for %d chunks",
			doc.ID(), len(result.Embeddings), len(chunks))
	}

	entries := make([]chunkrepo.Entry, len(chunks))
	for i, c := range chunks {
		vec := result.Embeddings[i]
		if len(vec) != vectorDim {
			metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
			return 0, fmt.Errorf(
				"chunk %s: got dimension %d, want %d: %w",
				c.ID(), len(vec), vectorDim, domain.ErrDimensionMismatch,
			)
		}
		entries[i] = chunkrepo.Entry{Chunk: c, Vector: vec}
	}

	if err := s.chunks.UpsertBatch(ctx, collectionName, entries); err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("index chunks of %s: %w", doc.ID(), err)
	}

	metrics.IngestDocumentsTotal.WithLabelValues("ok").Inc()
	metrics.IngestChunksTotal.Add(float64(len(entries)))
	return len(entries), nil
}
