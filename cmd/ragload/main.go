// ragload bulk-loads a JSON article corpus into a ragcore collection.
//
// Usage:
//
//	ragload -file articles.json -collection health_articles [-create] [-rebuild]
//
// The input file is a JSON array of article objects as produced by the
// crawler: {"id", "title", "content", "source", "url", "author",
// "published_at", "categories", "content_type"}. Articles without an id
// get a generated one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gutwell/ragcore/internal/config"
	dbRedis "github.com/gutwell/ragcore/internal/db/redis"
	"github.com/gutwell/ragcore/internal/domain"
	domchunk "github.com/gutwell/ragcore/internal/domain/chunk"
	domdoc "github.com/gutwell/ragcore/internal/domain/document"
	"github.com/gutwell/ragcore/internal/domain/keylock"
	logpkg "github.com/gutwell/ragcore/internal/logger"
	"github.com/gutwell/ragcore/internal/metrics"
	chunkrepo "github.com/gutwell/ragcore/internal/repository/chunk"
	collectionrepo "github.com/gutwell/ragcore/internal/repository/collection"
	"github.com/gutwell/ragcore/internal/repository/embcache"
	openaiEmb "github.com/gutwell/ragcore/internal/transport/openai"
	collectionuc "github.com/gutwell/ragcore/internal/usecase/collection"
	embeddinguc "github.com/gutwell/ragcore/internal/usecase/embedding"
	ingestuc "github.com/gutwell/ragcore/internal/usecase/ingest"
)

type article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"published_at"`
	Categories  []string `json:"categories"`
	ContentType string   `json:"content_type"`
}

func main() {
	var (
		file       = flag.String("file", "", "path to JSON article corpus (required)")
		collection = flag.String("collection", "health_articles", "target collection name")
		create     = flag.Bool("create", false, "create the collection if it does not exist")
		rebuild    = flag.Bool("rebuild", false, "drop existing chunks and re-index from scratch")
		workers    = flag.Int("workers", 0, "ingest workers (default from config)")
	)
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *file, *collection, *create, *rebuild, *workers); err != nil {
		logger.Fatal("Load failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger, file, collection string, create, rebuild bool, workers int) error {
	docs, err := readCorpus(file)
	if err != nil {
		return err
	}
	logger.Info("Corpus read", zap.String("file", file), zap.Int("documents", len(docs)))

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		User:       cfg.Embedding.User,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	cached := embcache.New(base, store, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger)
	retried := embeddinguc.NewRetryEmbedder(cached, cfg.Embedding.MaxRetries, 0, logger)
	embedder := embeddinguc.NewInstrumentedEmbedder(
		retried, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.MaxBatchSize, logger,
	)

	collRepo := collectionrepo.New(store).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	chunks := chunkrepo.New(store)
	locks := keylock.New()

	collSvc := collectionuc.New(collRepo, chunks, locks, cfg.Embedding.Dimensions)

	if _, err := collSvc.Get(ctx, collection); err != nil {
		if !errors.Is(err, domain.ErrNotFound) || !create {
			return fmt.Errorf("get collection %s: %w", collection, err)
		}
		desc := "Loaded from " + filepath.Base(file)
		if _, err := collSvc.Create(ctx, collection, desc); err != nil {
			return fmt.Errorf("create collection %s: %w", collection, err)
		}
		logger.Info("Collection created", zap.String("collection", collection))
	}

	if workers <= 0 {
		workers = cfg.Ingest.Workers
	}
	ingestSvc := ingestuc.New(collRepo, chunks, embedder, locks, logger).
		WithChunking(domchunk.Config{
			SizeWords:    cfg.Chunking.SizeWords,
			OverlapWords: cfg.Chunking.OverlapWords,
			MinChars:     cfg.Chunking.MinChars,
		}).
		WithWorkers(workers)

	var report ingestuc.Report
	if rebuild {
		report, err = ingestSvc.Rebuild(ctx, collection, docs)
	} else {
		report, err = ingestSvc.IngestBatch(ctx, collection, docs)
	}
	if err != nil {
		return fmt.Errorf("ingest corpus: %w", err)
	}

	logger.Info("Corpus loaded",
		zap.String("collection", collection),
		zap.Int("documents_processed", report.DocumentsProcessed),
		zap.Int("documents_failed", report.DocumentsFailed),
		zap.Int("chunks_indexed", report.ChunksIndexed),
		zap.Duration("duration", report.Duration),
	)
	return nil
}

// readCorpus parses the JSON array and converts entries into documents.
// Articles without an id get a generated one (stable ingests need crawler
// supplied ids; generated ids always index as new chunks).
func readCorpus(path string) ([]domdoc.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var articles []article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(articles))
	for i, a := range articles {
		if a.ID == "" {
			a.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		doc, err := domdoc.New(
			a.ID, a.Title, a.Content, a.Source, a.URL,
			a.Author, a.PublishedAt, a.Categories, a.ContentType,
		)
		if err != nil {
			return nil, fmt.Errorf("article [%d]: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
