// Package chunk splits documents into overlapping word windows for embedding.
package chunk

import (
	"fmt"
	"strings"

	"github.com/gutwell/ragcore/internal/domain/document"
)

// Defaults tuned for article-length health content.
const (
	DefaultSizeWords    = 1000
	DefaultOverlapWords = 200
	DefaultMinChars     = 100
)

// Config controls the chunking window.
type Config struct {
	SizeWords    int // window length in words
	OverlapWords int // words shared between consecutive windows
	MinChars     int // windows whose joined text is shorter are dropped
}

// DefaultConfig returns the standard chunking configuration.
func DefaultConfig() Config {
	return Config{
		SizeWords:    DefaultSizeWords,
		OverlapWords: DefaultOverlapWords,
		MinChars:     DefaultMinChars,
	}
}

// Validate checks that the window parameters produce a positive stride.
func (c Config) Validate() error {
	if c.SizeWords <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.SizeWords)
	}
	if c.OverlapWords < 0 {
		return fmt.Errorf("chunk overlap must be non-negative, got %d", c.OverlapWords)
	}
	if c.OverlapWords >= c.SizeWords {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.OverlapWords, c.SizeWords)
	}
	return nil
}

// Meta is the metadata a chunk inherits from its parent document,
// plus its position within the parent.
type Meta struct {
	DocumentID  string
	Source      string
	Title       string
	URL         string
	Author      string
	PublishedAt string
	Categories  []string
	ContentType string
	ChunkIndex  int
	TotalChunks int
}

// Chunk is a bounded text window extracted from a document.
type Chunk struct {
	id   string
	text string
	meta Meta
}

// ID returns the chunk identifier, deterministic per (document, index)
// so re-ingesting a document overwrites its previous chunks.
func (c Chunk) ID() string { return c.id }

// Text returns the window text.
func (c Chunk) Text() string { return c.text }

// Meta returns the inherited metadata and chunk position.
func (c Chunk) Meta() Meta { return c.meta }

// Split cuts a document body into overlapping word windows. Pure function of
// (document, config): an empty body yields an empty slice, windows shorter
// than cfg.MinChars are dropped, and total counts are backfilled once the
// full set is known.
func Split(doc document.Document, cfg Config) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(doc.Content())
	if len(words) == 0 {
		return nil, nil
	}

	stride := cfg.SizeWords - cfg.OverlapWords
	var chunks []Chunk

	for start := 0; start < len(words); start += stride {
		end := start + cfg.SizeWords
		if end > len(words) {
			end = len(words)
		}
		text := strings.Join(words[start:end], " ")
		if len(strings.TrimSpace(text)) < cfg.MinChars {
			continue
		}

		idx := len(chunks)
		chunks = append(chunks, Chunk{
			id:   fmt.Sprintf("%s_%d", doc.ID(), idx),
			text: text,
			meta: Meta{
				DocumentID:  doc.ID(),
				Source:      doc.Source(),
				Title:       doc.Title(),
				URL:         doc.URL(),
				Author:      doc.Author(),
				PublishedAt: doc.PublishedAt(),
				Categories:  doc.Categories(),
				ContentType: doc.ContentType(),
				ChunkIndex:  idx,
			},
		})

		if end == len(words) {
			break
		}
	}

	for i := range chunks {
		chunks[i].meta.TotalChunks = len(chunks)
	}

	return chunks, nil
}

// Reconstruct creates a Chunk without splitting (storage hydration).
func Reconstruct(id, text string, meta Meta) Chunk {
	return Chunk{id: id, text: text, meta: meta}
}
