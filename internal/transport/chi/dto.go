package chi

import (
	"fmt"
	"time"

	domcol "github.com/gutwell/ragcore/internal/domain/collection"
	domdoc "github.com/gutwell/ragcore/internal/domain/document"
	"github.com/gutwell/ragcore/internal/domain/retrieval"
	"github.com/gutwell/ragcore/internal/usecase/ingest"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "collection_not_found"
	codeAlreadyExists     = "collection_already_exists"
	codeInvalidDocument   = "invalid_document"
	codeDimensionMismatch = "dimension_mismatch"
	codeModelUnavailable  = "embedding_provider_error"
	codeIndexUnavailable  = "index_unavailable"
	codeInternalError     = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type collectionResponse struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	VectorDim   int       `json:"vector_dim"`
	CreatedAt   time.Time `json:"created_at"`
}

func collectionToResponse(c domcol.Collection) collectionResponse {
	return collectionResponse{
		Name:        c.Name(),
		Description: c.Description(),
		VectorDim:   c.VectorDim(),
		CreatedAt:   time.UnixMilli(c.CreatedAt()).UTC(),
	}
}

type collectionListResponse struct {
	Items []collectionResponse `json:"items"`
	Total int                  `json:"total"`
}

type statsResponse struct {
	TotalChunks  int            `json:"total_chunks"`
	Sources      map[string]int `json:"sources"`
	ContentTypes map[string]int `json:"content_types"`
}

type documentPayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	Source      string   `json:"source,omitempty"`
	URL         string   `json:"url,omitempty"`
	Author      string   `json:"author,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
}

func (p documentPayload) toDocument() (domdoc.Document, error) {
	doc, err := domdoc.New(
		p.ID, p.Title, p.Content, p.Source, p.URL,
		p.Author, p.PublishedAt, p.Categories, p.ContentType,
	)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %q: %w", p.ID, err)
	}
	return doc, nil
}

type ingestRequest struct {
	Documents []documentPayload `json:"documents"`
}

type ingestResponse struct {
	DocumentsProcessed int   `json:"documents_processed"`
	DocumentsFailed    int   `json:"documents_failed"`
	ChunksIndexed      int   `json:"chunks_indexed"`
	DurationMs         int64 `json:"duration_ms"`
}

func reportToResponse(r ingest.Report) ingestResponse {
	return ingestResponse{
		DocumentsProcessed: r.DocumentsProcessed,
		DocumentsFailed:    r.DocumentsFailed,
		ChunksIndexed:      r.ChunksIndexed,
		DurationMs:         r.Duration.Milliseconds(),
	}
}

type queryRequest struct {
	Query              string  `json:"query"`
	MaxChunks          int     `json:"max_chunks,omitempty"`
	MinRelevance       float64 `json:"min_relevance,omitempty"`
	DiversityThreshold float64 `json:"diversity_threshold,omitempty"`
	MaxContextChars    int     `json:"max_context_chars,omitempty"`
	Source             string  `json:"source,omitempty"`
	ContentType        string  `json:"content_type,omitempty"`
}

type queryResponse struct {
	Context string       `json:"context"`
	Results []resultItem `json:"results"`
}

type resultItem struct {
	ChunkID   string         `json:"chunk_id"`
	Content   string         `json:"content"`
	Relevance float64        `json:"relevance"`
	Distance  float64        `json:"distance"`
	Metadata  resultMetadata `json:"metadata"`
}

type resultMetadata struct {
	DocumentID  string   `json:"document_id"`
	Source      string   `json:"source,omitempty"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Author      string   `json:"author,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	ChunkIndex  int      `json:"chunk_index"`
	TotalChunks int      `json:"total_chunks"`
}

func resultToItem(r retrieval.Result) resultItem {
	meta := r.Meta()
	return resultItem{
		ChunkID:   r.ChunkID(),
		Content:   r.Content(),
		Relevance: r.Relevance(),
		Distance:  r.Distance(),
		Metadata: resultMetadata{
			DocumentID:  meta.DocumentID,
			Source:      meta.Source,
			Title:       meta.Title,
			URL:         meta.URL,
			Author:      meta.Author,
			PublishedAt: meta.PublishedAt,
			Categories:  meta.Categories,
			ContentType: meta.ContentType,
			ChunkIndex:  meta.ChunkIndex,
			TotalChunks: meta.TotalChunks,
		},
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
