package chunk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	domchunk "github.com/gutwell/ragcore/internal/domain/chunk"
)

// Hash field names for chunk entries. The tag and numeric fields must
// match the FT index schema created by the collection repository.
const (
	fieldContent     = "content"
	fieldDocumentID  = "document_id"
	fieldSource      = "source"
	fieldTitle       = "title"
	fieldURL         = "url"
	fieldAuthor      = "author"
	fieldPublishedAt = "published_at"
	fieldCategories  = "categories"
	fieldContentType = "content_type"
	fieldChunkIndex  = "chunk_index"
	fieldTotalChunks = "total_chunks"
	fieldVector      = "vector"
)

// ReturnFields lists the non-vector hash fields a KNN search should
// request back for result hydration.
func ReturnFields() []string {
	return []string{
		fieldContent, fieldDocumentID, fieldSource, fieldTitle, fieldURL,
		fieldAuthor, fieldPublishedAt, fieldCategories, fieldContentType,
		fieldChunkIndex, fieldTotalChunks,
	}
}

func entryToHash(e Entry) map[string]string {
	meta := e.Chunk.Meta()
	return map[string]string{
		fieldContent:     e.Chunk.Text(),
		fieldDocumentID:  meta.DocumentID,
		fieldSource:      meta.Source,
		fieldTitle:       meta.Title,
		fieldURL:         meta.URL,
		fieldAuthor:      meta.Author,
		fieldPublishedAt: meta.PublishedAt,
		fieldCategories:  strings.Join(meta.Categories, ","),
		fieldContentType: meta.ContentType,
		fieldChunkIndex:  strconv.Itoa(meta.ChunkIndex),
		fieldTotalChunks: strconv.Itoa(meta.TotalChunks),
		fieldVector:      string(vectorToBytes(e.Vector)),
	}
}

func entryFromHash(chunkID string, m map[string]string) (domchunk.Chunk, []float32, error) {
	meta, err := MetaFromHash(m)
	if err != nil {
		return domchunk.Chunk{}, nil, fmt.Errorf("chunk %s: %w", chunkID, err)
	}

	vec, err := vectorFromBytes([]byte(m[fieldVector]))
	if err != nil {
		return domchunk.Chunk{}, nil, fmt.Errorf("chunk %s: %w", chunkID, err)
	}

	return domchunk.Reconstruct(chunkID, m[fieldContent], meta), vec, nil
}

// MetaFromHash rebuilds chunk metadata from stored hash fields. The search
// repository reads the same hashes via FT.SEARCH and shares this decoder.
func MetaFromHash(m map[string]string) (domchunk.Meta, error) {
	idx, err := strconv.Atoi(m[fieldChunkIndex])
	if err != nil {
		return domchunk.Meta{}, fmt.Errorf("parse chunk_index: %w", err)
	}
	total, err := strconv.Atoi(m[fieldTotalChunks])
	if err != nil {
		return domchunk.Meta{}, fmt.Errorf("parse total_chunks: %w", err)
	}

	var categories []string
	if m[fieldCategories] != "" {
		categories = strings.Split(m[fieldCategories], ",")
	}

	return domchunk.Meta{
		DocumentID:  m[fieldDocumentID],
		Source:      m[fieldSource],
		Title:       m[fieldTitle],
		URL:         m[fieldURL],
		Author:      m[fieldAuthor],
		PublishedAt: m[fieldPublishedAt],
		Categories:  categories,
		ContentType: m[fieldContentType],
		ChunkIndex:  idx,
		TotalChunks: total,
	}, nil
}

// vectorToBytes encodes float32 values as little-endian binary, the
// layout RediSearch expects for FLOAT32 vector fields.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func vectorFromBytes(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}
