package collection

import (
	"github.com/gutwell/ragcore/internal/db"
	"github.com/gutwell/ragcore/internal/domain"
)

// buildIndex defines the fixed chunk-index schema for a collection.
// Metadata fields are known ahead of time (chunks inherit article
// metadata), so unlike a generic vector store no user schema is needed.
func buildIndex(name string, vectorDim int, hnsw HNSWConfig) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:     indexName(name),
		Prefixes: []string{chunkPrefix(name)},
		Fields: []db.IndexField{
			{Name: "source", Type: db.IndexFieldTag},
			{Name: "content_type", Type: db.IndexFieldTag},
			{Name: "document_id", Type: db.IndexFieldTag},
			{Name: "categories", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "chunk_index", Type: db.IndexFieldNumeric},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           hnsw.M,
				VectorEFConstruct: hnsw.EFConstruct,
			},
		},
	}
}

func chunkPrefix(name string) string {
	return collectionPrefix(name) + "chunk:"
}

func collectionPrefix(name string) string {
	return domain.KeyPrefix + name + ":"
}
