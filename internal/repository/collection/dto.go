package collection

import (
	"fmt"
	"strconv"

	domcol "github.com/gutwell/ragcore/internal/domain/collection"
)

// Hash field names for collection metadata.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldVectorDim   = "vector_dim"
	fieldCreatedAt   = "created_at"
)

func collectionToHash(col domcol.Collection) map[string]string {
	return map[string]string{
		fieldName:        col.Name(),
		fieldDescription: col.Description(),
		fieldVectorDim:   strconv.Itoa(col.VectorDim()),
		fieldCreatedAt:   strconv.FormatInt(col.CreatedAt(), 10),
	}
}

func collectionFromHash(m map[string]string) (domcol.Collection, error) {
	name := m[fieldName]
	if name == "" {
		return domcol.Collection{}, fmt.Errorf("collection hash missing name")
	}

	dim, err := strconv.Atoi(m[fieldVectorDim])
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("parse vector_dim for %s: %w", name, err)
	}

	createdAt, err := strconv.ParseInt(m[fieldCreatedAt], 10, 64)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("parse created_at for %s: %w", name, err)
	}

	return domcol.Reconstruct(name, m[fieldDescription], dim, createdAt), nil
}
