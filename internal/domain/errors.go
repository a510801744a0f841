package domain

import "errors"

var (
	// ErrNotFound signals a missing collection.
	ErrNotFound = errors.New("collection not found")
	// ErrAlreadyExists signals a duplicate collection.
	ErrAlreadyExists = errors.New("collection already exists")
	// ErrModelUnavailable signals an unreachable or misconfigured embedding backend.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrDimensionMismatch signals a vector whose dimension differs from the collection's.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrIndexUnavailable signals an unreachable storage backend.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrInvalidDocument signals a malformed document rejected at ingest.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidCollection signals a malformed collection definition.
	ErrInvalidCollection = errors.New("invalid collection")
)
