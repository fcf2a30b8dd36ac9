package ai

import "errors"

var (
	// ErrUnavailable indicates the embedding backend cannot be reached at
	// all. Callers treat it as fatal for the whole operation rather than a
	// per-item failure.
	ErrUnavailable = errors.New("embedding backend unavailable")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
