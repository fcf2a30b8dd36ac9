package storage

import (
	"context"

	"github.com/poiesic/mailvec/core"
)

// Match is a single similarity hit returned by a query.
type Match struct {
	Record *core.EmbeddingRecord
	Score  float32
}

// UpsertFailure identifies one record that could not be committed.
type UpsertFailure struct {
	EmailID string
	Type    core.EmbeddingType
	Reason  string
}

// UpsertResult reports the outcome of a batch upsert. Committed records
// stay committed even when others fail; the store favors availability of
// partial progress over all-or-nothing atomicity.
type UpsertResult struct {
	Upserted int
	Failed   []UpsertFailure
}

// VectorStore persists embedding records in named collections and serves
// similarity queries over them. Implementations must be thread-safe and
// support concurrent reads during ingestion; readers may observe a
// partially updated collection.
type VectorStore interface {
	// Upsert inserts or replaces records keyed by (EmailID, Type).
	// Per-record failures are reported in the result without rolling back
	// records already committed. The error return is reserved for total
	// backend unavailability.
	Upsert(ctx context.Context, collection string, records []*core.EmbeddingRecord) (*UpsertResult, error)

	// Get retrieves a single record by its (EmailID, Type) key.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, collection, emailID string, typ core.EmbeddingType) (*core.EmbeddingRecord, error)

	// Query finds the topK records most similar to the given vector,
	// ordered by descending score. Ties are broken by most recent
	// CreatedAt. A missing or empty collection yields an empty result.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]*Match, error)

	// Count returns the number of embedding records in the collection.
	// A missing collection counts as zero.
	Count(ctx context.Context, collection string) (int, error)

	// Exists reports whether the collection holds any data.
	Exists(ctx context.Context, collection string) (bool, error)

	// Info returns the collection manifest.
	// Returns ErrNotFound if the collection has never been written.
	Info(ctx context.Context, collection string) (*core.CollectionInfo, error)

	// SetInfo writes the collection manifest.
	SetInfo(ctx context.Context, collection string, info *core.CollectionInfo) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// RecordLister is an optional capability for stores that support cursor
// iteration over a collection's records. Batch maintenance (reembedding)
// requires it.
type RecordLister interface {
	// List returns up to limit records starting after cursor, together
	// with the cursor for the next page. An empty next cursor means the
	// iteration is complete. Pass an empty cursor to start from the
	// beginning.
	List(ctx context.Context, collection, cursor string, limit int) ([]*core.EmbeddingRecord, string, error)
}
