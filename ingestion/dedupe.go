package ingestion

import (
	"context"
	"errors"

	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// Deduplicator decides whether an email needs (re-)embedding by comparing
// its content fingerprint against the fingerprint persisted with the
// combined embedding record. The combined record is the canary: if it is
// present and current, the other per-email records are too, because
// records for one email commit together.
type Deduplicator struct {
	store storage.VectorStore
}

// NewDeduplicator creates a deduplicator over a vector store.
func NewDeduplicator(store storage.VectorStore) (*Deduplicator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Deduplicator{store: store}, nil
}

// ShouldEmbed reports whether the email's content is new or changed.
// A first-seen ID and a changed fingerprint both embed; an unchanged
// fingerprint skips. Storage unavailability propagates to the caller.
func (d *Deduplicator) ShouldEmbed(ctx context.Context, collection string, email *core.Email, fp core.Fingerprint) (bool, error) {
	existing, err := d.store.Get(ctx, collection, email.ID, core.EmbeddingTypeCombined)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return existing.Fingerprint != fp, nil
}
