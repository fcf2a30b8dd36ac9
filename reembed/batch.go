package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// BatchProcessor regenerates embeddings for batches of stored records.
// The persisted content preview is the embedding source text, so records
// can be re-embedded without access to the original emails.
type BatchProcessor struct {
	store          storage.VectorStore
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(store storage.VectorStore, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates fresh embeddings for a batch of records and writes
// them back. Vectors are normalized after embedding so cosine similarity
// reduces to a dot product.
func (bp *BatchProcessor) Process(ctx context.Context, collection string, records []*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.ContentPreview
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(vectors))
	}

	for i := range records {
		records[i].Vector = core.NormalizeVector(vectors[i])
	}

	result, err := bp.store.Upsert(ctx, collection, records)
	if err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("failed to update %d of %d records", len(result.Failed), len(records))
	}

	return nil
}
