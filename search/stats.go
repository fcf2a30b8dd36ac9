package search

import (
	"context"
	"errors"

	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// StatsReporter produces on-demand health views of a collection.
type StatsReporter struct {
	store  storage.VectorStore
	config *ai.Config
}

// NewStatsReporter creates a stats reporter. The config supplies the
// model and dimension for collections that predate the manifest.
func NewStatsReporter(store storage.VectorStore, config *ai.Config) (*StatsReporter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &StatsReporter{store: store, config: config}, nil
}

// Stats reports the size and configuration of a collection. A collection
// that was never written reports as absent with zero counts.
func (r *StatsReporter) Stats(ctx context.Context, collection string) (*core.CollectionStats, error) {
	stats := &core.CollectionStats{Collection: collection}
	if r.config != nil {
		stats.EmbeddingModel = r.config.Model
		stats.VectorDimension = r.config.Dimension
	}

	exists, err := r.store.Exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	stats.CollectionExists = exists
	if !exists {
		return stats, nil
	}

	total, err := r.store.Count(ctx, collection)
	if err != nil {
		return nil, err
	}
	stats.TotalEmbeddings = total
	// Round up: a partially indexed email still counts as one.
	stats.EstimatedEmailCount = (total + core.EmbeddingsPerEmail - 1) / core.EmbeddingsPerEmail

	info, err := r.store.Info(ctx, collection)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stats, nil
		}
		return nil, err
	}
	stats.EmbeddingModel = info.Model
	stats.VectorDimension = info.Dimension
	return stats, nil
}
