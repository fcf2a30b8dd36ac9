// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates every embedding record in a collection, then
// refreshes the collection manifest to the active model. Run it after
// switching embedding models so stored vectors and new queries live in
// the same vector space.
type Reembedder struct {
	store     storage.VectorStore
	embedder  ai.Embedder
	aiConfig  *ai.Config
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
//
// The store must implement storage.RecordLister.
func NewReembedder(store storage.VectorStore, embedder ai.Embedder, aiConfig *ai.Config, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if aiConfig == nil {
		return nil, ErrConfigRequired
	}
	lister, ok := store.(storage.RecordLister)
	if !ok {
		return nil, ErrListingUnsupported
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		store:     store,
		embedder:  embedder,
		aiConfig:  aiConfig,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(store, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewRecordIterator(lister, config.BatchSize),
	}, nil
}

// Run executes the reembedding operation over one collection.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context, collection string) error {
	total, err := r.store.Count(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No records found in collection %q (0 records)\n", collection)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d records (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, collection, func(records []*core.EmbeddingRecord) error {
		if err := r.processor.Process(ctx, collection, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(records)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	// The collection now speaks the active model's vector space.
	if err := r.store.SetInfo(ctx, collection, &core.CollectionInfo{
		Model:     r.aiConfig.Model,
		Dimension: r.aiConfig.Dimension,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("failed to update collection manifest: %w", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d records in %v (%.1f records/sec)\n",
		processed, elapsed.Round(time.Second), ratePerSecond(processed, elapsed))

	return nil
}
