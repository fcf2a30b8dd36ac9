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

package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/normalize"
	"github.com/poiesic/mailvec/storage"
)

// Pipeline orchestrates ingestion of raw email payloads: normalization,
// content deduplication, embedding generation, and persistence. Items in
// a batch are processed concurrently on a worker pool; the result
// aggregates per-item outcomes.
type Pipeline struct {
	store    storage.VectorStore
	embedder ai.Embedder
	config   *ai.Config
	dedupe   *Deduplicator
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over a vector store and an
// embedding backend. The config must already validate.
func NewPipeline(store storage.VectorStore, embedder ai.Embedder, config *ai.Config, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		return nil, ErrConfigRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	dedupe, err := NewDeduplicator(store)
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		store:    store,
		embedder: embedder,
		config:   config,
		dedupe:   dedupe,
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// outcome is the terminal state of one item inside a batch.
type outcome struct {
	embedded bool
	skipped  bool
	failure  *core.ItemFailure
	fatal    error
}

// Ingest processes a raw JSON payload into a collection. The payload may
// be a bulk export container or a single webhook message; both run
// through the same per-item path.
//
// Every item lands in exactly one of embedded, skipped, or failed. Item
// failures are reported in the result, not as an error; the error return
// is reserved for an unusable payload or an unavailable backend, in
// which case the batch has no result.
func (p *Pipeline) Ingest(ctx context.Context, collection string, payload []byte) (*core.IngestionResult, error) {
	start := time.Now()

	items, source, err := normalize.Split(payload)
	if err != nil {
		return nil, err
	}

	if err := p.ensureManifest(ctx, collection); err != nil {
		return nil, err
	}

	result := &core.IngestionResult{
		BatchID:    uuid.NewString(),
		Collection: collection,
	}
	p.logger.Info("starting ingestion batch",
		"batchID", result.BatchID, "collection", collection,
		"source", source.String(), "items", len(items))

	outcomes := make(chan outcome, len(items))
	var wg sync.WaitGroup
	for _, item := range items {
		item := item
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			outcomes <- p.processItem(ctx, collection, item)
		}); err != nil {
			wg.Done()
			outcomes <- outcome{failure: &core.ItemFailure{
				EmailID: extractID(item),
				Stage:   core.StageEmbed,
				Reason:  err.Error(),
			}}
		}
	}
	wg.Wait()
	close(outcomes)

	var fatal error
	for o := range outcomes {
		switch {
		case o.fatal != nil:
			if fatal == nil {
				fatal = o.fatal
			}
		case o.failure != nil:
			result.FailedItems = append(result.FailedItems, *o.failure)
		case o.skipped:
			result.SkippedCount++
		case o.embedded:
			result.EmbeddedCount++
		}
	}
	if fatal != nil {
		return nil, fatal
	}

	result.ProcessedCount = result.EmbeddedCount + result.SkippedCount
	result.ProcessingTime = time.Since(start)
	if len(result.FailedItems) > 0 {
		result.State = core.BatchPartiallyFailed
	} else {
		result.State = core.BatchCompleted
	}

	p.logger.Info("ingestion batch finished",
		"batchID", result.BatchID, "state", string(result.State),
		"embedded", result.EmbeddedCount, "skipped", result.SkippedCount,
		"failed", len(result.FailedItems), "duration", result.ProcessingTime)
	return result, nil
}

// processItem runs one raw message through normalize, dedupe, embed, and
// persist. Item-scoped problems become failures; backend unavailability
// is fatal for the whole batch.
func (p *Pipeline) processItem(ctx context.Context, collection string, item json.RawMessage) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{failure: &core.ItemFailure{
			EmailID: extractID(item),
			Stage:   core.StageNormalize,
			Reason:  err.Error(),
		}}
	}

	email, err := normalize.NormalizeMessage(item)
	if err != nil {
		return outcome{failure: &core.ItemFailure{
			EmailID: extractID(item),
			Stage:   core.StageNormalize,
			Reason:  err.Error(),
		}}
	}
	if err := core.ValidateEmail(email); err != nil {
		return outcome{failure: &core.ItemFailure{
			EmailID: email.ID,
			Stage:   core.StageNormalize,
			Reason:  err.Error(),
		}}
	}

	fp := core.FingerprintEmail(email)
	shouldEmbed, err := p.dedupe.ShouldEmbed(ctx, collection, email, fp)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			return outcome{fatal: err}
		}
		return outcome{failure: &core.ItemFailure{
			EmailID: email.ID,
			Stage:   core.StageDedupe,
			Reason:  err.Error(),
		}}
	}
	if !shouldEmbed {
		p.logger.Debug("skipping unchanged email", "emailID", email.ID)
		return outcome{skipped: true}
	}

	texts := embeddingTexts(p.config, email)
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return outcome{fatal: err}
		}
		return outcome{failure: &core.ItemFailure{
			EmailID: email.ID,
			Stage:   core.StageEmbed,
			Reason:  err.Error(),
		}}
	}
	if len(vectors) != len(texts) {
		return outcome{failure: &core.ItemFailure{
			EmailID: email.ID,
			Stage:   core.StageEmbed,
			Reason:  fmt.Sprintf("embedder returned %d vectors for %d texts", len(vectors), len(texts)),
		}}
	}

	now := time.Now().UTC()
	records := make([]*core.EmbeddingRecord, len(texts))
	for i, typ := range core.EmbeddingTypes {
		records[i] = &core.EmbeddingRecord{
			EmailID:        email.ID,
			Type:           typ,
			Vector:         core.NormalizeVector(vectors[i]),
			ContentPreview: texts[i],
			Fingerprint:    fp,
			CreatedAt:      now,
		}
	}

	upserted, err := p.store.Upsert(ctx, collection, records)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			return outcome{fatal: err}
		}
		return outcome{failure: &core.ItemFailure{
			EmailID: email.ID,
			Stage:   core.StagePersist,
			Reason:  err.Error(),
		}}
	}
	if len(upserted.Failed) > 0 {
		reasons := make([]string, len(upserted.Failed))
		for i, f := range upserted.Failed {
			reasons[i] = fmt.Sprintf("%s: %s", f.Type.String(), f.Reason)
		}
		return outcome{failure: &core.ItemFailure{
			EmailID: email.ID,
			Stage:   core.StagePersist,
			Reason:  strings.Join(reasons, "; "),
		}}
	}

	return outcome{embedded: true}
}

// ensureManifest pins the model and dimension on first write to a
// collection. An existing manifest is left untouched.
func (p *Pipeline) ensureManifest(ctx context.Context, collection string) error {
	_, err := p.store.Info(ctx, collection)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return p.store.SetInfo(ctx, collection, &core.CollectionInfo{
		Model:     p.config.Model,
		Dimension: p.config.Dimension,
		CreatedAt: time.Now().UTC(),
	})
}

// extractID pulls the message ID out of a raw item for failure reporting.
// Both dialects use the "id" member.
func extractID(item json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(item, &probe); err != nil {
		return ""
	}
	return probe.ID
}
