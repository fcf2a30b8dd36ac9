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

package mailvec

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/ai/openai"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/ingestion"
	"github.com/poiesic/mailvec/reembed"
	"github.com/poiesic/mailvec/search"
	"github.com/poiesic/mailvec/storage"
	"github.com/poiesic/mailvec/storage/badger"
)

// Service is the top-level wiring of the email indexing system: a vector
// store, an embedding backend, and the ingestion, search, stats, and
// reembedding components over them, all bound to one collection.
type Service struct {
	store      storage.VectorStore
	embedder   ai.Embedder
	aiConfig   *ai.Config
	collection string
	pipeline   *ingestion.Pipeline
	searcher   *search.Searcher
	stats      *search.StatsReporter
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
	store    storage.VectorStore
	embedder ai.Embedder
	poolSize int
}

// WithAIConfig sets the embedding backend configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithStore supplies a vector store, overriding the embedded BadgerDB
// store the service would otherwise open at the database path. Use this
// to run against a remote backend. The service takes ownership and
// closes the store on Close.
func WithStore(store storage.VectorStore) ServiceOption {
	return func(o *serviceOptions) {
		o.store = store
	}
}

// WithEmbedder supplies an embedder, overriding the OpenAI-compatible
// client built from the AI config. Intended for tests.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithPoolSize sets the ingestion worker pool size.
func WithPoolSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.poolSize = size
	}
}

// NewService opens (or creates) the service state at filePath and binds
// all components to the named collection.
func NewService(filePath, collection string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store := options.store
	if store == nil {
		var err error
		store, err = badger.Open(filePath)
		if err != nil {
			return nil, err
		}
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	var pipelineOpts []ingestion.Option
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingestion.NewPipeline(store, embedder, options.aiConfig, pipelineOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(store, embedder)
	if err != nil {
		pipeline.Release()
		store.Close()
		return nil, err
	}

	stats, err := search.NewStatsReporter(store, options.aiConfig)
	if err != nil {
		pipeline.Release()
		store.Close()
		return nil, err
	}

	return &Service{
		store:      store,
		embedder:   embedder,
		aiConfig:   options.aiConfig,
		collection: collection,
		pipeline:   pipeline,
		searcher:   searcher,
		stats:      stats,
		logger:     slog.Default(),
	}, nil
}

// Close releases the worker pool and the storage backend.
func (s *Service) Close() error {
	s.pipeline.Release()

	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing vector store", "err", err)
		return err
	}
	return nil
}

// Ingest processes a raw payload (bulk export or single webhook message)
// into the service's collection.
func (s *Service) Ingest(ctx context.Context, payload []byte) (*core.IngestionResult, error) {
	return s.pipeline.Ingest(ctx, s.collection, payload)
}

// Search finds up to topK emails relevant to the query.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]*core.EmailMatch, error) {
	return s.searcher.Search(ctx, s.collection, query, topK)
}

// Stats reports the size and configuration of the collection.
func (s *Service) Stats(ctx context.Context) (*core.CollectionStats, error) {
	return s.stats.Stats(ctx, s.collection)
}

// Reembed regenerates every stored vector with the active embedding
// backend, writing progress to the given writer.
func (s *Service) Reembed(ctx context.Context, config *reembed.Config, progress io.Writer) error {
	reembedder, err := reembed.NewReembedder(s.store, s.embedder, s.aiConfig, config, progress)
	if err != nil {
		return err
	}
	return reembedder.Run(ctx, s.collection)
}

// Collection returns the collection this service is bound to.
func (s *Service) Collection() string {
	return s.collection
}

// Store returns the underlying vector store.
func (s *Service) Store() storage.VectorStore {
	return s.store
}

// Embedder returns the underlying embedder.
func (s *Service) Embedder() ai.Embedder {
	return s.embedder
}
