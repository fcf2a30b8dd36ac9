package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/mailvec/ai"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// Searcher provides semantic search over indexed emails.
type Searcher struct {
	store    storage.VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds up to topK emails relevant to the query, ranked by score.
func (s *Searcher) Search(ctx context.Context, collection, query string, topK int) ([]*core.EmailMatch, error) {
	return s.SearchWithMonitor(ctx, collection, query, topK, nil)
}

// SearchWithMonitor performs a search with monitoring callbacks at each
// stage. Returns up to topK results, one per email: an email indexed by
// subject, body, and combined vectors surfaces once, with its
// best-scoring slice.
func (s *Searcher) SearchWithMonitor(ctx context.Context, collection, query string, topK int, monitor SearchMonitor) ([]*core.EmailMatch, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK < 1 {
		return nil, ErrInvalidTopK
	}

	monitor.Start(query)

	exists, err := s.store.Exists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.Debug("collection has no data", "collection", collection)
		results := []*core.EmailMatch{}
		monitor.Finish(results)
		return results, nil
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	vector = core.NormalizeVector(vector)
	monitor.AfterQueryEmbedding(len(vector))

	// Oversample: each email contributes up to EmbeddingsPerEmail records,
	// so fetching topK emails needs topK * EmbeddingsPerEmail candidates.
	matches, err := s.store.Query(ctx, collection, vector, topK*core.EmbeddingsPerEmail)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}
	monitor.AfterVectorQuery(matches)

	// Collapse to the best-scoring record per email.
	bestByEmail := make(map[string]*storage.Match, len(matches))
	for _, match := range matches {
		score := match.Score
		if containsAllQueryWords(match.Record.ContentPreview, query) {
			score += 0.3
		}
		boosted := &storage.Match{Record: match.Record, Score: score}
		if current, ok := bestByEmail[match.Record.EmailID]; !ok || boosted.Score > current.Score {
			bestByEmail[match.Record.EmailID] = boosted
		}
	}

	results := make([]*core.EmailMatch, 0, len(bestByEmail))
	for emailID, best := range bestByEmail {
		monitor.CollapsedToEmail(emailID, best)
		results = append(results, &core.EmailMatch{
			EmailID:        emailID,
			Type:           best.Record.Type,
			Score:          best.Score,
			ContentPreview: best.Record.ContentPreview,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EmailID < results[j].EmailID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	monitor.Finish(results)

	return results, nil
}
