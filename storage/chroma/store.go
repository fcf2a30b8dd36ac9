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

package chroma

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// Metadata keys attached to every document.
const (
	metaEmailID     = "email_id"
	metaType        = "embedding_type"
	metaFingerprint = "fingerprint"
	metaCreatedAt   = "created_at"

	manifestModel     = "manifest_model"
	manifestDimension = "manifest_dimension"
	manifestCreatedAt = "manifest_created_at"
)

// Store implements storage.VectorStore against a remote Chroma server.
// Each embedding record maps to one document; the document ID encodes the
// (EmailID, Type) key so upserts replace rather than duplicate.
//
// The collection manifest lives in the Chroma collection metadata, so it
// survives process restarts without a side channel.
type Store struct {
	client chroma.Client
	logger *slog.Logger

	mu          sync.Mutex
	collections map[string]chroma.Collection
	closed      bool
}

var _ storage.VectorStore = (*Store)(nil)

// Open connects to a Chroma server at baseURL.
//
// Returns storage.VectorStore interface to enforce abstraction.
func Open(baseURL string) (storage.VectorStore, error) {
	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("chroma client: %w", err)
	}
	return NewStore(client), nil
}

// NewStore wraps an existing Chroma client.
func NewStore(client chroma.Client) *Store {
	return &Store{
		client:      client,
		logger:      slog.Default().With("component", "chroma-store"),
		collections: make(map[string]chroma.Collection),
	}
}

// Close releases the client. Further calls fail with ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

func (s *Store) collection(ctx context.Context, name string) (chroma.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, storage.ErrStorageClosed)
	}
	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := s.client.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, classify(err)
	}
	s.collections[name] = col
	return col, nil
}

// documentID encodes the record key. The separator cannot appear in a
// provider message ID.
func documentID(emailID string, typ core.EmbeddingType) chroma.DocumentID {
	return chroma.DocumentID(emailID + "#" + typ.String())
}

func recordMetadata(record *core.EmbeddingRecord) (chroma.DocumentMetadata, error) {
	return chroma.NewDocumentMetadataFromMap(map[string]any{
		metaEmailID:     record.EmailID,
		metaType:        record.Type.String(),
		metaFingerprint: strconv.FormatUint(uint64(record.Fingerprint), 16),
		metaCreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func recordFromMetadata(md chroma.DocumentMetadata, preview string, vector []float32) *core.EmbeddingRecord {
	record := &core.EmbeddingRecord{
		ContentPreview: preview,
		Vector:         vector,
	}
	if v, ok := md.GetString(metaEmailID); ok {
		record.EmailID = v
	}
	if v, ok := md.GetString(metaType); ok {
		record.Type = parseEmbeddingType(v)
	}
	if v, ok := md.GetString(metaFingerprint); ok {
		if fp, err := strconv.ParseUint(v, 16, 64); err == nil {
			record.Fingerprint = core.Fingerprint(fp)
		}
	}
	if v, ok := md.GetString(metaCreatedAt); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			record.CreatedAt = ts
		}
	}
	return record
}

func parseEmbeddingType(s string) core.EmbeddingType {
	for _, typ := range core.EmbeddingTypes {
		if typ.String() == s {
			return typ
		}
	}
	return 0
}

// Upsert writes records with their precomputed vectors. Records that fail
// validation or the remote call are reported in the result; transport
// failures for the whole batch abort with ErrUnavailable.
func (s *Store) Upsert(ctx context.Context, collection string, records []*core.EmbeddingRecord) (*storage.UpsertResult, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	result := &storage.UpsertResult{}
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := core.ValidateEmbeddingRecord(record); err != nil {
			result.Failed = append(result.Failed, failureFor(record, err))
			continue
		}

		metadata, err := recordMetadata(record)
		if err != nil {
			result.Failed = append(result.Failed, failureFor(record, err))
			continue
		}

		err = col.Upsert(ctx,
			chroma.WithIDs(documentID(record.EmailID, record.Type)),
			chroma.WithMetadatas(metadata),
			chroma.WithTexts(record.ContentPreview),
			chroma.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(record.Vector)),
		)
		if err != nil {
			if unavailable(err) {
				return nil, classify(err)
			}
			s.logger.Warn("upsert failed for record", "emailID", record.EmailID, "type", record.Type.String(), "err", err)
			result.Failed = append(result.Failed, failureFor(record, err))
			continue
		}
		result.Upserted++
	}
	return result, nil
}

// Get retrieves a single record by its (EmailID, Type) key.
func (s *Store) Get(ctx context.Context, collection, emailID string, typ core.EmbeddingType) (*core.EmbeddingRecord, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	res, err := col.Get(ctx,
		chroma.WithIDsGet(documentID(emailID, typ)),
		chroma.WithIncludeGet(chroma.IncludeMetadatas, chroma.IncludeDocuments, chroma.IncludeEmbeddings),
	)
	if err != nil {
		return nil, classify(err)
	}

	ids := res.GetIDs()
	if len(ids) == 0 {
		return nil, storage.ErrNotFound
	}

	var preview string
	if docs := res.GetDocuments(); len(docs) > 0 {
		preview = docs[0].ContentString()
	}
	var vector []float32
	if embs := res.GetEmbeddings(); len(embs) > 0 && embs[0] != nil {
		vector = embs[0].ContentAsFloat32()
	}
	mds := res.GetMetadatas()
	if len(mds) == 0 {
		return nil, fmt.Errorf("%w: document %s has no metadata", storage.ErrSerializationFailed, ids[0])
	}
	return recordFromMetadata(mds[0], preview, vector), nil
}

// Query finds the topK most similar records. The remote server handles
// ranking; distances are converted to similarity scores as 1 - distance.
// Server-side ordering is taken as-is, so equal scores are not broken
// toward the most recent CreatedAt the way the embedded backend does.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]*storage.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be >= 1", storage.ErrInvalidQuery)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}

	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	count, err := col.Count(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	res, err := col.Query(ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chroma.WithNResults(topK),
		chroma.WithIncludeQuery(chroma.IncludeMetadatas, chroma.IncludeDocuments, chroma.IncludeDistances),
	)
	if err != nil {
		return nil, classify(err)
	}
	if res == nil || res.CountGroups() == 0 {
		return nil, nil
	}

	idGroups := res.GetIDGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}
	mdGroups := res.GetMetadatasGroups()
	docGroups := res.GetDocumentsGroups()
	distGroups := res.GetDistancesGroups()

	matches := make([]*storage.Match, 0, len(idGroups[0]))
	for i := range idGroups[0] {
		var md chroma.DocumentMetadata
		if len(mdGroups) > 0 && i < len(mdGroups[0]) {
			md = mdGroups[0][i]
		}
		if md == nil {
			continue
		}
		var preview string
		if len(docGroups) > 0 && i < len(docGroups[0]) {
			preview = docGroups[0][i].ContentString()
		}
		var score float32 = 0
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			score = 1 - float32(distGroups[0][i])
		}
		matches = append(matches, &storage.Match{
			Record: recordFromMetadata(md, preview, nil),
			Score:  score,
		})
	}
	return matches, nil
}

// Count returns the number of embedding records in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return 0, err
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, classify(err)
	}
	return count, nil
}

// Exists reports whether the collection holds records or a manifest.
func (s *Store) Exists(ctx context.Context, collection string) (bool, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return false, err
	}
	count, err := col.Count(ctx)
	if err != nil {
		return false, classify(err)
	}
	if count > 0 {
		return true, nil
	}
	if md := col.Metadata(); md != nil {
		if _, ok := md.GetString(manifestModel); ok {
			return true, nil
		}
	}
	return false, nil
}

// Info reads the collection manifest from the collection metadata.
func (s *Store) Info(ctx context.Context, collection string) (*core.CollectionInfo, error) {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	md := col.Metadata()
	if md == nil {
		return nil, storage.ErrNotFound
	}
	model, ok := md.GetString(manifestModel)
	if !ok {
		return nil, storage.ErrNotFound
	}

	info := &core.CollectionInfo{Model: model}
	if dim, ok := md.GetInt(manifestDimension); ok {
		info.Dimension = int(dim)
	}
	if ts, ok := md.GetString(manifestCreatedAt); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			info.CreatedAt = parsed
		}
	}
	return info, nil
}

// SetInfo writes the collection manifest into the collection metadata.
func (s *Store) SetInfo(ctx context.Context, collection string, info *core.CollectionInfo) error {
	col, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}

	md := chroma.NewMetadata()
	md.SetString(manifestModel, info.Model)
	md.SetInt(manifestDimension, int64(info.Dimension))
	md.SetString(manifestCreatedAt, info.CreatedAt.UTC().Format(time.RFC3339Nano))

	if err := col.ModifyMetadata(ctx, md); err != nil {
		return classify(err)
	}

	// The cached handle carries stale metadata after a modify.
	s.mu.Lock()
	delete(s.collections, collection)
	s.mu.Unlock()
	return nil
}

func failureFor(record *core.EmbeddingRecord, err error) storage.UpsertFailure {
	failure := storage.UpsertFailure{Reason: err.Error()}
	if record != nil {
		failure.EmailID = record.EmailID
		failure.Type = record.Type
	}
	return failure
}

func unavailable(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// classify wraps transport-level failures with the storage sentinel so
// callers can distinguish an unreachable server from a bad request.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if unavailable(err) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return err
}
