package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// Store implements storage.VectorStore on a BadgerDB backend using a
// brute-force similarity scan. Vectors are expected to be normalized, so
// the dot product is the cosine similarity.
type Store struct {
	backend *Backend
	logger  *slog.Logger
}

var (
	_ storage.VectorStore  = (*Store)(nil)
	_ storage.RecordLister = (*Store)(nil)
)

// NewStore creates a vector store on an open backend. The store takes
// ownership of the backend; Close closes it.
func NewStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// Open opens a BadgerDB-backed vector store at the given path.
//
// Returns storage.VectorStore interface to enforce abstraction.
func Open(filePath string) (storage.VectorStore, error) {
	backend, err := OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}
	return NewStore(backend), nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Upsert inserts or replaces records keyed by (EmailID, Type).
// Each record commits in its own transaction so one failure never rolls
// back records already committed. Cancellation is honored on entry
// only: once the call starts writing, every record is attempted, so a
// cancelled context never leaves the call's record set partially
// written.
func (s *Store) Upsert(ctx context.Context, collection string, records []*core.EmbeddingRecord) (*storage.UpsertResult, error) {
	if err := s.guard(collection); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := &storage.UpsertResult{}

	for _, record := range records {
		if err := core.ValidateEmbeddingRecord(record); err != nil {
			result.Failed = append(result.Failed, failureFor(record, err))
			continue
		}

		err := s.backend.WithTx(func(tx *badger.Txn) error {
			key := makeRecordKey(collection, record.EmailID, record.Type)
			if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			if fatal := classify(err); fatal != nil {
				return nil, fatal
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
	if err := s.guard(collection); err != nil {
		return nil, err
	}
	var record *core.EmbeddingRecord

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(collection, emailID, typ))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalEmbeddingRecord(val)
			return err
		})
	}, false)

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		if fatal := classify(err); fatal != nil {
			return nil, fatal
		}
		return nil, err
	}
	return record, nil
}

// Query finds the topK most similar records in a collection.
// Results are ordered by descending score; ties break toward the most
// recently created record. topK above the collection size is clamped.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]*storage.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: topK must be >= 1", storage.ErrInvalidQuery)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if err := s.guard(collection); err != nil {
		return nil, err
	}

	var matches []*storage.Match

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			matches = append(matches, &storage.Match{
				Record: record,
				Score:  dotProduct(vector, record.Vector),
			})
		}
		return nil
	}, false)

	if err != nil {
		if fatal := classify(err); fatal != nil {
			return nil, fatal
		}
		return nil, err
	}

	// Sort by score descending, most recent record first among ties.
	slices.SortFunc(matches, func(a, b *storage.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return b.Record.CreatedAt.Compare(a.Record.CreatedAt)
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of embedding records in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.guard(collection); err != nil {
		return 0, err
	}
	count := 0

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		if fatal := classify(err); fatal != nil {
			return 0, fatal
		}
		return 0, err
	}
	return count, nil
}

// Exists reports whether the collection has a manifest or any records.
func (s *Store) Exists(ctx context.Context, collection string) (bool, error) {
	if err := s.guard(collection); err != nil {
		return false, err
	}
	exists := false

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeInfoKey(collection)); err == nil {
			exists = true
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		iter.Rewind()
		exists = iter.Valid()
		return nil
	}, false)

	if err != nil {
		if fatal := classify(err); fatal != nil {
			return false, fatal
		}
		return false, err
	}
	return exists, nil
}

// Info returns the collection manifest.
func (s *Store) Info(ctx context.Context, collection string) (*core.CollectionInfo, error) {
	if err := s.guard(collection); err != nil {
		return nil, err
	}
	var info *core.CollectionInfo

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeInfoKey(collection))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			info, err = storage.UnmarshalCollectionInfo(val)
			return err
		})
	}, false)

	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		if fatal := classify(err); fatal != nil {
			return nil, fatal
		}
		return nil, err
	}
	return info, nil
}

// SetInfo writes the collection manifest.
func (s *Store) SetInfo(ctx context.Context, collection string, info *core.CollectionInfo) error {
	if err := s.guard(collection); err != nil {
		return err
	}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeInfoKey(collection), storage.MarshalCollectionInfo(info)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		if fatal := classify(err); fatal != nil {
			return fatal
		}
		return err
	}
	return nil
}

// List returns up to limit records starting after cursor, in key order.
// Implements storage.RecordLister.
func (s *Store) List(ctx context.Context, collection, cursor string, limit int) ([]*core.EmbeddingRecord, string, error) {
	if limit < 1 {
		return nil, "", fmt.Errorf("%w: limit must be >= 1", storage.ErrInvalidQuery)
	}
	if err := s.guard(collection); err != nil {
		return nil, "", err
	}

	prefix := makeCollectionPrefix(collection)
	var records []*core.EmbeddingRecord
	var lastKey []byte

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		if cursor == "" {
			iter.Rewind()
		} else {
			iter.Seek([]byte(cursor))
			// The cursor is the last key of the previous page.
			if iter.Valid() && bytes.Equal(iter.Item().Key(), []byte(cursor)) {
				iter.Next()
			}
		}

		for ; iter.Valid() && len(records) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			records = append(records, record)
			lastKey = iter.Item().KeyCopy(nil)
		}
		return nil
	}, false)

	if err != nil {
		if fatal := classify(err); fatal != nil {
			return nil, "", fatal
		}
		return nil, "", err
	}

	next := ""
	if len(records) == limit {
		next = string(lastKey)
	}
	return records, next, nil
}

// guard validates the collection name and rejects use after Close.
func (s *Store) guard(collection string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if s.backend.IsClosed() {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, storage.ErrStorageClosed)
	}
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

// dotProduct computes the dot product of two vectors. Dimensions beyond
// the shorter vector are ignored so records written with a different
// model never panic a query.
func dotProduct(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// classify maps backend lifecycle errors onto the storage sentinels.
// Returns nil for errors that are not fatal for the whole store.
func classify(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return nil
}
